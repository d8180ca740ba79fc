// Command seed-db loads the reference catalog, demo discount cards and a
// register API key into PostgreSQL.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/auth"
	"github.com/xenking/pos-terminal/internal/domain/loyalty"
	"github.com/xenking/pos-terminal/internal/seed"
	"github.com/xenking/pos-terminal/internal/storage/postgres"
)

// demoCards cover each tier boundary used by the checkout examples.
var demoCards = []loyalty.Card{
	{ID: "00000000-0000-4000-8000-000000000001", Accumulated: decimal.Zero},
	{ID: "00000000-0000-4000-8000-000000000002", Accumulated: decimal.NewFromInt(1000)},
	{ID: "00000000-0000-4000-8000-000000000003", Accumulated: decimal.NewFromInt(2150)},
	{ID: "00000000-0000-4000-8000-000000000004", Accumulated: decimal.NewFromInt(5000)},
	{ID: "00000000-0000-4000-8000-000000000005", Accumulated: decimal.NewFromInt(12000)},
}

func main() {
	var (
		databaseURL  string
		catalogFile  string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or POS_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or POS_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("POS_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or POS_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("POS_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, catalogFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, catalogFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedCatalog(ctx, postgres.NewRuleRepository(pool), catalogFile); err != nil {
		return errors.Wrap(err, "seed catalog")
	}

	if err := seedCards(ctx, postgres.NewCardRepository(pool)); err != nil {
		return errors.Wrap(err, "seed cards")
	}

	if err := seedAPIKey(ctx, postgres.NewAPIKeyRepository(pool), apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedCatalog(ctx context.Context, repo *postgres.RuleRepository, catalogFile string) error {
	slog.Info("reading catalog file", slog.String("path", catalogFile))

	data, err := os.ReadFile(catalogFile)
	if err != nil {
		return errors.Wrap(err, "read catalog file")
	}

	rules, err := seed.ParseCatalog(data)
	if err != nil {
		return err
	}

	slog.Info("upserting price rules", slog.Int("count", len(rules)))

	if err := repo.Upsert(ctx, rules); err != nil {
		return err
	}

	for _, r := range rules {
		attrs := []any{slog.String("code", r.Code()), slog.String("unit_price", r.UnitPrice().String())}
		if v, ok := r.Volume(); ok {
			attrs = append(attrs, slog.Int("pack_size", v.PackSize), slog.String("pack_price", v.PackPrice.String()))
		}
		slog.Info("upserted price rule", attrs...)
	}

	return nil
}

func seedCards(ctx context.Context, repo *postgres.CardRepository) error {
	slog.Info("seeding demo discount cards")

	now := time.Now().UTC()
	for _, c := range demoCards {
		if _, err := repo.Get(ctx, c.ID); err == nil {
			slog.Info("card exists, skipping", slog.String("id", c.ID))
			continue
		} else if !errors.As(err, new(*loyalty.CardNotFoundError)) {
			return err
		}

		card := c
		card.CreatedAt = now
		if err := repo.Create(ctx, &card); err != nil {
			return err
		}

		slog.Info("created card",
			slog.String("id", card.ID),
			slog.String("balance", card.Accumulated.String()),
			slog.String("tier", card.Tier().Name),
		)
	}

	return nil
}

func seedAPIKey(ctx context.Context, repo *postgres.APIKeyRepository, apiKey, pepper string) error {
	slog.Info("seeding default API key")

	reg := &auth.Register{
		ID:      "default",
		KeyHash: auth.HashKey([]byte(pepper), apiKey),
		Name:    "Default register",
		Scopes:  []string{auth.ScopeCheckout, auth.ScopeCards},
	}
	if err := repo.Upsert(ctx, reg); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}

	slog.Info("upserted API key", slog.String("id", reg.ID), slog.String("name", reg.Name))

	return nil
}
