package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/pricing"
)

const (
	listRulesSQL = `SELECT code, unit_price, pack_size, pack_price FROM price_rules ORDER BY code`

	upsertRuleSQL = `INSERT INTO price_rules (code, unit_price, pack_size, pack_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code) DO UPDATE SET
			unit_price = EXCLUDED.unit_price,
			pack_size  = EXCLUDED.pack_size,
			pack_price = EXCLUDED.pack_price,
			updated_at = now()`
)

var _ pricing.Repository = (*RuleRepository)(nil)

// RuleRepository stores the price catalog.
type RuleRepository struct {
	pool *pgxpool.Pool
}

// NewRuleRepository returns a RuleRepository that uses the given pool.
func NewRuleRepository(pool *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{pool: pool}
}

// List returns every rule ordered by code. Rows violating rule invariants
// fail the whole listing.
func (r *RuleRepository) List(ctx context.Context) ([]pricing.Rule, error) {
	rows, err := r.pool.Query(ctx, listRulesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list price rules")
	}
	return pgx.CollectRows(rows, scanRule)
}

// Upsert writes rules in a single transaction.
func (r *RuleRepository) Upsert(ctx context.Context, rules []pricing.Rule) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rule := range rules {
			var (
				size  *int32
				price decimal.NullDecimal
			)
			if v, ok := rule.Volume(); ok {
				n := int32(v.PackSize)
				size = &n
				price = decimal.NewNullDecimal(v.PackPrice)
			}
			batch.Queue(upsertRuleSQL, rule.Code(), rule.UnitPrice(), size, price)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "upsert price rules")
		}
		return nil
	})
}

func scanRule(row pgx.CollectableRow) (pricing.Rule, error) {
	var (
		code      string
		unitPrice decimal.Decimal
		packSize  *int32
		packPrice decimal.NullDecimal
	)
	if err := row.Scan(&code, &unitPrice, &packSize, &packPrice); err != nil {
		return pricing.Rule{}, err
	}

	if packSize == nil || !packPrice.Valid {
		return pricing.NewRule(code, unitPrice)
	}
	return pricing.NewRuleWithVolume(code, unitPrice, pricing.VolumeRule{
		PackSize:  int(*packSize),
		PackPrice: packPrice.Decimal,
	})
}
