// Package checkout prices a complete register transaction against the stored
// catalog and, when a discount card is presented, settles it against the
// stored card balance.
package checkout

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/pos-terminal/internal/domain/fault"
	"github.com/xenking/pos-terminal/internal/domain/loyalty"
	"github.com/xenking/pos-terminal/internal/domain/pricing"
	"github.com/xenking/pos-terminal/internal/domain/terminal"
)

// ErrEmptyScan is returned when a checkout carries no product codes.
var ErrEmptyScan = fault.Argument("codes", "at least one product code is required")

// Request is a scanned transaction. Codes are in scan order, one entry per unit.
type Request struct {
	Codes  []string
	CardID string
}

// Receipt is the priced transaction. Money values are exact.
type Receipt struct {
	ID           string
	Lines        []terminal.Line
	Subtotal     decimal.Decimal
	CardEligible decimal.Decimal
	Gross        decimal.Decimal
	Rate         decimal.Decimal
	Discount     decimal.Decimal
	Total        decimal.Decimal
	Card         *CardResult
	CreatedAt    time.Time
}

// CardResult describes the card used for a receipt.
type CardResult struct {
	ID      string
	Tier    loyalty.Tier
	Balance decimal.Decimal
}

// Service runs checkouts.
type Service struct {
	rules pricing.Repository
	cards loyalty.Repository
	now   func() time.Time

	checkouts metric.Int64Counter
	discounts metric.Float64Counter
}

// NewService creates a checkout Service. The meter records checkout counts
// and granted discounts.
func NewService(rules pricing.Repository, cards loyalty.Repository, meter metric.Meter) (*Service, error) {
	checkouts, err := meter.Int64Counter("pos.checkouts",
		metric.WithDescription("Completed checkouts"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "checkouts counter")
	}
	discounts, err := meter.Float64Counter("pos.discount.granted",
		metric.WithDescription("Loyalty discount granted"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "discount counter")
	}

	return &Service{
		rules:     rules,
		cards:     cards,
		now:       time.Now,
		checkouts: checkouts,
		discounts: discounts,
	}, nil
}

// Catalog loads and validates the stored catalog.
func (s *Service) Catalog(ctx context.Context) (*pricing.Catalog, error) {
	rules, err := s.rules.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list price rules")
	}
	if len(rules) == 0 {
		return nil, fault.State("no pricing configured")
	}
	return pricing.NewCatalog(rules)
}

// Checkout prices req. The card balance grows by the transaction's gross
// amount only after every code was priced; the discount uses the rate in
// effect before that.
func (s *Service) Checkout(ctx context.Context, req Request) (*Receipt, error) {
	if len(req.Codes) == 0 {
		return nil, ErrEmptyScan
	}

	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	term := terminal.New()
	if err := term.SetCatalog(catalog); err != nil {
		return nil, err
	}
	if err := term.ScanAll(req.Codes); err != nil {
		return nil, err
	}

	lines, err := term.Lines()
	if err != nil {
		return nil, err
	}
	breakdown, err := term.Breakdown()
	if err != nil {
		return nil, err
	}

	var card *loyalty.Card
	rate := decimal.Zero
	if req.CardID != "" {
		card, err = s.cards.Get(ctx, req.CardID)
		if err != nil {
			return nil, errors.Wrap(err, "get card")
		}
		rate = card.Tier().Rate
	}

	summary := terminal.Apply(breakdown, rate)
	receipt := &Receipt{
		ID:           uuid.New().String(),
		Lines:        lines,
		Subtotal:     summary.Total,
		CardEligible: summary.CardEligible,
		Gross:        summary.Gross,
		Rate:         summary.Rate,
		Discount:     summary.Discount,
		Total:        summary.Final,
		CreatedAt:    s.now().UTC(),
	}

	withCard := card != nil
	if withCard {
		balance, err := s.cards.Accumulate(ctx, card.ID, summary.Gross)
		if err != nil {
			return nil, errors.Wrap(err, "accumulate card")
		}
		receipt.Card = &CardResult{
			ID:      card.ID,
			Tier:    loyalty.TierFor(balance),
			Balance: balance,
		}
		s.discounts.Add(ctx, summary.Discount.InexactFloat64(),
			metric.WithAttributes(attribute.String("tier", card.Tier().Name)),
		)
	}
	s.checkouts.Add(ctx, 1, metric.WithAttributes(attribute.Bool("card", withCard)))

	return receipt, nil
}
