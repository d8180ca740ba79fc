package loyalty

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/fault"
)

// Card is a persisted discount card.
type Card struct {
	ID          string
	Accumulated decimal.Decimal
	CreatedAt   time.Time
}

// Tier returns the tier for the card's balance.
func (c Card) Tier() Tier { return TierFor(c.Accumulated) }

// CardNotFoundError is returned when a card id is unknown.
type CardNotFoundError struct {
	ID string
}

func (e *CardNotFoundError) Error() string {
	return fmt.Sprintf("discount card %s not found", e.ID)
}

func (e *CardNotFoundError) Unwrap() error { return fault.ErrNotFound }

// Repository persists discount cards. Accumulate must add to the stored
// balance atomically and return the new balance.
type Repository interface {
	Create(ctx context.Context, card *Card) error
	Get(ctx context.Context, id string) (*Card, error)
	Accumulate(ctx context.Context, id string, gross decimal.Decimal) (decimal.Decimal, error)
}
