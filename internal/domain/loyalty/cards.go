package loyalty

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/fault"
)

// Cards issues and reads persisted discount cards.
type Cards struct {
	repo Repository
	now  func() time.Time
}

// NewCards returns a Cards service backed by repo.
func NewCards(repo Repository) *Cards {
	return &Cards{repo: repo, now: time.Now}
}

// Issue creates a card with the given starting balance.
func (c *Cards) Issue(ctx context.Context, initial decimal.Decimal) (*Card, error) {
	if initial.IsNegative() {
		return nil, fault.Argument("initial amount", "must not be negative")
	}

	card := &Card{
		ID:          uuid.New().String(),
		Accumulated: initial,
		CreatedAt:   c.now().UTC(),
	}
	if err := c.repo.Create(ctx, card); err != nil {
		return nil, errors.Wrap(err, "create card")
	}
	return card, nil
}

// Get returns the card with the given id.
func (c *Cards) Get(ctx context.Context, id string) (*Card, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, &CardNotFoundError{ID: id}
	}
	return c.repo.Get(ctx, id)
}
