package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/loyalty"
)

const (
	createCardSQL = `INSERT INTO loyalty_cards (id, accumulated, created_at) VALUES ($1, $2, $3)`

	getCardSQL = `SELECT id, accumulated, created_at FROM loyalty_cards WHERE id = $1`

	// Single statement so concurrent checkouts never lose an accumulation.
	accumulateCardSQL = `UPDATE loyalty_cards
		SET accumulated = accumulated + $2, updated_at = now()
		WHERE id = $1
		RETURNING accumulated`
)

var _ loyalty.Repository = (*CardRepository)(nil)

// CardRepository stores discount cards.
type CardRepository struct {
	pool *pgxpool.Pool
}

// NewCardRepository returns a CardRepository that uses the given pool.
func NewCardRepository(pool *pgxpool.Pool) *CardRepository {
	return &CardRepository{pool: pool}
}

// Create inserts a new card.
func (r *CardRepository) Create(ctx context.Context, c *loyalty.Card) error {
	if _, err := r.pool.Exec(ctx, createCardSQL, c.ID, c.Accumulated, c.CreatedAt); err != nil {
		return errors.Wrapf(err, "insert card %s", c.ID)
	}
	return nil
}

// Get returns the card with the given id or a loyalty.CardNotFoundError.
func (r *CardRepository) Get(ctx context.Context, id string) (*loyalty.Card, error) {
	var c loyalty.Card
	err := r.pool.QueryRow(ctx, getCardSQL, id).Scan(&c.ID, &c.Accumulated, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &loyalty.CardNotFoundError{ID: id}
		}
		return nil, errors.Wrapf(err, "get card %s", id)
	}
	return &c, nil
}

// Accumulate adds gross to the stored balance and returns the new balance.
func (r *CardRepository) Accumulate(ctx context.Context, id string, gross decimal.Decimal) (decimal.Decimal, error) {
	if gross.IsNegative() {
		return decimal.Decimal{}, errors.Errorf("accumulate card %s: negative amount %s", id, gross)
	}

	var balance decimal.Decimal
	err := r.pool.QueryRow(ctx, accumulateCardSQL, id, gross).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Decimal{}, &loyalty.CardNotFoundError{ID: id}
		}
		return decimal.Decimal{}, errors.Wrapf(err, "accumulate card %s", id)
	}
	return balance, nil
}
