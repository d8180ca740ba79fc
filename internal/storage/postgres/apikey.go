package postgres

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/pos-terminal/internal/domain/auth"
)

const (
	findAPIKeySQL = `SELECT id, key_hash, name, scopes FROM api_keys WHERE key_hash = $1 AND active`

	upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, scopes, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			key_hash = EXCLUDED.key_hash,
			name     = EXCLUDED.name,
			scopes   = EXCLUDED.scopes,
			active   = TRUE`
)

var _ auth.Repository = (*APIKeyRepository)(nil)

// APIKeyRepository stores register API keys.
type APIKeyRepository struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository returns an APIKeyRepository that uses the given pool.
func NewAPIKeyRepository(pool *pgxpool.Pool) *APIKeyRepository {
	return &APIKeyRepository{pool: pool}
}

// FindByHash looks up an active key by its HMAC hash. Unknown or inactive
// keys yield auth.ErrUnauthorized.
func (r *APIKeyRepository) FindByHash(ctx context.Context, hash string) (*auth.Register, error) {
	var reg auth.Register
	err := r.pool.QueryRow(ctx, findAPIKeySQL, hash).Scan(&reg.ID, &reg.KeyHash, &reg.Name, &reg.Scopes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUnauthorized
		}
		return nil, errors.Wrap(err, "find api key by hash")
	}
	return &reg, nil
}

// Upsert stores reg as an active key.
func (r *APIKeyRepository) Upsert(ctx context.Context, reg *auth.Register) error {
	if _, err := r.pool.Exec(ctx, upsertAPIKeySQL, reg.ID, reg.KeyHash, reg.Name, reg.Scopes); err != nil {
		return errors.Wrapf(err, "upsert api key %s", reg.ID)
	}
	return nil
}
