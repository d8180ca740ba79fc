// Package auth authenticates registers calling the API with a static key.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"slices"

	"github.com/go-faster/errors"
)

// Scopes granted to register keys.
const (
	ScopeCheckout = "checkout"
	ScopeCards    = "cards"
)

// ErrUnauthorized is returned for unknown, inactive or mismatching keys.
var ErrUnauthorized = errors.New("unauthorized")

// Register is the identity behind an API key.
type Register struct {
	ID      string
	KeyHash string
	Name    string
	Scopes  []string
}

// Allows reports whether the register was granted scope.
func (r *Register) Allows(scope string) bool {
	return slices.Contains(r.Scopes, scope)
}

// Repository looks up active keys by their HMAC hash. Unknown hashes are
// reported as ErrUnauthorized.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*Register, error)
}

// HashKey returns the hex HMAC-SHA256 of key under pepper.
func HashKey(pepper []byte, key string) string {
	return hex.EncodeToString(sum(pepper, key))
}

func sum(pepper []byte, key string) []byte {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return mac.Sum(nil)
}

// Authenticator resolves raw API keys to registers.
type Authenticator struct {
	repo   Repository
	pepper []byte
}

// NewAuthenticator returns an Authenticator hashing keys with pepper.
func NewAuthenticator(repo Repository, pepper []byte) *Authenticator {
	return &Authenticator{repo: repo, pepper: pepper}
}

// Authenticate returns the register owning key. Rejected keys yield
// ErrUnauthorized; storage failures are returned wrapped.
func (a *Authenticator) Authenticate(ctx context.Context, key string) (*Register, error) {
	if key == "" {
		return nil, ErrUnauthorized
	}

	hash := sum(a.pepper, key)
	reg, err := a.repo.FindByHash(ctx, hex.EncodeToString(hash))
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrUnauthorized
		}
		return nil, errors.Wrap(err, "find api key")
	}

	stored, err := hex.DecodeString(reg.KeyHash)
	if err != nil || subtle.ConstantTimeCompare(hash, stored) != 1 {
		return nil, ErrUnauthorized
	}
	return reg, nil
}
