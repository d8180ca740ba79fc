package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/xenking/pos-terminal/internal/domain/auth"
)

// APIKeyHeader carries the register's API key.
const APIKeyHeader = "X-API-Key"

// Authenticator resolves an API key to a register.
type Authenticator interface {
	Authenticate(ctx context.Context, key string) (*auth.Register, error)
}

type registerKey struct{}

// RegisterFromContext returns the authenticated register, if any.
func RegisterFromContext(ctx context.Context) (*auth.Register, bool) {
	reg, ok := ctx.Value(registerKey{}).(*auth.Register)
	return reg, ok
}

// requireScope rejects requests without a valid key (401) or whose register
// lacks scope (403). Authentication storage failures are 500.
func (h *Handler) requireScope(scope string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reg, err := h.authn.Authenticate(r.Context(), r.Header.Get(APIKeyHeader))
		switch {
		case errors.Is(err, auth.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		case err != nil:
			writeDomainError(w, r, err)
			return
		}
		if !reg.Allows(scope) {
			writeError(w, http.StatusForbidden, "missing scope "+scope)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), registerKey{}, reg)))
	})
}
