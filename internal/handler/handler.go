// Package handler exposes the checkout, catalog and card operations as a
// JSON HTTP API.
package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/xenking/pos-terminal/internal/domain/auth"
	"github.com/xenking/pos-terminal/internal/domain/checkout"
	"github.com/xenking/pos-terminal/internal/domain/loyalty"
)

// maxBodyBytes bounds request bodies; a scan list of a few thousand codes
// fits comfortably.
const maxBodyBytes = 1 << 20

// Handler serves the /api routes.
type Handler struct {
	checkout *checkout.Service
	cards    *loyalty.Cards
	authn    Authenticator
	validate *validator.Validate
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	checkoutService *checkout.Service,
	cards *loyalty.Cards,
	authn Authenticator,
) *Handler {
	return &Handler{
		checkout: checkoutService,
		cards:    cards,
		authn:    authn,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Register mounts the API routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/catalog", h.Catalog)
	mux.Handle("POST /api/checkout", h.requireScope(auth.ScopeCheckout, h.Checkout))
	mux.Handle("POST /api/cards", h.requireScope(auth.ScopeCards, h.IssueCard))
	mux.Handle("GET /api/cards/{id}", h.requireScope(auth.ScopeCards, h.GetCard))
}
