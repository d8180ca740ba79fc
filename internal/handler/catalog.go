package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/pos-terminal/internal/domain/loyalty"
	"github.com/xenking/pos-terminal/internal/domain/pricing"
)

// Catalog lists the price rules and the loyalty tier table.
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.checkout.Catalog(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("products", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, rule := range catalog.Rules() {
					encodeRule(e, rule)
				}
			})
		})
		e.Field("tiers", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, t := range loyalty.Tiers() {
					encodeTier(e, t)
				}
			})
		})
	})
	writeJSON(w, http.StatusOK, &e)
}

func encodeRule(e *jx.Encoder, rule pricing.Rule) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Str(rule.Code()) })
		money(e, "unitPrice", rule.UnitPrice())
		if v, ok := rule.Volume(); ok {
			e.Field("volume", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("packSize", func(e *jx.Encoder) { e.Int(v.PackSize) })
					money(e, "packPrice", v.PackPrice)
				})
			})
		}
	})
}

func encodeTier(e *jx.Encoder, t loyalty.Tier) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("name", func(e *jx.Encoder) { e.Str(t.Name) })
		money(e, "threshold", t.Threshold)
		e.Field("rate", func(e *jx.Encoder) { e.Str(t.Rate.String()) })
	})
}
