package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-terminal/internal/domain/checkout"
	"github.com/xenking/pos-terminal/internal/domain/fault"
)

// checkoutRequest lists scanned codes either as an array or, for single
// character codes, as one string in scan order.
type checkoutRequest struct {
	Codes  []string `validate:"omitempty,max=10000,dive,required,max=64"`
	Scan   string   `validate:"max=10000"`
	CardID string   `validate:"omitempty,uuid"`
}

func (req *checkoutRequest) decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		switch string(key) {
		case "codes":
			return d.Arr(func(d *jx.Decoder) error {
				code, err := d.Str()
				if err != nil {
					return err
				}
				req.Codes = append(req.Codes, code)
				return nil
			})
		case "scan":
			s, err := d.Str()
			req.Scan = s
			return err
		case "cardId":
			if d.Next() == jx.Null {
				return d.Null()
			}
			s, err := d.Str()
			req.CardID = s
			return err
		default:
			return d.Skip()
		}
	})
}

func (req *checkoutRequest) codes() []string {
	if len(req.Codes) > 0 {
		return req.Codes
	}
	out := make([]string, 0, len(req.Scan))
	for _, c := range req.Scan {
		out = append(out, string(c))
	}
	return out
}

// Checkout prices a scanned transaction and settles the optional card.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var req checkoutRequest
	if err := req.decode(jx.DecodeBytes(data)); err != nil {
		writeDomainError(w, r, fault.Argument("body", err.Error()))
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	receipt, err := h.checkout.Checkout(r.Context(), checkout.Request{
		Codes:  req.codes(),
		CardID: req.CardID,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	if reg, ok := RegisterFromContext(r.Context()); ok {
		zctx.From(r.Context()).Info("Checkout completed",
			zap.String("register_id", reg.ID),
			zap.String("receipt_id", receipt.ID),
			zap.String("total", receipt.Total.String()),
		)
	}

	var e jx.Encoder
	encodeReceipt(&e, receipt)
	writeJSON(w, http.StatusOK, &e)
}

func encodeReceipt(e *jx.Encoder, rc *checkout.Receipt) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(rc.ID) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range rc.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("code", func(e *jx.Encoder) { e.Str(l.Code) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						money(e, "total", l.Total)
						money(e, "cardEligible", l.CardEligible)
						money(e, "gross", l.Gross)
					})
				}
			})
		})
		money(e, "subtotal", rc.Subtotal)
		money(e, "cardEligible", rc.CardEligible)
		money(e, "gross", rc.Gross)
		e.Field("rate", func(e *jx.Encoder) { e.Str(rc.Rate.String()) })
		money(e, "discount", rc.Discount)
		money(e, "total", rc.Total)
		if rc.Card != nil {
			e.Field("card", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("id", func(e *jx.Encoder) { e.Str(rc.Card.ID) })
					e.Field("tier", func(e *jx.Encoder) { e.Str(rc.Card.Tier.Name) })
					money(e, "balance", rc.Card.Balance)
				})
			})
		}
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(rc.CreatedAt.Format(time.RFC3339)) })
	})
}
