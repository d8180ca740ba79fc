package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/pos-terminal/internal/domain/fault"
	"github.com/xenking/pos-terminal/internal/domain/loyalty"
)

type issueCardRequest struct {
	InitialBalance string `validate:"omitempty,numeric"`
}

func (req *issueCardRequest) decode(d *jx.Decoder) error {
	return d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		if string(key) != "initialBalance" {
			return d.Skip()
		}
		switch d.Next() {
		case jx.Number:
			n, err := d.Num()
			req.InitialBalance = n.String()
			return err
		default:
			s, err := d.Str()
			req.InitialBalance = s
			return err
		}
	})
}

// IssueCard creates a discount card. The body is optional.
func (h *Handler) IssueCard(w http.ResponseWriter, r *http.Request) {
	var req issueCardRequest
	data, err := readBody(r)
	switch {
	case err == nil:
		if err := req.decode(jx.DecodeBytes(data)); err != nil {
			writeDomainError(w, r, fault.Argument("body", err.Error()))
			return
		}
	case !errors.Is(err, errEmptyBody):
		writeDomainError(w, r, err)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeDomainError(w, r, err)
		return
	}

	initial := decimal.Zero
	if req.InitialBalance != "" {
		initial, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			writeDomainError(w, r, fault.Argument("initial balance", err.Error()))
			return
		}
	}

	card, err := h.cards.Issue(r.Context(), initial)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeCard(&e, card)
	writeJSON(w, http.StatusCreated, &e)
}

// GetCard returns a card's balance and tier.
func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	var e jx.Encoder
	encodeCard(&e, card)
	writeJSON(w, http.StatusOK, &e)
}

func encodeCard(e *jx.Encoder, c *loyalty.Card) {
	tier := c.Tier()
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		money(e, "balance", c.Accumulated)
		e.Field("tier", func(e *jx.Encoder) { e.Str(tier.Name) })
		e.Field("rate", func(e *jx.Encoder) { e.Str(tier.Rate.String()) })
		e.Field("createdAt", func(e *jx.Encoder) { e.Str(c.CreatedAt.Format(time.RFC3339)) })
	})
}
