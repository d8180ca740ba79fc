package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/pos-terminal/internal/domain/fault"
	"github.com/xenking/pos-terminal/internal/domain/pricing"
)

var errEmptyBody = errors.New("request body is empty")

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read body")
	}
	if len(data) == 0 {
		return nil, errEmptyBody
	}
	return data, nil
}

func writeJSON(w http.ResponseWriter, status int, e *jx.Encoder) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("code", func(e *jx.Encoder) { e.Int(status) })
		e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
	})
	writeJSON(w, status, &e)
}

// writeDomainError maps error kinds to status codes. Unknown product codes
// inside a valid request are 422; other missing resources are 404.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		upErr  *pricing.UnknownProductError
		valErr validator.ValidationErrors
	)
	switch {
	case errors.As(err, &valErr):
		writeError(w, http.StatusBadRequest, validationMessage(valErr))
	case errors.Is(err, errEmptyBody), errors.Is(err, fault.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &upErr):
		writeError(w, http.StatusUnprocessableEntity, upErr.Error())
	case errors.Is(err, fault.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, fault.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func validationMessage(errs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(errs))
	for _, fe := range errs {
		msgs = append(msgs, fe.Namespace()+" failed "+fe.Tag())
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

func money(e *jx.Encoder, name string, v decimal.Decimal) {
	e.Field(name, func(e *jx.Encoder) { e.Str(v.String()) })
}
