package api

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/pos-backend/internal/domain/catalog"
	"github.com/xenking/pos-backend/internal/domain/report"
	"github.com/xenking/pos-backend/internal/domain/transaction"
)

// respond writes a JSON body built by fn with the given status code.
func respond(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := &jx.Encoder{}
	fn(e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// respondError writes the {code, message} error body every endpoint shares.
func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(message) })
		})
	})
}

// respondDomainError maps domain sentinel errors onto HTTP statuses. Anything
// unmapped is a 500 and gets logged; sentinel misses are the client's fault
// and stay out of the log.
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, transaction.ErrNotFound):
		respondError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, catalog.ErrCategoryNotFound):
		respondError(w, http.StatusNotFound, "Category not found")
	case errors.Is(err, catalog.ErrItemNotFound):
		respondError(w, http.StatusNotFound, "Item not found")
	case errors.Is(err, transaction.ErrInvalidState):
		respondError(w, http.StatusBadRequest, "Transaction is not open")
	case errors.Is(err, transaction.ErrItemUnavailable):
		respondError(w, http.StatusBadRequest, "Item is out of stock")
	case errors.Is(err, transaction.ErrInsufficientPayment):
		respondError(w, http.StatusBadRequest, "Insufficient payment amount")
	case errors.Is(err, transaction.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "Quantity must be greater than 0")
	case errors.Is(err, report.ErrInvalidRange):
		respondError(w, http.StatusBadRequest, "End date must be after start date")
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}
