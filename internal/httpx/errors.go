package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ariefcatur/storefront-orders/internal/orders"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors onto status codes. Anything unrecognised is
// logged and answered with a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		notFound   *orders.NotFoundError
		validation *orders.ValidationError
		transition *orders.TransitionError
		cancel     *orders.CancelError
		stock      *orders.OutOfStockError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: validation.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: notFound.Resource + " not found"})
	case errors.Is(err, orders.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, errorBody{Error: err.Error()})
	case errors.Is(err, orders.ErrUpdateInFlight), errors.Is(err, orders.ErrStaleStatus), errors.Is(err, orders.ErrExternalIDTaken):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.As(err, &transition):
		writeJSON(w, http.StatusConflict, errorBody{Error: transition.Error()})
	case errors.As(err, &cancel):
		writeJSON(w, http.StatusConflict, errorBody{Error: cancel.Error()})
	case errors.As(err, &stock):
		writeJSON(w, http.StatusConflict, errorBody{Error: stock.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("request timed out", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "request timed out"})
	default:
		log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
