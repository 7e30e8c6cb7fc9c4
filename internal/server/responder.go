package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// respondError maps domain errors onto HTTP statuses. Typed errors keep their
// own messages; everything unrecognized becomes an opaque 500.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, domain.ErrCartNotFound),
		errors.Is(err, domain.ErrCartItemNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrDiscountNotFound),
		errors.Is(err, domain.ErrOrderNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrDuplicateCoupon),
		errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidCoupon),
		errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrVariantMismatch),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPaymentMethod):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrForbidden):
		status = http.StatusForbidden
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		message = "internal server error"
	}

	respondJSON(w, status, errorResponse{Error: message})
}
