package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/metrics"
)

type contextKey string

const ownerKey contextKey = "owner"

const (
	headerUserID    = "X-User-ID"
	headerSessionID = "X-Session-ID"
)

// Identity resolves the shopper from request headers. Authenticated requests
// carry X-User-ID, anonymous ones X-Session-ID; requests with neither are
// rejected before reaching a handler.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := domain.OwnerKey{
			UserID:    r.Header.Get(headerUserID),
			SessionID: r.Header.Get(headerSessionID),
		}
		if owner.IsZero() {
			respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "missing X-User-ID or X-Session-ID header"})
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey, owner)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ownerFrom(r *http.Request) domain.OwnerKey {
	owner, _ := r.Context().Value(ownerKey).(domain.OwnerKey)
	return owner
}

// Instrument records request count and latency per route pattern, so path
// parameters do not explode label cardinality.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			route := chi.RouteContext(r.Context()).RoutePattern()
			if route == "" {
				route = "unmatched"
			}
			handler := r.Method + " " + route

			m.HTTPRequests.WithLabelValues(handler, strconv.Itoa(ww.Status())).Inc()
			m.HTTPLatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
		})
	}
}
