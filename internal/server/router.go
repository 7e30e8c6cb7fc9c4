// Package server exposes the storefront transaction API over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/shopstack/commerce-core/internal/metrics"
	"github.com/shopstack/commerce-core/internal/service"
)

// NewRouter assembles the full HTTP surface: the versioned API behind the
// identity middleware, plus unauthenticated health and metrics endpoints.
func NewRouter(
	carts *service.CartService,
	checkout *service.CheckoutService,
	orders *service.OrderService,
	m *metrics.Metrics,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Instrument(m))
		r.Use(Identity)

		NewCartHandler(carts, checkout, m).Routes(r)
		NewOrderHandler(orders).Routes(r)
	})

	return r
}
