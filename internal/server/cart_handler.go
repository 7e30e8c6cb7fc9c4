package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/metrics"
	"github.com/shopstack/commerce-core/internal/service"
)

type CartHandler struct {
	carts    *service.CartService
	checkout *service.CheckoutService
	metrics  *metrics.Metrics
}

func NewCartHandler(carts *service.CartService, checkout *service.CheckoutService, m *metrics.Metrics) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkout, metrics: m}
}

func (h *CartHandler) Routes(r chi.Router) {
	r.Get("/cart", h.getCart)
	r.Delete("/cart", h.clearCart)
	r.Post("/cart/items", h.addItem)
	r.Put("/cart/items/{itemID}", h.updateItemQuantity)
	r.Delete("/cart/items/{itemID}", h.removeItem)
	r.Post("/cart/coupons", h.applyCoupon)
	r.Delete("/cart/coupons/{code}", h.removeCoupon)
	r.Post("/orders/checkout", h.placeOrder)
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.GetCart(r.Context(), ownerFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

type addItemRequest struct {
	ProductID uuid.UUID     `json:"product_id"`
	VariantID uuid.NullUUID `json:"variant_id"`
	Quantity  int           `json:"quantity"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cart, err := h.carts.AddItem(r.Context(), ownerFrom(r), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) updateItemQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid item id"})
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cart, err := h.carts.UpdateItemQuantity(r.Context(), ownerFrom(r), itemID, req.Quantity)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid item id"})
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), ownerFrom(r), itemID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.ClearCart(r.Context(), ownerFrom(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

type applyCouponRequest struct {
	Code string `json:"code"`
}

func (h *CartHandler) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req applyCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	cart, err := h.carts.ApplyCoupon(r.Context(), ownerFrom(r), req.Code)
	if err != nil {
		h.metrics.CouponsApplied.WithLabelValues("rejected").Inc()
		respondError(w, err)
		return
	}

	h.metrics.CouponsApplied.WithLabelValues("accepted").Inc()
	respondJSON(w, http.StatusOK, cart)
}

func (h *CartHandler) removeCoupon(w http.ResponseWriter, r *http.Request) {
	cart, err := h.carts.RemoveCoupon(r.Context(), ownerFrom(r), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, cart)
}

type checkoutRequest struct {
	Customer        domain.CustomerInfo  `json:"customer"`
	ShippingAddress domain.Address       `json:"shipping_address"`
	BillingAddress  domain.Address       `json:"billing_address"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
	CustomerNote    string               `json:"customer_note"`
}

func (h *CartHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	billing := req.BillingAddress
	if billing == (domain.Address{}) {
		billing = req.ShippingAddress
	}

	order, err := h.checkout.Checkout(r.Context(), ownerFrom(r), service.CheckoutInput{
		Customer:        req.Customer,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		PaymentMethod:   req.PaymentMethod,
		CustomerNote:    req.CustomerNote,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, order)
}
