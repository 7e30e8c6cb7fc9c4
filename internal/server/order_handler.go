package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/service"
)

type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

func (h *OrderHandler) Routes(r chi.Router) {
	r.Get("/orders", h.listOrders)
	r.Get("/orders/{orderNumber}", h.getOrder)
	r.Put("/orders/{orderNumber}/cancel", h.cancelOrder)
	r.Put("/orders/{orderID}/status", h.updateStatus)
}

// requestUserID returns the authenticated user from the owner key. Session
// identities cannot see order history.
func requestUserID(r *http.Request) (uuid.NullUUID, error) {
	owner := ownerFrom(r)
	if owner.UserID == "" {
		return uuid.NullUUID{}, nil
	}
	id, err := uuid.Parse(owner.UserID)
	if err != nil {
		return uuid.NullUUID{}, err
	}
	return uuid.NullUUID{UUID: id, Valid: true}, nil
}

func (h *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil || !userID.Valid {
		respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "authenticated user required"})
		return
	}

	orders, err := h.orders.List(r.Context(), userID.UUID)
	if err != nil {
		respondError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	order, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderNumber"), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, err := requestUserID(r)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid user id"})
		return
	}

	order, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "orderNumber"), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}

type updateStatusRequest struct {
	Status            domain.OrderStatus       `json:"status"`
	PaymentStatus     domain.PaymentStatus     `json:"payment_status"`
	FulfillmentStatus domain.FulfillmentStatus `json:"fulfillment_status"`
	TrackingNumber    string                   `json:"tracking_number"`
	TrackingURL       string                   `json:"tracking_url"`
	ShippingCarrier   string                   `json:"shipping_carrier"`
	InternalNote      string                   `json:"internal_note"`
}

func (h *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orderID, service.StatusChange{
		Status:            req.Status,
		PaymentStatus:     req.PaymentStatus,
		FulfillmentStatus: req.FulfillmentStatus,
		TrackingNumber:    req.TrackingNumber,
		TrackingURL:       req.TrackingURL,
		ShippingCarrier:   req.ShippingCarrier,
		InternalNote:      req.InternalNote,
	})
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, order)
}
