package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/port"
)

// StatusChange is a requested move through the order lifecycle, optionally
// carrying fulfillment details that accompany the transition. PaymentStatus
// and FulfillmentStatus are independent tracks; they change only when set
// here, never as a side effect of the status transition.
type StatusChange struct {
	Status            domain.OrderStatus
	PaymentStatus     domain.PaymentStatus
	FulfillmentStatus domain.FulfillmentStatus
	TrackingNumber    string
	TrackingURL       string
	ShippingCarrier   string
	InternalNote      string
}

// OrderService enforces the order lifecycle. Orders are immutable snapshots
// except for status, fulfillment and tracking fields.
type OrderService struct {
	orders port.OrderRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewOrderService(orders port.OrderRepository, logger *slog.Logger) *OrderService {
	return &OrderService{
		orders: orders,
		logger: logger,
		now:    time.Now,
	}
}

// Get returns the order with the given order number, scoped to its owner.
// Orders belonging to someone else read as not found rather than forbidden,
// so order numbers cannot be probed.
func (s *OrderService) Get(ctx context.Context, orderNumber string, userID uuid.NullUUID) (domain.Order, error) {
	if orderNumber == "" {
		return domain.Order{}, fmt.Errorf("orderNumber is empty")
	}

	order, err := s.orders.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.FindByOrderNumber: %w", err)
	}

	if userID.Valid && !order.OwnedBy(userID.UUID) {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	return order, nil
}

// List returns the user's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("userID is empty")
	}

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("orders.ListByUser: %w", err)
	}

	return orders, nil
}

// UpdateStatus moves the order along the lifecycle. Illegal moves return
// InvalidTransitionError. Shipped and delivered timestamps are stamped on
// first entry into those statuses and never overwritten.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, change StatusChange) (domain.Order, error) {
	if id == uuid.Nil {
		return domain.Order{}, fmt.Errorf("id is empty")
	}

	order, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.FindByID: %w", err)
	}

	if !order.Status.CanTransitionTo(change.Status) {
		return domain.Order{}, &domain.InvalidTransitionError{From: order.Status, To: change.Status}
	}

	update := port.OrderStatusUpdate{Status: &change.Status}

	if change.PaymentStatus != "" {
		update.PaymentStatus = &change.PaymentStatus
	}
	if change.FulfillmentStatus != "" {
		update.FulfillmentStatus = &change.FulfillmentStatus
	}
	if change.TrackingNumber != "" {
		update.TrackingNumber = &change.TrackingNumber
	}
	if change.TrackingURL != "" {
		update.TrackingURL = &change.TrackingURL
	}
	if change.ShippingCarrier != "" {
		update.ShippingCarrier = &change.ShippingCarrier
	}
	if change.InternalNote != "" {
		update.InternalNote = &change.InternalNote
	}

	switch change.Status {
	case domain.OrderStatusShipped:
		if order.ShippedAt == nil {
			now := s.now()
			update.ShippedAt = &now
		}
	case domain.OrderStatusDelivered:
		if order.DeliveredAt == nil {
			now := s.now()
			update.DeliveredAt = &now
		}
	}

	updated, err := s.orders.Update(ctx, id, update)
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.Update: %w", err)
	}

	s.logger.Info("order status updated",
		"order_number", updated.OrderNumber,
		"from", order.Status,
		"to", updated.Status)

	return updated, nil
}

// Cancel cancels the order on the owner's behalf. Shipped, delivered and
// already-terminal orders cannot be cancelled.
func (s *OrderService) Cancel(ctx context.Context, orderNumber string, userID uuid.NullUUID) (domain.Order, error) {
	order, err := s.Get(ctx, orderNumber, userID)
	if err != nil {
		return domain.Order{}, err
	}

	if !order.Status.Cancellable() {
		return domain.Order{}, &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusCancelled}
	}

	cancelled := domain.OrderStatusCancelled
	updated, err := s.orders.Update(ctx, order.ID, port.OrderStatusUpdate{Status: &cancelled})
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.Update: %w", err)
	}

	s.logger.Info("order cancelled",
		"order_number", updated.OrderNumber,
		"previous_status", order.Status)

	return updated, nil
}
