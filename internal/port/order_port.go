package port

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopstack/commerce-core/internal/domain"
)

// OrderStatusUpdate carries the mutable post-creation fields. Nil fields are
// left untouched.
type OrderStatusUpdate struct {
	Status            *domain.OrderStatus
	PaymentStatus     *domain.PaymentStatus
	FulfillmentStatus *domain.FulfillmentStatus
	TrackingNumber    *string
	TrackingURL       *string
	ShippingCarrier   *string
	InternalNote      *string
	ShippedAt         *time.Time
	DeliveredAt       *time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (domain.Order, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (domain.Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
	Update(ctx context.Context, id uuid.UUID, update OrderStatusUpdate) (domain.Order, error)
	// NextOrderNumber returns ORD-YYYYMMDD-NNNN for the given day from an
	// atomic per-day sequence, collision-free under concurrent checkouts.
	NextOrderNumber(ctx context.Context, day time.Time) (string, error)
}
