package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopstack/commerce-core/internal/domain"
)

func seedOrder(t *testing.T, orders *memOrders, status domain.OrderStatus, userID uuid.NullUUID) domain.Order {
	t.Helper()

	number, err := orders.NextOrderNumber(t.Context(), time.Now())
	require.NoError(t, err)

	order, err := orders.Create(t.Context(), domain.Order{
		OrderNumber:       number,
		Customer:          domain.CustomerInfo{UserID: userID, Email: "shopper@example.com"},
		Status:            status,
		PaymentStatus:     domain.PaymentStatusPaid,
		FulfillmentStatus: domain.FulfillmentStatusUnfulfilled,
	})
	require.NoError(t, err)
	return order
}

func TestOrderGetScopedToOwner(t *testing.T) {
	orders := newMemOrders()
	svc := NewOrderService(orders, discardLogger())
	userID := uuid.New()

	order := seedOrder(t, orders, domain.OrderStatusConfirmed, uuid.NullUUID{UUID: userID, Valid: true})

	got, err := svc.Get(t.Context(), order.OrderNumber, uuid.NullUUID{UUID: userID, Valid: true})
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	// someone else's order reads as not found, not forbidden
	_, err = svc.Get(t.Context(), order.OrderNumber, uuid.NullUUID{UUID: uuid.New(), Valid: true})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = svc.Get(t.Context(), "ORD-19700101-0001", uuid.NullUUID{UUID: userID, Valid: true})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderList(t *testing.T) {
	orders := newMemOrders()
	svc := NewOrderService(orders, discardLogger())
	userID := uuid.New()

	seedOrder(t, orders, domain.OrderStatusConfirmed, uuid.NullUUID{UUID: userID, Valid: true})
	seedOrder(t, orders, domain.OrderStatusDelivered, uuid.NullUUID{UUID: userID, Valid: true})
	seedOrder(t, orders, domain.OrderStatusConfirmed, uuid.NullUUID{UUID: uuid.New(), Valid: true})

	got, err := svc.List(t.Context(), userID)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = svc.List(t.Context(), uuid.Nil)
	require.Error(t, err)
}

func TestOrderUpdateStatus(t *testing.T) {
	orders := newMemOrders()
	svc := NewOrderService(orders, discardLogger())

	order := seedOrder(t, orders, domain.OrderStatusConfirmed, uuid.NullUUID{})

	updated, err := svc.UpdateStatus(t.Context(), order.ID, StatusChange{Status: domain.OrderStatusProcessing})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, updated.Status)

	updated, err = svc.UpdateStatus(t.Context(), order.ID, StatusChange{
		Status:          domain.OrderStatusShipped,
		TrackingNumber:  "TRK-1",
		ShippingCarrier: "UPS",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)
	assert.Equal(t, "TRK-1", updated.TrackingNumber)
	assert.Equal(t, "UPS", updated.ShippingCarrier)
	require.NotNil(t, updated.ShippedAt)

	// the status move alone does not touch the fulfillment track
	assert.Equal(t, domain.FulfillmentStatusUnfulfilled, updated.FulfillmentStatus)

	shippedAt := *updated.ShippedAt

	// repeating the status is idempotent and keeps the original timestamp
	updated, err = svc.UpdateStatus(t.Context(), order.ID, StatusChange{Status: domain.OrderStatusShipped})
	require.NoError(t, err)
	assert.Equal(t, shippedAt, *updated.ShippedAt)

	updated, err = svc.UpdateStatus(t.Context(), order.ID, StatusChange{Status: domain.OrderStatusDelivered})
	require.NoError(t, err)
	require.NotNil(t, updated.DeliveredAt)
	assert.Equal(t, shippedAt, *updated.ShippedAt)
}

func TestOrderUpdateStatusIndependentTracks(t *testing.T) {
	orders := newMemOrders()
	svc := NewOrderService(orders, discardLogger())

	order := seedOrder(t, orders, domain.OrderStatusConfirmed, uuid.NullUUID{})

	// payment and fulfillment move on the same update, decoupled from status
	updated, err := svc.UpdateStatus(t.Context(), order.ID, StatusChange{
		Status:            domain.OrderStatusProcessing,
		PaymentStatus:     domain.PaymentStatusRefunded,
		FulfillmentStatus: domain.FulfillmentStatusPartiallyFulfilled,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusProcessing, updated.Status)
	assert.Equal(t, domain.PaymentStatusRefunded, updated.PaymentStatus)
	assert.Equal(t, domain.FulfillmentStatusPartiallyFulfilled, updated.FulfillmentStatus)

	// omitted tracks keep their value across further transitions
	updated, err = svc.UpdateStatus(t.Context(), order.ID, StatusChange{Status: domain.OrderStatusShipped})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusRefunded, updated.PaymentStatus)
	assert.Equal(t, domain.FulfillmentStatusPartiallyFulfilled, updated.FulfillmentStatus)

	updated, err = svc.UpdateStatus(t.Context(), order.ID, StatusChange{
		Status:            domain.OrderStatusShipped,
		FulfillmentStatus: domain.FulfillmentStatusFulfilled,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.FulfillmentStatusFulfilled, updated.FulfillmentStatus)
	assert.Equal(t, domain.PaymentStatusRefunded, updated.PaymentStatus)
}

func TestOrderUpdateStatusRejectsIllegalMoves(t *testing.T) {
	orders := newMemOrders()
	svc := NewOrderService(orders, discardLogger())

	order := seedOrder(t, orders, domain.OrderStatusDelivered, uuid.NullUUID{})

	_, err := svc.UpdateStatus(t.Context(), order.ID, StatusChange{Status: domain.OrderStatusShipped})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.EqualError(t, err, "cannot transition order from delivered to shipped")

	_, err = svc.UpdateStatus(t.Context(), uuid.New(), StatusChange{Status: domain.OrderStatusShipped})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderCancel(t *testing.T) {
	orders := newMemOrders()
	svc := NewOrderService(orders, discardLogger())
	userID := uuid.NullUUID{UUID: uuid.New(), Valid: true}

	order := seedOrder(t, orders, domain.OrderStatusConfirmed, userID)

	cancelled, err := svc.Cancel(t.Context(), order.OrderNumber, userID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, cancelled.Status)
}

func TestOrderCancelRejectedAfterShipping(t *testing.T) {
	orders := newMemOrders()
	svc := NewOrderService(orders, discardLogger())
	userID := uuid.NullUUID{UUID: uuid.New(), Valid: true}

	for _, status := range []domain.OrderStatus{
		domain.OrderStatusShipped,
		domain.OrderStatusDelivered,
		domain.OrderStatusCancelled,
		domain.OrderStatusRefunded,
	} {
		order := seedOrder(t, orders, status, userID)

		_, err := svc.Cancel(t.Context(), order.OrderNumber, userID)
		require.ErrorIs(t, err, domain.ErrInvalidTransition, "status %s", status)
	}
}

func TestOrderCancelByNonOwner(t *testing.T) {
	orders := newMemOrders()
	svc := NewOrderService(orders, discardLogger())

	order := seedOrder(t, orders, domain.OrderStatusConfirmed, uuid.NullUUID{UUID: uuid.New(), Valid: true})

	_, err := svc.Cancel(t.Context(), order.OrderNumber, uuid.NullUUID{UUID: uuid.New(), Valid: true})
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}
