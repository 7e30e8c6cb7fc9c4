package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaymentFailed  OrderStatus = "payment_failed"
	OrderStatusConfirmed      OrderStatus = "confirmed"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
	OrderStatusRefunded       OrderStatus = "refunded"
)

// orderTransitions is the allowed forward edge set of the order lifecycle.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPendingPayment: {OrderStatusConfirmed, OrderStatusPaymentFailed, OrderStatusCancelled},
	OrderStatusPaymentFailed:  {OrderStatusCancelled},
	OrderStatusConfirmed:      {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing:     {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:        {OrderStatusDelivered},
	OrderStatusDelivered:      {},
	OrderStatusCancelled:      {},
	OrderStatusRefunded:       {},
}

// CanTransitionTo reports whether the status may move to next. Repeating the
// current status is allowed so status updates stay idempotent.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled || s == OrderStatusRefunded
}

// Cancellable reports whether an order in this status may still be cancelled.
// Shipped and delivered orders cannot be un-shipped.
func (s OrderStatus) Cancellable() bool {
	return s != OrderStatusShipped && s != OrderStatusDelivered && s != OrderStatusCancelled && s != OrderStatusRefunded
}

func (s OrderStatus) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "pending"
	PaymentStatusAuthorized        PaymentStatus = "authorized"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusFailed            PaymentStatus = "failed"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
)

type FulfillmentStatus string

const (
	FulfillmentStatusUnfulfilled        FulfillmentStatus = "unfulfilled"
	FulfillmentStatusPartiallyFulfilled FulfillmentStatus = "partially_fulfilled"
	FulfillmentStatusFulfilled          FulfillmentStatus = "fulfilled"
)

type PaymentMethod string

const (
	PaymentMethodCreditCard     PaymentMethod = "credit_card"
	PaymentMethodDebitCard      PaymentMethod = "debit_card"
	PaymentMethodPayPal         PaymentMethod = "paypal"
	PaymentMethodBankTransfer   PaymentMethod = "bank_transfer"
	PaymentMethodCashOnDelivery PaymentMethod = "cash_on_delivery"
	PaymentMethodMock           PaymentMethod = "mock"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPayPal,
		PaymentMethodBankTransfer, PaymentMethodCashOnDelivery, PaymentMethodMock:
		return true
	}
	return false
}

type Address struct {
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

type CustomerInfo struct {
	UserID    uuid.NullUUID `json:"user_id"`
	Email     string        `json:"email"`
	FirstName string        `json:"first_name"`
	LastName  string        `json:"last_name"`
	Phone     string        `json:"phone"`
}

type PaymentDetails struct {
	TransactionID  string     `json:"transaction_id,omitempty"`
	PaymentGateway string     `json:"payment_gateway,omitempty"`
	PaidAt         *time.Time `json:"paid_at,omitempty"`
}

// OrderItem is an immutable snapshot of a cart line at checkout time,
// carrying its own tax and discount allocation.
type OrderItem struct {
	ProductID      uuid.UUID           `json:"product_id"`
	VariantID      uuid.NullUUID       `json:"variant_id"`
	ProductName    string              `json:"product_name"`
	ProductSlug    string              `json:"product_slug"`
	ProductImage   string              `json:"product_image"`
	SKU            string              `json:"sku"`
	VariantOptions []VariantOption     `json:"variant_options"`
	Quantity       int                 `json:"quantity"`
	Price          Money               `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	TaxAmount      decimal.Decimal     `json:"tax_amount"`
	Total          decimal.Decimal     `json:"total"`
}

type AppliedDiscount struct {
	DiscountID uuid.UUID       `json:"discount_id"`
	Code       string          `json:"code"`
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
}

// Order is created once from a cart and never re-priced. Only status,
// fulfillment, payment-status, tracking and note fields mutate afterwards.
type Order struct {
	ID               uuid.UUID         `json:"id"`
	OrderNumber      string            `json:"order_number"`
	Customer         CustomerInfo      `json:"customer"`
	ShippingAddress  Address           `json:"shipping_address"`
	BillingAddress   Address           `json:"billing_address"`
	Items            []OrderItem       `json:"items"`
	Totals           Totals            `json:"totals"`
	AppliedDiscounts []AppliedDiscount `json:"applied_discounts"`
	PaymentMethod    PaymentMethod     `json:"payment_method"`
	PaymentStatus    PaymentStatus     `json:"payment_status"`
	PaymentDetails   PaymentDetails    `json:"payment_details"`
	Status           OrderStatus       `json:"status"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status"`
	ShippingMethod   string            `json:"shipping_method"`
	ShippingCarrier  string            `json:"shipping_carrier,omitempty"`
	TrackingNumber   string            `json:"tracking_number,omitempty"`
	TrackingURL      string            `json:"tracking_url,omitempty"`
	CustomerNote     string            `json:"customer_note,omitempty"`
	InternalNote     string            `json:"internal_note,omitempty"`
	ShippedAt        *time.Time        `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time        `json:"delivered_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// OwnedBy reports whether the order belongs to the given user. Orders placed
// anonymously belong to nobody.
func (o *Order) OwnedBy(userID uuid.UUID) bool {
	return o.Customer.UserID.Valid && o.Customer.UserID.UUID == userID
}
