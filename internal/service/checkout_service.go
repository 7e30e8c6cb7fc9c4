package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/metrics"
	"github.com/shopstack/commerce-core/internal/port"
	"github.com/shopstack/commerce-core/internal/pricing"
)

var ErrInvalidPaymentMethod = errors.New("unsupported payment method")

// CheckoutInput is everything the shopper supplies at checkout; the cart
// itself is resolved from the owner key.
type CheckoutInput struct {
	Customer        domain.CustomerInfo
	ShippingAddress domain.Address
	BillingAddress  domain.Address
	PaymentMethod   domain.PaymentMethod
	CustomerNote    string
}

// CheckoutService converts a cart into an immutable order. Order creation,
// stock decrements, coupon usage bumps and cart conversion share one
// database transaction, so a checkout either happens entirely or not at all.
type CheckoutService struct {
	store   port.TxStore
	carts   *CartService
	gateway port.PaymentGateway
	engine  *pricing.Engine
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewCheckoutService(
	store port.TxStore,
	carts *CartService,
	gateway port.PaymentGateway,
	engine *pricing.Engine,
	m *metrics.Metrics,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		store:   store,
		carts:   carts,
		gateway: gateway,
		engine:  engine,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

func (s *CheckoutService) Checkout(ctx context.Context, owner domain.OwnerKey, input CheckoutInput) (domain.Order, error) {
	order, err := s.checkout(ctx, owner, input)
	switch {
	case err == nil:
		s.metrics.Checkouts.WithLabelValues("success").Inc()
	case errors.Is(err, domain.ErrOutOfStock):
		s.metrics.Checkouts.WithLabelValues("out_of_stock").Inc()
		s.metrics.StockConflicts.Inc()
	default:
		s.metrics.Checkouts.WithLabelValues("error").Inc()
	}
	return order, err
}

func (s *CheckoutService) checkout(ctx context.Context, owner domain.OwnerKey, input CheckoutInput) (domain.Order, error) {
	if !input.PaymentMethod.Valid() {
		return domain.Order{}, ErrInvalidPaymentMethod
	}

	cart, err := s.carts.GetCart(ctx, owner)
	if err != nil {
		return domain.Order{}, err
	}
	if cart.IsEmpty() {
		return domain.Order{}, domain.ErrEmptyCart
	}

	// Advisory pass before payment is taken. The transactional decrements
	// below are the authoritative check; this one just fails fast with the
	// offending item's name and no side effects.
	if err := s.verifyStock(ctx, cart); err != nil {
		return domain.Order{}, err
	}

	orderNumber, err := s.store.Orders().NextOrderNumber(ctx, s.now())
	if err != nil {
		return domain.Order{}, fmt.Errorf("orders.NextOrderNumber: %w", err)
	}

	status := domain.OrderStatusPendingPayment
	paymentStatus := domain.PaymentStatusPending
	var paymentDetails domain.PaymentDetails

	if input.PaymentMethod == domain.PaymentMethodMock {
		result, err := s.gateway.Charge(ctx, orderNumber, cart.Totals.Total)
		if err != nil {
			return domain.Order{}, fmt.Errorf("gateway.Charge: %w", err)
		}
		paymentStatus = result.Status
		paymentDetails = result.Details
		if result.Status == domain.PaymentStatusPaid {
			status = domain.OrderStatusConfirmed
		} else {
			status = domain.OrderStatusPaymentFailed
		}
	}

	customer := input.Customer
	customer.UserID = parseUserID(owner)

	draft := domain.Order{
		OrderNumber:       orderNumber,
		Customer:          customer,
		ShippingAddress:   input.ShippingAddress,
		BillingAddress:    input.BillingAddress,
		Items:             s.snapshotItems(cart),
		Totals:            cart.Totals,
		AppliedDiscounts:  snapshotDiscounts(cart),
		PaymentMethod:     input.PaymentMethod,
		PaymentStatus:     paymentStatus,
		PaymentDetails:    paymentDetails,
		Status:            status,
		FulfillmentStatus: domain.FulfillmentStatusUnfulfilled,
		ShippingMethod:    "Standard",
		CustomerNote:      input.CustomerNote,
	}

	var order domain.Order
	txErr := s.store.InTx(ctx, func(ports port.TxPorts) error {
		guard := NewInventoryService(ports.Products)

		for _, item := range cart.Items {
			if err := guard.DecrementStock(ctx, itemUnitRef(item), item.Quantity); err != nil {
				if errors.Is(err, domain.ErrOutOfStock) {
					return &domain.OutOfStockError{ProductName: item.ProductName}
				}
				return fmt.Errorf("guard.DecrementStock: %w", err)
			}
		}

		var err error
		order, err = ports.Orders.Create(ctx, draft)
		if err != nil {
			return fmt.Errorf("orders.Create: %w", err)
		}

		for _, coupon := range cart.AppliedCoupons {
			if err := ports.Discounts.IncrementUsage(ctx, coupon.DiscountID); err != nil {
				return fmt.Errorf("discounts.IncrementUsage: %w", err)
			}
		}

		if err := ports.Carts.MarkConverted(ctx, cart.ID); err != nil {
			return fmt.Errorf("carts.MarkConverted: %w", err)
		}

		return nil
	})
	if txErr != nil {
		// Payment was already settled; a rolled-back checkout after that
		// point needs out-of-band reconciliation, never silence.
		if paymentStatus == domain.PaymentStatusPaid {
			s.logger.Error("checkout rolled back after payment settled, reconciliation required",
				"order_number", orderNumber,
				"transaction_id", paymentDetails.TransactionID,
				"error", txErr)
		}
		return domain.Order{}, txErr
	}

	s.carts.DropCache(owner)

	s.logger.Info("checkout completed",
		"order_number", order.OrderNumber,
		"owner", owner.String(),
		"total", order.Totals.Total,
		"status", order.Status)

	return order, nil
}

func (s *CheckoutService) verifyStock(ctx context.Context, cart domain.Cart) error {
	guard := NewInventoryService(s.store.Products())

	for _, item := range cart.Items {
		ok, err := guard.CheckStock(ctx, itemUnitRef(item), item.Quantity)
		if err != nil {
			return fmt.Errorf("guard.CheckStock: %w", err)
		}
		if !ok {
			return &domain.OutOfStockError{ProductName: item.ProductName}
		}
	}
	return nil
}

// snapshotItems freezes each cart line into an order item with its own tax
// and total. The snapshots never change after the order is created.
func (s *CheckoutService) snapshotItems(cart domain.Cart) []domain.OrderItem {
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		sku := "PROD-" + item.ProductID.String()
		if item.VariantID.Valid {
			sku = "VAR-" + item.VariantID.UUID.String()
		}

		items = append(items, domain.OrderItem{
			ProductID:      item.ProductID,
			VariantID:      item.VariantID,
			ProductName:    item.ProductName,
			ProductSlug:    item.ProductSlug,
			ProductImage:   item.ProductImage,
			SKU:            sku,
			VariantOptions: item.VariantOptions,
			Quantity:       item.Quantity,
			Price:          item.Price,
			CompareAtPrice: item.CompareAtPrice,
			DiscountAmount: decimal.Zero,
			TaxAmount:      s.engine.ItemTax(item.Price, item.Quantity),
			Total:          domain.Round2(item.Price.Mul(item.Quantity).Amount),
		})
	}
	return items
}

func snapshotDiscounts(cart domain.Cart) []domain.AppliedDiscount {
	discounts := make([]domain.AppliedDiscount, 0, len(cart.AppliedCoupons))
	for _, coupon := range cart.AppliedCoupons {
		discounts = append(discounts, domain.AppliedDiscount{
			DiscountID: coupon.DiscountID,
			Code:       coupon.Code,
			Name:       coupon.Code,
			Type:       "coupon",
			Amount:     coupon.DiscountAmount,
		})
	}
	return discounts
}

func itemUnitRef(item domain.CartItem) domain.UnitRef {
	if item.VariantID.Valid {
		return domain.VariantRef(item.ProductID, item.VariantID.UUID)
	}
	return domain.ProductRef(item.ProductID)
}
