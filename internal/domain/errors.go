package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantNotFound  = errors.New("variant not found")
	ErrDiscountNotFound = errors.New("discount not found")
	ErrOrderNotFound    = errors.New("order not found")

	ErrEmptyCart       = errors.New("cart is empty")
	ErrDuplicateCoupon = errors.New("coupon already applied")
	ErrVariantMismatch = errors.New("variant does not belong to this product")
	ErrInvalidQuantity = errors.New("quantity must be positive")
	ErrForbidden       = errors.New("access denied")
)

// OutOfStockError names the unit that failed a stock check so a multi-line
// checkout can report which item aborted it.
type OutOfStockError struct {
	ProductName string
}

func (e *OutOfStockError) Error() string {
	if e.ProductName == "" {
		return "insufficient stock"
	}
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

// ErrOutOfStock is the matching target for errors.Is on any OutOfStockError.
var ErrOutOfStock = errors.New("insufficient stock")

func (e *OutOfStockError) Is(target error) bool {
	return target == ErrOutOfStock
}

// CouponError carries the validator's human-readable rejection reason.
type CouponError struct {
	Reason string
}

func (e *CouponError) Error() string {
	return e.Reason
}

// ErrInvalidCoupon is the matching target for errors.Is on any CouponError.
var ErrInvalidCoupon = errors.New("invalid coupon")

func (e *CouponError) Is(target error) bool {
	return target == ErrInvalidCoupon
}

// InvalidTransitionError reports an illegal order status change.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

var ErrInvalidTransition = errors.New("invalid order status transition")

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
