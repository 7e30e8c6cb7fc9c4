// Package pricing computes cart totals. It is a pure function of the cart's
// lines and applied coupons and performs no I/O, so calling it twice with the
// same input always yields the same totals.
package pricing

import (
	"github.com/shopspring/decimal"
	"github.com/shopstack/commerce-core/internal/domain"
)

var (
	// DefaultTaxRate is the flat tax rate applied to the discounted subtotal.
	DefaultTaxRate = decimal.NewFromFloat(0.10)

	// DefaultFreeShippingOver is the subtotal above which shipping is free.
	DefaultFreeShippingOver = decimal.NewFromInt(100)

	// DefaultFlatShipping is the shipping charge below the threshold.
	DefaultFlatShipping = decimal.NewFromInt(10)
)

type Engine struct {
	taxRate          decimal.Decimal
	freeShippingOver decimal.Decimal
	flatShipping     decimal.Decimal
}

func NewEngine() *Engine {
	return &Engine{
		taxRate:          DefaultTaxRate,
		freeShippingOver: DefaultFreeShippingOver,
		flatShipping:     DefaultFlatShipping,
	}
}

func NewEngineWithRates(taxRate, freeShippingOver, flatShipping decimal.Decimal) *Engine {
	return &Engine{
		taxRate:          taxRate,
		freeShippingOver: freeShippingOver,
		flatShipping:     flatShipping,
	}
}

func (e *Engine) TaxRate() decimal.Decimal {
	return e.taxRate
}

// Compute derives the full totals set from scratch. Coupon amounts are taken
// as stored on the cart; they were fixed at apply-time and are not re-derived
// here. Each output is rounded to two decimals only at the end.
func (e *Engine) Compute(items []domain.CartItem, coupons []domain.AppliedCoupon) domain.Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Price.Mul(item.Quantity).Amount)
	}

	discountTotal := decimal.Zero
	for _, coupon := range coupons {
		discountTotal = discountTotal.Add(coupon.DiscountAmount)
	}

	taxTotal := subtotal.Sub(discountTotal).Mul(e.taxRate)

	shippingTotal := e.flatShipping
	if subtotal.GreaterThan(e.freeShippingOver) {
		shippingTotal = decimal.Zero
	}

	total := subtotal.Sub(discountTotal).Add(taxTotal).Add(shippingTotal)

	return domain.Totals{
		Subtotal:      domain.Round2(subtotal),
		DiscountTotal: domain.Round2(discountTotal),
		TaxTotal:      domain.Round2(taxTotal),
		ShippingTotal: domain.Round2(shippingTotal),
		Total:         domain.Round2(total),
	}
}

// ItemTax computes the per-line tax snapshot recorded on order items.
func (e *Engine) ItemTax(price domain.Money, qty int) decimal.Decimal {
	return domain.Round2(price.Mul(qty).Amount.Mul(e.taxRate))
}
