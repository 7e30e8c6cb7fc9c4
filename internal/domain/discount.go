package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage   DiscountType = "percentage"
	DiscountTypeFixedAmount  DiscountType = "fixed_amount"
	DiscountTypeFreeShipping DiscountType = "free_shipping"
)

type ApplicationType string

const (
	ApplicationTypeEntireOrder        ApplicationType = "entire_order"
	ApplicationTypeSpecificProducts   ApplicationType = "specific_products"
	ApplicationTypeSpecificCategories ApplicationType = "specific_categories"
	ApplicationTypeMinimumPurchase    ApplicationType = "minimum_purchase"
)

// Discount is a promotion, optionally addressable by a public coupon code.
// Code is empty for automatic promotions.
type Discount struct {
	ID                    uuid.UUID
	Name                  string
	Description           string
	Code                  string
	Type                  DiscountType
	Value                 decimal.Decimal
	ApplicationType       ApplicationType
	ApplicableProducts    []uuid.UUID
	ApplicableCategories  []uuid.UUID
	MinimumPurchaseAmount decimal.Decimal
	MinimumQuantity       int
	UsageLimit            int // 0 means unlimited
	UsageCount            int
	UsageLimitPerCustomer int
	StartDate             time.Time
	EndDate               time.Time
	IsActive              bool
	IsPublic              bool
	TargetedUserEmails    []string
	TargetedUserIDs       []uuid.UUID
	ExcludeSaleItems      bool
	FirstOrderOnly        bool
	CreatedBy             uuid.NullUUID
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// CouponProjection is the minimal read-only view handed to callers after a
// successful validation. The full entity never leaves the validator.
type CouponProjection struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	Name            string          `json:"name"`
	Type            DiscountType    `json:"type"`
	Value           decimal.Decimal `json:"value"`
	ApplicationType ApplicationType `json:"application_type"`
}

func (d Discount) Projection() CouponProjection {
	return CouponProjection{
		ID:              d.ID,
		Code:            d.Code,
		Name:            d.Name,
		Type:            d.Type,
		Value:           d.Value,
		ApplicationType: d.ApplicationType,
	}
}

// DiscountAmount computes the coupon's money value against the given
// subtotal. Free-shipping coupons carry no direct amount.
func (p CouponProjection) DiscountAmount(subtotal decimal.Decimal) decimal.Decimal {
	switch p.Type {
	case DiscountTypePercentage:
		return subtotal.Mul(p.Value).Div(decimal.NewFromInt(100))
	case DiscountTypeFixedAmount:
		return p.Value
	default:
		return decimal.Zero
	}
}
