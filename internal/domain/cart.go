package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusAbandoned CartStatus = "abandoned"
	CartStatusConverted CartStatus = "converted"
	CartStatusMerged    CartStatus = "merged"
)

// OwnerKey identifies the shopper owning a cart: an authenticated user ID or
// an anonymous session ID. When both are present the user ID wins.
type OwnerKey struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

func (k OwnerKey) IsZero() bool {
	return k.UserID == "" && k.SessionID == ""
}

// String renders a stable cache/lock key for the owner.
func (k OwnerKey) String() string {
	if k.UserID != "" {
		return "user:" + k.UserID
	}
	return "session:" + k.SessionID
}

type VariantOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// CartItem captures a price snapshot taken at add-time. The snapshot is not
// refreshed when the catalog price later changes.
type CartItem struct {
	ID             uuid.UUID           `json:"id"`
	ProductID      uuid.UUID           `json:"product_id"`
	VariantID      uuid.NullUUID       `json:"variant_id"`
	ProductName    string              `json:"product_name"`
	ProductSlug    string              `json:"product_slug"`
	ProductImage   string              `json:"product_image"`
	VariantOptions []VariantOption     `json:"variant_options"`
	Price          Money               `json:"price"`
	CompareAtPrice decimal.NullDecimal `json:"compare_at_price"`
	Quantity       int                 `json:"quantity"`
	AddedAt        time.Time           `json:"added_at"`
}

// SameLine reports whether the item and the given references address the same
// cart line: same product and same variant (or both variant-less).
func (i CartItem) SameLine(productID uuid.UUID, variantID uuid.NullUUID) bool {
	if i.ProductID != productID {
		return false
	}
	if i.VariantID.Valid != variantID.Valid {
		return false
	}
	return !i.VariantID.Valid || i.VariantID.UUID == variantID.UUID
}

// AppliedCoupon records the discount amount computed once at apply-time.
// It is not re-derived when cart contents change afterwards.
type AppliedCoupon struct {
	DiscountID     uuid.UUID       `json:"discount_id"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

type Totals struct {
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxTotal      decimal.Decimal `json:"tax_total"`
	ShippingTotal decimal.Decimal `json:"shipping_total"`
	Total         decimal.Decimal `json:"total"`
}

type Cart struct {
	ID             uuid.UUID       `json:"id"`
	Owner          OwnerKey        `json:"owner"`
	Items          []CartItem      `json:"items"`
	AppliedCoupons []AppliedCoupon `json:"applied_coupons"`
	Totals         Totals          `json:"totals"`
	Status         CartStatus      `json:"status"`
	LastActivityAt time.Time       `json:"last_activity_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// FindLine returns the index of the line matching (productID, variantID),
// or -1 when the cart has no such line.
func (c *Cart) FindLine(productID uuid.UUID, variantID uuid.NullUUID) int {
	for i, item := range c.Items {
		if item.SameLine(productID, variantID) {
			return i
		}
	}
	return -1
}

// FindItem returns the index of the line with the given item ID, or -1.
func (c *Cart) FindItem(itemID uuid.UUID) int {
	for i, item := range c.Items {
		if item.ID == itemID {
			return i
		}
	}
	return -1
}

func (c *Cart) HasCoupon(code string) bool {
	for _, coupon := range c.AppliedCoupons {
		if coupon.Code == code {
			return true
		}
	}
	return false
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ProductIDs lists the distinct product IDs in the cart, used for
// product-scoped coupon eligibility.
func (c *Cart) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(c.Items))
	var ids []uuid.UUID
	for _, item := range c.Items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
