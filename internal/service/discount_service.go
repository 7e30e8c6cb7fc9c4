package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/port"
)

// ValidationContext is what the validator knows about the cart asking for
// the coupon.
type ValidationContext struct {
	UserID      uuid.NullUUID
	CartTotal   decimal.Decimal
	ProductIDs  []uuid.UUID
	CategoryIDs []uuid.UUID
}

// DiscountService decides whether a coupon code is usable against a cart
// context. Callers only ever receive the read-only projection, never the
// discount entity itself.
type DiscountService struct {
	repo port.DiscountRepository
	now  func() time.Time
}

func NewDiscountService(repo port.DiscountRepository) *DiscountService {
	return &DiscountService{repo: repo, now: time.Now}
}

// Validate runs the eligibility checks in order and stops at the first
// failure. Every rejection is a CouponError carrying the shopper-facing
// reason; the reason never distinguishes more than it has to.
func (s *DiscountService) Validate(ctx context.Context, code string, vc ValidationContext) (domain.CouponProjection, error) {
	discount, err := s.repo.FindByCode(ctx, code)
	if errors.Is(err, domain.ErrDiscountNotFound) {
		return domain.CouponProjection{}, &domain.CouponError{Reason: "Invalid coupon code"}
	}
	if err != nil {
		return domain.CouponProjection{}, fmt.Errorf("repo.FindByCode: %w", err)
	}

	if !discount.IsActive {
		return domain.CouponProjection{}, &domain.CouponError{Reason: "This coupon is inactive"}
	}

	now := s.now()
	if now.Before(discount.StartDate) {
		return domain.CouponProjection{}, &domain.CouponError{Reason: "This coupon is not yet active"}
	}
	if now.After(discount.EndDate) {
		return domain.CouponProjection{}, &domain.CouponError{Reason: "This coupon has expired"}
	}

	if discount.UsageLimit > 0 && discount.UsageCount >= discount.UsageLimit {
		return domain.CouponProjection{}, &domain.CouponError{Reason: "This coupon has reached its usage limit"}
	}

	if discount.MinimumPurchaseAmount.IsPositive() && vc.CartTotal.LessThan(discount.MinimumPurchaseAmount) {
		return domain.CouponProjection{}, &domain.CouponError{
			Reason: fmt.Sprintf("Minimum purchase of %s required", discount.MinimumPurchaseAmount),
		}
	}

	if !discount.IsPublic {
		// An empty target list leaves a non-public coupon open to any
		// identified user; this mirrors the long-standing storefront
		// behavior and is left as is.
		if !vc.UserID.Valid {
			if len(discount.TargetedUserIDs) > 0 {
				return domain.CouponProjection{}, &domain.CouponError{Reason: "This coupon is not available for your account"}
			}
		} else if len(discount.TargetedUserIDs) > 0 && !containsUUID(discount.TargetedUserIDs, vc.UserID.UUID) {
			return domain.CouponProjection{}, &domain.CouponError{Reason: "This coupon is not available for your account"}
		}
	}

	if discount.ApplicationType == domain.ApplicationTypeSpecificProducts {
		if !intersects(vc.ProductIDs, discount.ApplicableProducts) {
			return domain.CouponProjection{}, &domain.CouponError{Reason: "This coupon is not applicable to your cart items"}
		}
	}

	if discount.ApplicationType == domain.ApplicationTypeSpecificCategories {
		if !intersects(vc.CategoryIDs, discount.ApplicableCategories) {
			return domain.CouponProjection{}, &domain.CouponError{Reason: "This coupon is not applicable to your cart items"}
		}
	}

	return discount.Projection(), nil
}

func containsUUID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func intersects(a, b []uuid.UUID) bool {
	for _, x := range a {
		if containsUUID(b, x) {
			return true
		}
	}
	return false
}
