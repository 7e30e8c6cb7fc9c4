package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopstack/commerce-core/internal/cache"
	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/port"
	"github.com/shopstack/commerce-core/internal/pricing"
	"golang.org/x/sync/singleflight"
)

// cartTTL is how long an untouched cart lives before the reaper may claim it.
const cartTTL = 30 * 24 * time.Hour

// CartService owns every cart mutation. Totals are recomputed from scratch
// after each one; nothing else ever writes them.
type CartService struct {
	carts     port.CartRepository
	products  port.ProductRepository
	discounts *DiscountService
	engine    *pricing.Engine
	cache     cache.CartCache
	sfg       singleflight.Group // prevents cache stampede on cart reads
	logger    *slog.Logger
	now       func() time.Time
}

func NewCartService(
	carts port.CartRepository,
	products port.ProductRepository,
	discounts *DiscountService,
	engine *pricing.Engine,
	cartCache cache.CartCache,
	logger *slog.Logger,
) *CartService {
	return &CartService{
		carts:     carts,
		products:  products,
		discounts: discounts,
		engine:    engine,
		cache:     cartCache,
		logger:    logger,
		now:       time.Now,
	}
}

// GetCart returns the owner's active cart, creating one lazily on first
// interaction.
func (s *CartService) GetCart(ctx context.Context, owner domain.OwnerKey) (domain.Cart, error) {
	if owner.IsZero() {
		return domain.Cart{}, fmt.Errorf("owner key is empty")
	}

	v, err, _ := s.sfg.Do(owner.String(), func() (any, error) {
		cart, err := s.cache.Get(ctx, owner)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.Warn("cart cache get failed", "owner", owner.String(), "error", err)
		}

		cart, err = s.carts.FindByOwner(ctx, owner)
		if errors.Is(err, domain.ErrCartNotFound) {
			return s.createCart(ctx, owner)
		}
		if err != nil {
			return domain.Cart{}, fmt.Errorf("carts.FindByOwner: %w", err)
		}

		go s.fillCache(owner, cart)

		return cart, nil
	})
	if err != nil {
		return domain.Cart{}, err
	}

	return v.(domain.Cart), nil
}

func (s *CartService) createCart(ctx context.Context, owner domain.OwnerKey) (domain.Cart, error) {
	cart, err := s.carts.Create(ctx, domain.Cart{
		Owner:     owner,
		Status:    domain.CartStatusActive,
		ExpiresAt: s.now().Add(cartTTL),
	})
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.Create: %w", err)
	}
	return cart, nil
}

// AddItem merges into an existing line for the same (product, variant) pair
// or appends a new one with a fresh price snapshot.
func (s *CartService) AddItem(ctx context.Context, owner domain.OwnerKey, productID uuid.UUID, variantID uuid.NullUUID, qty int) (domain.Cart, error) {
	if qty <= 0 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("products.FindByID: %w", err)
	}

	price := product.BasePrice
	var options []domain.VariantOption
	unit := domain.ProductRef(productID)

	if variantID.Valid {
		variant, err := s.products.FindVariantByID(ctx, variantID.UUID)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("products.FindVariantByID: %w", err)
		}
		if variant.ProductID != productID {
			return domain.Cart{}, domain.ErrVariantMismatch
		}
		price = variant.Price
		options = variant.Options
		unit = domain.VariantRef(productID, variant.ID)
	}

	ok, err := s.products.CheckStock(ctx, unit, qty)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("products.CheckStock: %w", err)
	}
	if !ok {
		return domain.Cart{}, &domain.OutOfStockError{ProductName: product.Name}
	}

	if idx := cart.FindLine(productID, variantID); idx >= 0 {
		cart.Items[idx].Quantity += qty
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:             uuid.New(),
			ProductID:      productID,
			VariantID:      variantID,
			ProductName:    product.Name,
			ProductSlug:    product.Slug,
			ProductImage:   product.ImageURL,
			VariantOptions: options,
			Price:          price,
			CompareAtPrice: product.CompareAtPrice,
			Quantity:       qty,
			AddedAt:        s.now(),
		})
	}

	return s.saveCart(ctx, cart)
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, owner domain.OwnerKey, itemID uuid.UUID, qty int) (domain.Cart, error) {
	if qty <= 0 {
		return domain.Cart{}, domain.ErrInvalidQuantity
	}

	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := cart.FindItem(itemID)
	if idx < 0 {
		return domain.Cart{}, domain.ErrCartItemNotFound
	}
	cart.Items[idx].Quantity = qty

	return s.saveCart(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, owner domain.OwnerKey, itemID uuid.UUID) (domain.Cart, error) {
	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}

	idx := cart.FindItem(itemID)
	if idx < 0 {
		return domain.Cart{}, domain.ErrCartItemNotFound
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	return s.saveCart(ctx, cart)
}

// ClearCart drops every line and every applied coupon.
func (s *CartService) ClearCart(ctx context.Context, owner domain.OwnerKey) (domain.Cart, error) {
	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}

	cart.Items = nil
	cart.AppliedCoupons = nil

	return s.saveCart(ctx, cart)
}

// ApplyCoupon validates the code against the cart's current subtotal and
// membership, then fixes the discount amount at apply-time. The amount is
// not re-derived when the cart changes later.
func (s *CartService) ApplyCoupon(ctx context.Context, owner domain.OwnerKey, code string) (domain.Cart, error) {
	if code == "" {
		return domain.Cart{}, &domain.CouponError{Reason: "Invalid coupon code"}
	}

	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}

	categoryIDs, err := s.categoryMembership(ctx, cart)
	if err != nil {
		return domain.Cart{}, err
	}

	projection, err := s.discounts.Validate(ctx, code, ValidationContext{
		UserID:      parseUserID(owner),
		CartTotal:   cart.Totals.Subtotal,
		ProductIDs:  cart.ProductIDs(),
		CategoryIDs: categoryIDs,
	})
	if err != nil {
		return domain.Cart{}, err
	}

	if cart.HasCoupon(projection.Code) {
		return domain.Cart{}, domain.ErrDuplicateCoupon
	}

	cart.AppliedCoupons = append(cart.AppliedCoupons, domain.AppliedCoupon{
		DiscountID:     projection.ID,
		Code:           projection.Code,
		DiscountAmount: domain.Round2(projection.DiscountAmount(cart.Totals.Subtotal)),
	})

	return s.saveCart(ctx, cart)
}

func (s *CartService) RemoveCoupon(ctx context.Context, owner domain.OwnerKey, code string) (domain.Cart, error) {
	cart, err := s.GetCart(ctx, owner)
	if err != nil {
		return domain.Cart{}, err
	}

	kept := cart.AppliedCoupons[:0]
	for _, coupon := range cart.AppliedCoupons {
		if coupon.Code != code {
			kept = append(kept, coupon)
		}
	}
	cart.AppliedCoupons = kept

	return s.saveCart(ctx, cart)
}

// DropCache evicts the owner's cached cart, e.g. after a checkout converted
// the cart outside this service's write path.
func (s *CartService) DropCache(owner domain.OwnerKey) {
	s.invalidateCache(owner)
}

// saveCart recomputes totals, persists the cart and invalidates the cache.
// Every mutation funnels through here so the totals invariant holds.
func (s *CartService) saveCart(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	cart.Totals = s.engine.Compute(cart.Items, cart.AppliedCoupons)
	cart.LastActivityAt = s.now()

	if err := s.carts.Save(ctx, cart); err != nil {
		return domain.Cart{}, fmt.Errorf("carts.Save: %w", err)
	}

	s.invalidateCache(cart.Owner)

	return cart, nil
}

func (s *CartService) categoryMembership(ctx context.Context, cart domain.Cart) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID

	for _, productID := range cart.ProductIDs() {
		product, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("products.FindByID: %w", err)
		}
		for _, categoryID := range product.CategoryIDs {
			if _, ok := seen[categoryID]; ok {
				continue
			}
			seen[categoryID] = struct{}{}
			ids = append(ids, categoryID)
		}
	}

	return ids, nil
}

func (s *CartService) fillCache(owner domain.OwnerKey, cart domain.Cart) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.cache.Set(ctx, owner, cart); err != nil {
		s.logger.Warn("cart cache set failed", "owner", owner.String(), "error", err)
	}
}

func (s *CartService) invalidateCache(owner domain.OwnerKey) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := s.cache.Delete(ctx, owner); err != nil {
		s.logger.Warn("cart cache invalidate failed", "owner", owner.String(), "error", err)
	}
}

func parseUserID(owner domain.OwnerKey) uuid.NullUUID {
	if owner.UserID == "" {
		return uuid.NullUUID{}
	}
	id, err := uuid.Parse(owner.UserID)
	if err != nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: id, Valid: true}
}
