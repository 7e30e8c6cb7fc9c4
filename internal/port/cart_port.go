package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopstack/commerce-core/internal/domain"
)

type CartRepository interface {
	// FindByOwner returns the active cart for the owner, or ErrCartNotFound.
	FindByOwner(ctx context.Context, owner domain.OwnerKey) (domain.Cart, error)
	Create(ctx context.Context, cart domain.Cart) (domain.Cart, error)
	// Save replaces the cart's items, coupons, totals and activity fields.
	Save(ctx context.Context, cart domain.Cart) error
	// MarkConverted flips an active cart to converted and drops its lines.
	// Returns ErrCartNotFound when the cart is no longer active.
	MarkConverted(ctx context.Context, cartID uuid.UUID) error
}
