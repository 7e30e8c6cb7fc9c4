package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopstack/commerce-core/internal/domain"
)

type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error)
	FindVariantByID(ctx context.Context, id uuid.UUID) (domain.Variant, error)

	// CheckStock reports whether the unit can satisfy qty: stock is
	// sufficient, the product is not inventory-tracked, or backorder is
	// allowed (product-level only; variants are always strict).
	CheckStock(ctx context.Context, ref domain.UnitRef, qty int) (bool, error)

	// DecrementStock conditionally subtracts qty in a single atomic
	// statement. It returns ErrOutOfStock when the condition fails, so a
	// concurrent racer can never drive stock negative.
	DecrementStock(ctx context.Context, ref domain.UnitRef, qty int) error

	IncrementStock(ctx context.Context, ref domain.UnitRef, qty int) error
}
