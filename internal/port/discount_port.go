package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopstack/commerce-core/internal/domain"
)

type DiscountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (domain.Discount, error)
	// FindByCode matches case-insensitively; codes are stored uppercase.
	FindByCode(ctx context.Context, code string) (domain.Discount, error)
	// IncrementUsage bumps usage_count atomically, never read-modify-write.
	IncrementUsage(ctx context.Context, id uuid.UUID) error
}
