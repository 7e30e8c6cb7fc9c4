package service

import (
	"context"

	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/port"
)

// InventoryService is the only component that touches stock counters. The
// check and the decrement are separate calls for callers that only need the
// advisory check; the decrement itself re-checks atomically in the store, so
// a passing CheckStock is never relied on for correctness.
type InventoryService struct {
	products port.ProductRepository
}

func NewInventoryService(products port.ProductRepository) *InventoryService {
	return &InventoryService{products: products}
}

func (s *InventoryService) CheckStock(ctx context.Context, ref domain.UnitRef, qty int) (bool, error) {
	return s.products.CheckStock(ctx, ref, qty)
}

func (s *InventoryService) DecrementStock(ctx context.Context, ref domain.UnitRef, qty int) error {
	return s.products.DecrementStock(ctx, ref, qty)
}

func (s *InventoryService) IncrementStock(ctx context.Context, ref domain.UnitRef, qty int) error {
	return s.products.IncrementStock(ctx, ref, qty)
}
