package cache

import (
	"context"
	"errors"

	"github.com/shopstack/commerce-core/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, owner domain.OwnerKey) (domain.Cart, error)
	Set(ctx context.Context, owner domain.OwnerKey, cart domain.Cart) error
	Delete(ctx context.Context, owner domain.OwnerKey) error
}

var ErrCacheMiss = errors.New("cache miss")
