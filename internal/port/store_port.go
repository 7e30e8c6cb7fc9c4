package port

import "context"

// TxPorts bundles the repositories bound to one database transaction.
type TxPorts struct {
	Carts     CartRepository
	Products  ProductRepository
	Discounts DiscountRepository
	Orders    OrderRepository
}

// TxStore hands out pool-level repositories and runs a function with all of
// them sharing a single transaction. The checkout orchestrator uses InTx to
// make order creation, stock decrements, coupon usage bumps and cart
// conversion all-or-nothing.
type TxStore interface {
	Carts() CartRepository
	Products() ProductRepository
	Discounts() DiscountRepository
	Orders() OrderRepository
	InTx(ctx context.Context, fn func(ports TxPorts) error) error
}
