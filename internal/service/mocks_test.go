package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/shopstack/commerce-core/internal/cache"
	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/port"
)

func usd(amount float64) domain.Money {
	return domain.NewMoney(decimal.NewFromFloat(amount), currency.USD)
}

type memCarts struct {
	mu    sync.Mutex
	carts map[uuid.UUID]domain.Cart
}

func newMemCarts() *memCarts {
	return &memCarts{carts: make(map[uuid.UUID]domain.Cart)}
}

func (m *memCarts) FindByOwner(_ context.Context, owner domain.OwnerKey) (domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, cart := range m.carts {
		if cart.Owner == owner && cart.Status == domain.CartStatusActive {
			return cart, nil
		}
	}
	return domain.Cart{}, domain.ErrCartNotFound
}

func (m *memCarts) Create(_ context.Context, cart domain.Cart) (domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart.ID = uuid.New()
	m.carts[cart.ID] = cart
	return cart, nil
}

func (m *memCarts) Save(_ context.Context, cart domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carts[cart.ID]; !ok {
		return domain.ErrCartNotFound
	}
	m.carts[cart.ID] = cart
	return nil
}

func (m *memCarts) MarkConverted(_ context.Context, cartID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cart, ok := m.carts[cartID]
	if !ok || cart.Status != domain.CartStatusActive {
		return domain.ErrCartNotFound
	}

	cart.Status = domain.CartStatusConverted
	cart.Items = nil
	cart.AppliedCoupons = nil
	m.carts[cartID] = cart
	return nil
}

type memProducts struct {
	mu       sync.Mutex
	products map[uuid.UUID]domain.Product
	variants map[uuid.UUID]domain.Variant
}

func newMemProducts() *memProducts {
	return &memProducts{
		products: make(map[uuid.UUID]domain.Product),
		variants: make(map[uuid.UUID]domain.Variant),
	}
}

func (m *memProducts) add(p domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *memProducts) addVariant(v domain.Variant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.variants[v.ID] = v
}

func (m *memProducts) stock(ref domain.UnitRef) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ref.IsVariant() {
		return m.variants[ref.VariantID.UUID].Stock
	}
	return m.products[ref.ProductID].Stock
}

func (m *memProducts) FindByID(_ context.Context, id uuid.UUID) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (m *memProducts) FindVariantByID(_ context.Context, id uuid.UUID) (domain.Variant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, ok := m.variants[id]
	if !ok {
		return domain.Variant{}, domain.ErrVariantNotFound
	}
	return v, nil
}

func (m *memProducts) CheckStock(_ context.Context, ref domain.UnitRef, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ref.IsVariant() {
		v, ok := m.variants[ref.VariantID.UUID]
		if !ok {
			return false, domain.ErrVariantNotFound
		}
		return v.Stock >= qty, nil
	}

	p, ok := m.products[ref.ProductID]
	if !ok {
		return false, domain.ErrProductNotFound
	}
	return !p.TrackInventory || p.AllowBackorder || p.Stock >= qty, nil
}

func (m *memProducts) DecrementStock(_ context.Context, ref domain.UnitRef, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ref.IsVariant() {
		v, ok := m.variants[ref.VariantID.UUID]
		if !ok {
			return domain.ErrVariantNotFound
		}
		if v.Stock < qty {
			return &domain.OutOfStockError{}
		}
		v.Stock -= qty
		m.variants[ref.VariantID.UUID] = v
		return nil
	}

	p, ok := m.products[ref.ProductID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.TrackInventory && !p.AllowBackorder && p.Stock < qty {
		return &domain.OutOfStockError{}
	}
	if p.TrackInventory {
		p.Stock -= qty
		m.products[ref.ProductID] = p
	}
	return nil
}

func (m *memProducts) IncrementStock(_ context.Context, ref domain.UnitRef, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if ref.IsVariant() {
		v := m.variants[ref.VariantID.UUID]
		v.Stock += qty
		m.variants[ref.VariantID.UUID] = v
		return nil
	}

	p := m.products[ref.ProductID]
	p.Stock += qty
	m.products[ref.ProductID] = p
	return nil
}

type memDiscounts struct {
	mu        sync.Mutex
	discounts map[uuid.UUID]domain.Discount
}

func newMemDiscounts() *memDiscounts {
	return &memDiscounts{discounts: make(map[uuid.UUID]domain.Discount)}
}

func (m *memDiscounts) add(d domain.Discount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discounts[d.ID] = d
}

func (m *memDiscounts) FindByID(_ context.Context, id uuid.UUID) (domain.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.discounts[id]
	if !ok {
		return domain.Discount{}, domain.ErrDiscountNotFound
	}
	return d, nil
}

func (m *memDiscounts) FindByCode(_ context.Context, code string) (domain.Discount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range m.discounts {
		if strings.EqualFold(d.Code, code) && d.Code != "" {
			return d, nil
		}
	}
	return domain.Discount{}, domain.ErrDiscountNotFound
}

func (m *memDiscounts) IncrementUsage(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.discounts[id]
	if !ok {
		return domain.ErrDiscountNotFound
	}
	if d.UsageLimit > 0 && d.UsageCount >= d.UsageLimit {
		return domain.ErrDiscountNotFound
	}
	d.UsageCount++
	m.discounts[id] = d
	return nil
}

// memStore mimics transactional semantics by snapshotting all repositories
// before fn runs and restoring the snapshot when fn fails.
type memStore struct {
	mu        sync.Mutex
	carts     *memCarts
	products  *memProducts
	discounts *memDiscounts
	orders    *memOrders
}

func newMemStore(carts *memCarts, products *memProducts, discounts *memDiscounts, orders *memOrders) *memStore {
	return &memStore{carts: carts, products: products, discounts: discounts, orders: orders}
}

func (s *memStore) Carts() port.CartRepository         { return s.carts }
func (s *memStore) Products() port.ProductRepository   { return s.products }
func (s *memStore) Discounts() port.DiscountRepository { return s.discounts }
func (s *memStore) Orders() port.OrderRepository       { return s.orders }

func (s *memStore) InTx(_ context.Context, fn func(ports port.TxPorts) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cartsSnap := snapshotMap(s.carts.carts, &s.carts.mu)
	productsSnap := snapshotMap(s.products.products, &s.products.mu)
	variantsSnap := snapshotMap(s.products.variants, &s.products.mu)
	discountsSnap := snapshotMap(s.discounts.discounts, &s.discounts.mu)
	ordersSnap := snapshotMap(s.orders.orders, &s.orders.mu)

	err := fn(port.TxPorts{
		Carts:     s.carts,
		Products:  s.products,
		Discounts: s.discounts,
		Orders:    s.orders,
	})
	if err != nil {
		restoreMap(s.carts.carts, cartsSnap, &s.carts.mu)
		restoreMap(s.products.products, productsSnap, &s.products.mu)
		restoreMap(s.products.variants, variantsSnap, &s.products.mu)
		restoreMap(s.discounts.discounts, discountsSnap, &s.discounts.mu)
		restoreMap(s.orders.orders, ordersSnap, &s.orders.mu)
	}
	return err
}

func snapshotMap[K comparable, V any](src map[K]V, mu *sync.Mutex) map[K]V {
	mu.Lock()
	defer mu.Unlock()

	dst := make(map[K]V, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func restoreMap[K comparable, V any](dst, snap map[K]V, mu *sync.Mutex) {
	mu.Lock()
	defer mu.Unlock()

	for k := range dst {
		delete(dst, k)
	}
	for k, v := range snap {
		dst[k] = v
	}
}

type memOrders struct {
	mu     sync.Mutex
	orders map[uuid.UUID]domain.Order
	seqs   map[string]int
}

func newMemOrders() *memOrders {
	return &memOrders{
		orders: make(map[uuid.UUID]domain.Order),
		seqs:   make(map[string]int),
	}
}

func (m *memOrders) Create(_ context.Context, order domain.Order) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order.ID = uuid.New()
	m.orders[order.ID] = order
	return order, nil
}

func (m *memOrders) FindByID(_ context.Context, id uuid.UUID) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, nil
}

func (m *memOrders) FindByOrderNumber(_ context.Context, orderNumber string) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, order := range m.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (m *memOrders) ListByUser(_ context.Context, userID uuid.UUID) ([]domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Order
	for _, order := range m.orders {
		if order.Customer.UserID.Valid && order.Customer.UserID.UUID == userID {
			out = append(out, order)
		}
	}
	return out, nil
}

func (m *memOrders) Update(_ context.Context, id uuid.UUID, update port.OrderStatusUpdate) (domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	order, ok := m.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}

	if update.Status != nil {
		order.Status = *update.Status
	}
	if update.PaymentStatus != nil {
		order.PaymentStatus = *update.PaymentStatus
	}
	if update.FulfillmentStatus != nil {
		order.FulfillmentStatus = *update.FulfillmentStatus
	}
	if update.TrackingNumber != nil {
		order.TrackingNumber = *update.TrackingNumber
	}
	if update.TrackingURL != nil {
		order.TrackingURL = *update.TrackingURL
	}
	if update.ShippingCarrier != nil {
		order.ShippingCarrier = *update.ShippingCarrier
	}
	if update.InternalNote != nil {
		order.InternalNote = *update.InternalNote
	}
	if update.ShippedAt != nil {
		order.ShippedAt = update.ShippedAt
	}
	if update.DeliveredAt != nil {
		order.DeliveredAt = update.DeliveredAt
	}

	m.orders[id] = order
	return order, nil
}

func (m *memOrders) NextOrderNumber(_ context.Context, day time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := day.UTC().Format("20060102")
	m.seqs[key]++
	return fmt.Sprintf("ORD-%s-%04d", key, m.seqs[key]), nil
}

type nopCache struct{}

func (nopCache) Get(context.Context, domain.OwnerKey) (domain.Cart, error) {
	return domain.Cart{}, cache.ErrCacheMiss
}
func (nopCache) Set(context.Context, domain.OwnerKey, domain.Cart) error { return nil }
func (nopCache) Delete(context.Context, domain.OwnerKey) error           { return nil }
