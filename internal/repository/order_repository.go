package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/port"
)

type orderRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{q: pool, pool: pool}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{q: tx, pool: nil}
}

const selectOrder = `
	SELECT id, order_number, customer, shipping_address, billing_address, items,
	       subtotal, discount_total, tax_total, shipping_total, total,
	       applied_discounts, payment_method, payment_status, payment_details,
	       status, fulfillment_status, shipping_method, shipping_carrier,
	       tracking_number, tracking_url, customer_note, internal_note,
	       shipped_at, delivered_at, created_at, updated_at
	FROM orders`

func (r *orderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	customer, err := json.Marshal(order.Customer)
	if err != nil {
		return domain.Order{}, fmt.Errorf("json.Marshal customer: %w", err)
	}
	shipping, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return domain.Order{}, fmt.Errorf("json.Marshal shipping address: %w", err)
	}
	billing, err := json.Marshal(order.BillingAddress)
	if err != nil {
		return domain.Order{}, fmt.Errorf("json.Marshal billing address: %w", err)
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return domain.Order{}, fmt.Errorf("json.Marshal items: %w", err)
	}
	discounts, err := json.Marshal(order.AppliedDiscounts)
	if err != nil {
		return domain.Order{}, fmt.Errorf("json.Marshal applied discounts: %w", err)
	}
	payment, err := json.Marshal(order.PaymentDetails)
	if err != nil {
		return domain.Order{}, fmt.Errorf("json.Marshal payment details: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO orders (order_number, user_id, customer, shipping_address,
		                    billing_address, items, subtotal, discount_total,
		                    tax_total, shipping_total, total, applied_discounts,
		                    payment_method, payment_status, payment_details,
		                    status, fulfillment_status, shipping_method, customer_note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING `+selectColumns(),
		order.OrderNumber, order.Customer.UserID, customer, shipping, billing, items,
		order.Totals.Subtotal, order.Totals.DiscountTotal, order.Totals.TaxTotal,
		order.Totals.ShippingTotal, order.Totals.Total, discounts,
		order.PaymentMethod, order.PaymentStatus, payment,
		order.Status, order.FulfillmentStatus, order.ShippingMethod, order.CustomerNote)

	created, err := scanOrder(row)
	if err != nil {
		return domain.Order{}, fmt.Errorf("scanOrder: %w", err)
	}

	return created, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Order, error) {
	return scanOrder(r.q.QueryRow(ctx, selectOrder+` WHERE id = $1`, id))
}

func (r *orderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	return scanOrder(r.q.QueryRow(ctx, selectOrder+` WHERE order_number = $1`, orderNumber))
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	rows, err := r.q.Query(ctx, selectOrder+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrderRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanOrderRow: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, id uuid.UUID, update port.OrderStatusUpdate) (domain.Order, error) {
	row := r.q.QueryRow(ctx, `
		UPDATE orders
		SET status             = COALESCE($2, status),
		    payment_status     = COALESCE($3, payment_status),
		    fulfillment_status = COALESCE($4, fulfillment_status),
		    tracking_number    = COALESCE($5, tracking_number),
		    tracking_url       = COALESCE($6, tracking_url),
		    shipping_carrier   = COALESCE($7, shipping_carrier),
		    internal_note      = COALESCE($8, internal_note),
		    shipped_at         = COALESCE($9, shipped_at),
		    delivered_at       = COALESCE($10, delivered_at),
		    updated_at         = now()
		WHERE id = $1
		RETURNING `+selectColumns(),
		id, update.Status, update.PaymentStatus, update.FulfillmentStatus,
		update.TrackingNumber, update.TrackingURL, update.ShippingCarrier,
		update.InternalNote, update.ShippedAt, update.DeliveredAt)

	return scanOrder(row)
}

// NextOrderNumber mints ORD-YYYYMMDD-NNNN from a per-day upsert counter. The
// RETURNING clause makes concurrent callers each see a distinct sequence.
func (r *orderRepository) NextOrderNumber(ctx context.Context, day time.Time) (string, error) {
	var seq int
	err := r.q.QueryRow(ctx, `
		INSERT INTO order_sequences (day, seq)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE SET seq = order_sequences.seq + 1
		RETURNING seq`, day.UTC().Truncate(24*time.Hour)).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("bump order sequence: %w", err)
	}

	return fmt.Sprintf("ORD-%s-%04d", day.UTC().Format("20060102"), seq), nil
}

func selectColumns() string {
	return `id, order_number, customer, shipping_address, billing_address, items,
	        subtotal, discount_total, tax_total, shipping_total, total,
	        applied_discounts, payment_method, payment_status, payment_details,
	        status, fulfillment_status, shipping_method, shipping_carrier,
	        tracking_number, tracking_url, customer_note, internal_note,
	        shipped_at, delivered_at, created_at, updated_at`
}

type orderScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	order, err := scanOrderRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return order, err
}

func scanOrderRow(row orderScanner) (domain.Order, error) {
	var (
		o         domain.Order
		customer  []byte
		shipping  []byte
		billing   []byte
		items     []byte
		discounts []byte
		payment   []byte
	)

	err := row.Scan(&o.ID, &o.OrderNumber, &customer, &shipping, &billing, &items,
		&o.Totals.Subtotal, &o.Totals.DiscountTotal, &o.Totals.TaxTotal,
		&o.Totals.ShippingTotal, &o.Totals.Total, &discounts,
		&o.PaymentMethod, &o.PaymentStatus, &payment,
		&o.Status, &o.FulfillmentStatus, &o.ShippingMethod, &o.ShippingCarrier,
		&o.TrackingNumber, &o.TrackingURL, &o.CustomerNote, &o.InternalNote,
		&o.ShippedAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	if err := json.Unmarshal(customer, &o.Customer); err != nil {
		return domain.Order{}, fmt.Errorf("json.Unmarshal customer: %w", err)
	}
	if err := json.Unmarshal(shipping, &o.ShippingAddress); err != nil {
		return domain.Order{}, fmt.Errorf("json.Unmarshal shipping address: %w", err)
	}
	if err := json.Unmarshal(billing, &o.BillingAddress); err != nil {
		return domain.Order{}, fmt.Errorf("json.Unmarshal billing address: %w", err)
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return domain.Order{}, fmt.Errorf("json.Unmarshal items: %w", err)
	}
	if err := json.Unmarshal(discounts, &o.AppliedDiscounts); err != nil {
		return domain.Order{}, fmt.Errorf("json.Unmarshal applied discounts: %w", err)
	}
	if err := json.Unmarshal(payment, &o.PaymentDetails); err != nil {
		return domain.Order{}, fmt.Errorf("json.Unmarshal payment details: %w", err)
	}

	return o, nil
}
