package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/port"
	"golang.org/x/text/currency"
)

type cartRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{q: pool, pool: pool}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{q: tx, pool: nil} // use provided transaction instead
}

const selectCart = `
	SELECT id, user_id, session_id, status, applied_coupons,
	       subtotal, discount_total, tax_total, shipping_total, total,
	       last_activity_at, expires_at, created_at, updated_at
	FROM carts`

func (r *cartRepository) FindByOwner(ctx context.Context, owner domain.OwnerKey) (domain.Cart, error) {
	if owner.IsZero() {
		return domain.Cart{}, fmt.Errorf("owner key is empty")
	}

	var row pgx.Row
	if owner.UserID != "" {
		row = r.q.QueryRow(ctx, selectCart+` WHERE user_id = $1 AND status = 'active'`, owner.UserID)
	} else {
		row = r.q.QueryRow(ctx, selectCart+` WHERE session_id = $1 AND status = 'active'`, owner.SessionID)
	}

	cart, err := scanCart(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("scanCart: %w", err)
	}

	cart.Items, err = r.loadItems(ctx, cart.ID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("loadItems: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) Create(ctx context.Context, cart domain.Cart) (domain.Cart, error) {
	if cart.Owner.IsZero() {
		return domain.Cart{}, fmt.Errorf("owner key is empty")
	}

	coupons, err := json.Marshal(couponsToDB(cart.AppliedCoupons))
	if err != nil {
		return domain.Cart{}, fmt.Errorf("json.Marshal coupons: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO carts (user_id, session_id, status, applied_coupons, expires_at)
		VALUES (NULLIF($1, ''), NULLIF($2, ''), $3, $4, $5)
		RETURNING id, user_id, session_id, status, applied_coupons,
		          subtotal, discount_total, tax_total, shipping_total, total,
		          last_activity_at, expires_at, created_at, updated_at`,
		cart.Owner.UserID, cart.Owner.SessionID, domain.CartStatusActive, coupons, cart.ExpiresAt)

	created, err := scanCart(row)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("scanCart: %w", err)
	}

	return created, nil
}

// Save replaces the cart's lines, coupons and totals wholesale. The cart is
// the aggregate root; partial patching is deliberately not offered.
func (r *cartRepository) Save(ctx context.Context, cart domain.Cart) error {
	if cart.ID == uuid.Nil {
		return fmt.Errorf("cart ID is empty")
	}

	if r.pool == nil {
		return r.save(ctx, r.q, cart)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pool.Begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := r.save(ctx, tx, cart); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx.Commit: %w", err)
	}
	return nil
}

func (r *cartRepository) save(ctx context.Context, q querier, cart domain.Cart) error {
	coupons, err := json.Marshal(couponsToDB(cart.AppliedCoupons))
	if err != nil {
		return fmt.Errorf("json.Marshal coupons: %w", err)
	}

	tag, err := q.Exec(ctx, `
		UPDATE carts
		SET applied_coupons = $2, subtotal = $3, discount_total = $4,
		    tax_total = $5, shipping_total = $6, total = $7,
		    last_activity_at = now(), updated_at = now()
		WHERE id = $1 AND status = 'active'`,
		cart.ID, coupons,
		cart.Totals.Subtotal, cart.Totals.DiscountTotal, cart.Totals.TaxTotal,
		cart.Totals.ShippingTotal, cart.Totals.Total)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartNotFound
	}

	if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("delete cart_items: %w", err)
	}

	for _, item := range cart.Items {
		options, err := json.Marshal(item.VariantOptions)
		if err != nil {
			return fmt.Errorf("json.Marshal options: %w", err)
		}

		_, err = q.Exec(ctx, `
			INSERT INTO cart_items (id, cart_id, product_id, variant_id, product_name,
			                        product_slug, product_image, variant_options,
			                        price_amount, price_currency, compare_at_price,
			                        quantity, added_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			item.ID, cart.ID, item.ProductID, item.VariantID, item.ProductName,
			item.ProductSlug, item.ProductImage, options,
			item.Price.Amount, item.Price.Currency.String(), item.CompareAtPrice,
			item.Quantity, item.AddedAt)
		if err != nil {
			return fmt.Errorf("insert cart_item: %w", err)
		}
	}

	return nil
}

func (r *cartRepository) MarkConverted(ctx context.Context, cartID uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE carts
		SET status = 'converted', applied_coupons = '[]', updated_at = now()
		WHERE id = $1 AND status = 'active'`, cartID)
	if err != nil {
		return fmt.Errorf("update cart status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartNotFound
	}

	if _, err := r.q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart_items: %w", err)
	}

	return nil
}

func (r *cartRepository) loadItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, product_id, variant_id, product_name, product_slug, product_image,
		       variant_options, price_amount, price_currency, compare_at_price,
		       quantity, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at, id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart_items: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem
	for rows.Next() {
		var (
			item        domain.CartItem
			options     []byte
			priceAmount decimal.Decimal
			priceCurr   string
		)
		if err := rows.Scan(&item.ID, &item.ProductID, &item.VariantID,
			&item.ProductName, &item.ProductSlug, &item.ProductImage,
			&options, &priceAmount, &priceCurr, &item.CompareAtPrice,
			&item.Quantity, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		if err := json.Unmarshal(options, &item.VariantOptions); err != nil {
			return nil, fmt.Errorf("json.Unmarshal options: %w", err)
		}

		item.Price, err = parseMoney(priceAmount, priceCurr)
		if err != nil {
			return nil, fmt.Errorf("parseMoney: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return items, nil
}

// dbAppliedCoupon is the JSONB shape of a cart's applied coupon.
type dbAppliedCoupon struct {
	DiscountID     uuid.UUID       `json:"discount_id"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

func couponsToDB(coupons []domain.AppliedCoupon) []dbAppliedCoupon {
	out := make([]dbAppliedCoupon, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, dbAppliedCoupon{
			DiscountID:     c.DiscountID,
			Code:           c.Code,
			DiscountAmount: c.DiscountAmount,
		})
	}
	return out
}

func couponsToDomain(raw []byte) ([]domain.AppliedCoupon, error) {
	var dbCoupons []dbAppliedCoupon
	if err := json.Unmarshal(raw, &dbCoupons); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	var coupons []domain.AppliedCoupon
	for _, c := range dbCoupons {
		coupons = append(coupons, domain.AppliedCoupon{
			DiscountID:     c.DiscountID,
			Code:           c.Code,
			DiscountAmount: c.DiscountAmount,
		})
	}
	return coupons, nil
}

func scanCart(row pgx.Row) (domain.Cart, error) {
	var (
		cart      domain.Cart
		userID    *string
		sessionID *string
		coupons   []byte
	)

	err := row.Scan(&cart.ID, &userID, &sessionID, &cart.Status, &coupons,
		&cart.Totals.Subtotal, &cart.Totals.DiscountTotal, &cart.Totals.TaxTotal,
		&cart.Totals.ShippingTotal, &cart.Totals.Total,
		&cart.LastActivityAt, &cart.ExpiresAt, &cart.CreatedAt, &cart.UpdatedAt)
	if err != nil {
		return domain.Cart{}, err
	}

	if userID != nil {
		cart.Owner.UserID = *userID
	}
	if sessionID != nil {
		cart.Owner.SessionID = *sessionID
	}

	cart.AppliedCoupons, err = couponsToDomain(coupons)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("couponsToDomain: %w", err)
	}

	return cart, nil
}

func parseMoney(amount decimal.Decimal, code string) (domain.Money, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return domain.Money{}, fmt.Errorf("currency[%s] is not valid: %w", code, err)
	}
	return domain.Money{Amount: amount, Currency: unit}, nil
}
