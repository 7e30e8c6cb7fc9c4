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
)

type productRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewProduct(pool *pgxpool.Pool) port.ProductRepository {
	return &productRepository{q: pool, pool: pool}
}

func NewProductWithTx(tx pgx.Tx) port.ProductRepository {
	return &productRepository{q: tx, pool: nil}
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Product, error) {
	var (
		p           domain.Product
		priceAmount decimal.Decimal
		priceCurr   string
	)

	err := r.q.QueryRow(ctx, `
		SELECT id, name, slug, image_url, price_amount, price_currency,
		       compare_at_price, stock, track_inventory, allow_backorder,
		       has_variants, category_ids
		FROM products
		WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Slug, &p.ImageURL, &priceAmount, &priceCurr,
			&p.CompareAtPrice, &p.Stock, &p.TrackInventory, &p.AllowBackorder,
			&p.HasVariants, &p.CategoryIDs)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Product{}, domain.ErrProductNotFound
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("query product: %w", err)
	}

	p.BasePrice, err = parseMoney(priceAmount, priceCurr)
	if err != nil {
		return domain.Product{}, fmt.Errorf("parseMoney: %w", err)
	}

	return p, nil
}

func (r *productRepository) FindVariantByID(ctx context.Context, id uuid.UUID) (domain.Variant, error) {
	var (
		v           domain.Variant
		priceAmount decimal.Decimal
		priceCurr   string
		options     []byte
	)

	err := r.q.QueryRow(ctx, `
		SELECT id, product_id, sku, price_amount, price_currency, options, stock
		FROM product_variants
		WHERE id = $1`, id).
		Scan(&v.ID, &v.ProductID, &v.SKU, &priceAmount, &priceCurr, &options, &v.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Variant{}, domain.ErrVariantNotFound
	}
	if err != nil {
		return domain.Variant{}, fmt.Errorf("query variant: %w", err)
	}

	if err := json.Unmarshal(options, &v.Options); err != nil {
		return domain.Variant{}, fmt.Errorf("json.Unmarshal options: %w", err)
	}

	v.Price, err = parseMoney(priceAmount, priceCurr)
	if err != nil {
		return domain.Variant{}, fmt.Errorf("parseMoney: %w", err)
	}

	return v, nil
}

// CheckStock is advisory: a passing check can still lose the race to a
// concurrent checkout. DecrementStock re-checks the condition atomically.
func (r *productRepository) CheckStock(ctx context.Context, ref domain.UnitRef, qty int) (bool, error) {
	if qty <= 0 {
		return false, domain.ErrInvalidQuantity
	}

	if ref.IsVariant() {
		var ok bool
		err := r.q.QueryRow(ctx,
			`SELECT stock >= $2 FROM product_variants WHERE id = $1`,
			ref.VariantID.UUID, qty).Scan(&ok)
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrVariantNotFound
		}
		if err != nil {
			return false, fmt.Errorf("query variant stock: %w", err)
		}
		return ok, nil
	}

	var ok bool
	err := r.q.QueryRow(ctx,
		`SELECT NOT track_inventory OR allow_backorder OR stock >= $2
		 FROM products WHERE id = $1`,
		ref.ProductID, qty).Scan(&ok)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, domain.ErrProductNotFound
	}
	if err != nil {
		return false, fmt.Errorf("query product stock: %w", err)
	}
	return ok, nil
}

// DecrementStock is the check-then-decrement collapsed into one conditional
// UPDATE, so two racing checkouts can never both take the last unit.
func (r *productRepository) DecrementStock(ctx context.Context, ref domain.UnitRef, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}

	if ref.IsVariant() {
		tag, err := r.q.Exec(ctx, `
			UPDATE product_variants
			SET stock = stock - $2, updated_at = now()
			WHERE id = $1 AND stock >= $2`,
			ref.VariantID.UUID, qty)
		if err != nil {
			return fmt.Errorf("decrement variant stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return &domain.OutOfStockError{}
		}
		return nil
	}

	// Untracked products take the no-op branch; tracked ones must pass the
	// stock condition unless backorder is allowed.
	tag, err := r.q.Exec(ctx, `
		UPDATE products
		SET stock = CASE WHEN track_inventory THEN stock - $2 ELSE stock END,
		    updated_at = now()
		WHERE id = $1
		  AND (NOT track_inventory OR allow_backorder OR stock >= $2)`,
		ref.ProductID, qty)
	if err != nil {
		return fmt.Errorf("decrement product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.OutOfStockError{}
	}
	return nil
}

func (r *productRepository) IncrementStock(ctx context.Context, ref domain.UnitRef, qty int) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}

	if ref.IsVariant() {
		tag, err := r.q.Exec(ctx, `
			UPDATE product_variants
			SET stock = stock + $2, updated_at = now()
			WHERE id = $1`,
			ref.VariantID.UUID, qty)
		if err != nil {
			return fmt.Errorf("increment variant stock: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrVariantNotFound
		}
		return nil
	}

	tag, err := r.q.Exec(ctx, `
		UPDATE products
		SET stock = stock + $2, updated_at = now()
		WHERE id = $1`,
		ref.ProductID, qty)
	if err != nil {
		return fmt.Errorf("increment product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}
