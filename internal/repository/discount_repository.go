package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopstack/commerce-core/internal/domain"
	"github.com/shopstack/commerce-core/internal/port"
)

type discountRepository struct {
	q    querier
	pool *pgxpool.Pool
}

func NewDiscount(pool *pgxpool.Pool) port.DiscountRepository {
	return &discountRepository{q: pool, pool: pool}
}

func NewDiscountWithTx(tx pgx.Tx) port.DiscountRepository {
	return &discountRepository{q: tx, pool: nil}
}

const selectDiscount = `
	SELECT id, name, description, COALESCE(code, ''), type, value, application_type,
	       applicable_products, applicable_categories, minimum_purchase_amount,
	       minimum_quantity, usage_limit, usage_count, usage_limit_per_customer,
	       start_date, end_date, is_active, is_public,
	       targeted_user_emails, targeted_user_ids, exclude_sale_items,
	       first_order_only, created_by, created_at, updated_at
	FROM discounts`

func (r *discountRepository) FindByID(ctx context.Context, id uuid.UUID) (domain.Discount, error) {
	row := r.q.QueryRow(ctx, selectDiscount+` WHERE id = $1`, id)
	return scanDiscount(row)
}

func (r *discountRepository) FindByCode(ctx context.Context, code string) (domain.Discount, error) {
	if code == "" {
		return domain.Discount{}, fmt.Errorf("code is empty")
	}

	row := r.q.QueryRow(ctx, selectDiscount+` WHERE upper(code) = $1`, strings.ToUpper(code))
	return scanDiscount(row)
}

// IncrementUsage bumps the counter in one statement; concurrent checkouts
// never read-modify-write it. The condition keeps usage_count inside
// usage_limit when a limit is set.
func (r *discountRepository) IncrementUsage(ctx context.Context, id uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE discounts
		SET usage_count = usage_count + 1, updated_at = now()
		WHERE id = $1 AND (usage_limit = 0 OR usage_count < usage_limit)`, id)
	if err != nil {
		return fmt.Errorf("increment usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDiscountNotFound
	}
	return nil
}

func scanDiscount(row pgx.Row) (domain.Discount, error) {
	var d domain.Discount

	err := row.Scan(&d.ID, &d.Name, &d.Description, &d.Code, &d.Type, &d.Value,
		&d.ApplicationType, &d.ApplicableProducts, &d.ApplicableCategories,
		&d.MinimumPurchaseAmount, &d.MinimumQuantity, &d.UsageLimit, &d.UsageCount,
		&d.UsageLimitPerCustomer, &d.StartDate, &d.EndDate, &d.IsActive, &d.IsPublic,
		&d.TargetedUserEmails, &d.TargetedUserIDs, &d.ExcludeSaleItems,
		&d.FirstOrderOnly, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Discount{}, domain.ErrDiscountNotFound
	}
	if err != nil {
		return domain.Discount{}, fmt.Errorf("scan discount: %w", err)
	}

	return d, nil
}
