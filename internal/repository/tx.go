package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopstack/commerce-core/internal/port"
)

// querier is the subset of pgx shared by *pgxpool.Pool and pgx.Tx, so every
// repository works the same standalone or inside a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store owns the connection pool and hands out transaction-scoped port
// bundles.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Carts() port.CartRepository         { return NewCart(s.pool) }
func (s *Store) Products() port.ProductRepository   { return NewProduct(s.pool) }
func (s *Store) Discounts() port.DiscountRepository { return NewDiscount(s.pool) }
func (s *Store) Orders() port.OrderRepository       { return NewOrder(s.pool) }

// InTx runs fn with all repositories bound to one transaction. Any error
// rolls the whole transaction back.
func (s *Store) InTx(ctx context.Context, fn func(ports port.TxPorts) error) (txErr error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("pool.Begin: %w", err)
	}

	defer func() {
		if txErr != nil {
			rollbackErr := tx.Rollback(ctx)
			if rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				txErr = errors.Join(txErr, fmt.Errorf("tx.Rollback: %w", rollbackErr))
			}
		}
	}()

	ports := port.TxPorts{
		Carts:     NewCartWithTx(tx),
		Products:  NewProductWithTx(tx),
		Discounts: NewDiscountWithTx(tx),
		Orders:    NewOrderWithTx(tx),
	}

	if err := fn(ports); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("tx.Commit: %w", err)
	}

	return nil
}
