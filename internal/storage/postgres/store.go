// Package postgres implements the storage unit of work on pgx. Stock
// reservations are single conditional UPDATEs and aggregate upserts are
// atomic increments, so row-level guarantees hold without table locks.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"order-system/internal/domain"
	"order-system/internal/storage"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store struct {
	pool      *pgxpool.Pool
	txTimeout time.Duration
}

func New(pool *pgxpool.Pool, txTimeout time.Duration) *Store {
	return &Store{pool: pool, txTimeout: txTimeout}
}

func (s *Store) Orders() storage.OrderReader {
	return &OrderRepo{q: s.pool}
}

func (s *Store) WithinTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	if s.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.txTimeout)
		defer cancel()
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return wrapErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapErr("commit tx", err)
	}
	return nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) Orders() storage.OrderRepo        { return &OrderRepo{q: t.tx} }
func (t *pgTx) Products() storage.ProductRepo    { return &ProductRepo{q: t.tx} }
func (t *pgTx) Analytics() storage.AnalyticsRepo { return &AnalyticsRepo{q: t.tx} }

// wrapErr classifies persistence failures: serialization and deadlock
// errors become retryable ConflictErrors, the rest internal.
func wrapErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return &domain.ConflictError{Msg: "transaction conflict, retry: " + pgErr.Message}
		}
	}
	return &domain.InternalError{Op: op, Err: err}
}
