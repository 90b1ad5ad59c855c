// Package storage defines the transactional unit of work the order
// engine runs against. Every mutation of the ledger, the inventory
// counters and the rolling aggregates happens through one Tx, so a
// failure anywhere rolls back everything.
package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"order-system/internal/domain"
)

type Store interface {
	// WithinTx runs fn inside one transaction with a bounded timeout.
	// fn returning an error rolls the transaction back wholesale.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	// Orders exposes non-transactional reads for the query paths.
	Orders() OrderReader
}

type Tx interface {
	Orders() OrderRepo
	Products() ProductRepo
	Analytics() AnalyticsRepo
}

type OrderReader interface {
	// Get loads an order with its items; missing orders yield a
	// domain.NotFoundError.
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
}

// OrderPatch carries the generic field updates; nil means unchanged.
type OrderPatch struct {
	UserID      *uuid.UUID
	TableNumber *int
	Notes       *string
}

type OrderRepo interface {
	OrderReader

	// GetForUpdate locks the order row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Create(ctx context.Context, o *domain.Order) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) error
	Patch(ctx context.Context, id uuid.UUID, p OrderPatch) error
	UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddItem(ctx context.Context, item *domain.OrderItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
}

type ProductRepo interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Product, error)

	// Reserve decrements stock as one conditional write: it fails with
	// a domain.InsufficientStockError instead of ever going negative,
	// even under concurrent reservations of the same product.
	Reserve(ctx context.Context, id uuid.UUID, quantity int) (newStock int, err error)

	// Release increments stock unconditionally; it always pairs with a
	// prior successful Reserve for the same quantity.
	Release(ctx context.Context, id uuid.UUID, quantity int) (newStock int, err error)
}

type AnalyticsRepo interface {
	// ApplyOrderCreated upserts the per-user, per-product and per-day
	// aggregates with atomic increments and returns the order's
	// position in that day's sequence.
	ApplyOrderCreated(ctx context.Context, o *domain.Order) (daySequence int, err error)

	// ApplyOrderCancelled bumps cancelledOrders for the order's
	// original day. Lifetime user/product totals stay untouched.
	ApplyOrderCancelled(ctx context.Context, o *domain.Order) error
}
