package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"order-system/internal/domain"
)

type ProductRepo struct {
	q querier
}

func (r *ProductRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	var p domain.Product
	err := r.q.QueryRow(ctx, `
		SELECT id, name, price, stock FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "product", ID: id.String()}
	}
	if err != nil {
		return nil, wrapErr("get product", err)
	}
	return &p, nil
}

// Reserve is the single conditional write that closes the race between
// stock check and decrement: the WHERE clause is evaluated under the
// row lock, so two concurrent reservations can never both pass it.
func (r *ProductRepo) Reserve(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	var newStock int
	err := r.q.QueryRow(ctx, `
		UPDATE products SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
		RETURNING stock
	`, id, quantity).Scan(&newStock)
	if errors.Is(err, pgx.ErrNoRows) {
		p, gerr := r.Get(ctx, id)
		if gerr != nil {
			return 0, gerr
		}
		return 0, &domain.InsufficientStockError{
			ProductID:   id,
			ProductName: p.Name,
			Requested:   quantity,
			Available:   p.Stock,
		}
	}
	if err != nil {
		return 0, wrapErr("reserve stock", err)
	}
	return newStock, nil
}

func (r *ProductRepo) Release(ctx context.Context, id uuid.UUID, quantity int) (int, error) {
	var newStock int
	err := r.q.QueryRow(ctx, `
		UPDATE products SET stock = stock + $2
		WHERE id = $1
		RETURNING stock
	`, id, quantity).Scan(&newStock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, &domain.NotFoundError{Entity: "product", ID: id.String()}
	}
	if err != nil {
		return 0, wrapErr("release stock", err)
	}
	return newStock, nil
}
