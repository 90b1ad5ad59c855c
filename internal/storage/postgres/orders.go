package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"order-system/internal/domain"
	"order-system/internal/storage"
)

type OrderRepo struct {
	q querier
}

const orderColumns = `id, order_number, user_id, status, order_type, table_number, notes, total, created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.Number, &o.UserID, &o.Status, &o.Type,
		&o.TableNumber, &o.Notes, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	if forUpdate {
		q += ` FOR UPDATE`
	}
	o, err := scanOrder(r.q.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &domain.NotFoundError{Entity: "order", ID: id.String()}
	}
	if err != nil {
		return nil, wrapErr("get order", err)
	}
	if err := r.loadItems(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepo) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.get(ctx, id, false)
}

func (r *OrderRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.get(ctx, id, true)
}

func (r *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list orders", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, wrapErr("scan order", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list orders", err)
	}

	refs := make([]*domain.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.loadItems(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepo) loadItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		o.Items = []domain.OrderItem{}
		byID[o.ID] = o
		ids = append(ids, o.ID.String())
	}

	rows, err := r.q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, price
		FROM order_items WHERE order_id = ANY($1) ORDER BY created_at
	`, ids)
	if err != nil {
		return wrapErr("load order items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price); err != nil {
			return wrapErr("scan order item", err)
		}
		if o, ok := byID[it.OrderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO orders
			(id, order_number, user_id, status, order_type, table_number, notes, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, o.ID, o.Number, o.UserID, o.Status, o.Type, o.TableNumber, o.Notes, o.Total, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return wrapErr("insert order", err)
	}
	for i := range o.Items {
		if err := r.AddItem(ctx, &o.Items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return wrapErr("update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "order", ID: id.String()}
	}
	return nil
}

func (r *OrderRepo) Patch(ctx context.Context, id uuid.UUID, p storage.OrderPatch) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE orders SET
			user_id      = COALESCE($2, user_id),
			table_number = COALESCE($3, table_number),
			notes        = COALESCE($4, notes),
			updated_at   = now()
		WHERE id = $1
	`, id, p.UserID, p.TableNumber, p.Notes)
	if err != nil {
		return wrapErr("patch order", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "order", ID: id.String()}
	}
	return nil
}

func (r *OrderRepo) UpdateTotal(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `
		UPDATE orders SET total = $2, updated_at = now() WHERE id = $1
	`, id, total)
	if err != nil {
		return wrapErr("update order total", err)
	}
	return nil
}

func (r *OrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM order_items WHERE order_id = $1`, id); err != nil {
		return wrapErr("delete order items", err)
	}
	tag, err := r.q.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return wrapErr("delete order", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "order", ID: id.String()}
	}
	return nil
}

func (r *OrderRepo) AddItem(ctx context.Context, item *domain.OrderItem) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO order_items (id, order_id, product_id, quantity, price, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
	`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price)
	if err != nil {
		return wrapErr("insert order item", err)
	}
	return nil
}

func (r *OrderRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE order_items SET quantity = $2 WHERE id = $1
	`, itemID, quantity)
	if err != nil {
		return wrapErr("update order item", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "order item", ID: itemID.String()}
	}
	return nil
}

func (r *OrderRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM order_items WHERE id = $1`, itemID)
	if err != nil {
		return wrapErr("delete order item", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Entity: "order item", ID: itemID.String()}
	}
	return nil
}
