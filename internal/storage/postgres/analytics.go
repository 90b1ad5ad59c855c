package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"order-system/internal/domain"
)

// AnalyticsRepo maintains the rolling aggregates with upsert-with-atomic-
// increment statements, so concurrent orders for the same user, product
// or day never lose updates.
type AnalyticsRepo struct {
	q querier
}

func (r *AnalyticsRepo) ApplyOrderCreated(ctx context.Context, o *domain.Order) (int, error) {
	seq, err := r.upsertDaily(ctx, o)
	if err != nil {
		return 0, err
	}
	if err := r.upsertUser(ctx, o); err != nil {
		return 0, err
	}
	for _, it := range o.Items {
		if err := r.upsertProduct(ctx, &it, o.CreatedAt); err != nil {
			return 0, err
		}
	}
	return seq, nil
}

func (r *AnalyticsRepo) upsertDaily(ctx context.Context, o *domain.Order) (int, error) {
	dineIn := btoi(o.Type == domain.OrderTypeDineIn)
	takeaway := btoi(o.Type == domain.OrderTypeTakeaway)
	delivery := btoi(o.Type == domain.OrderTypeDelivery)

	var totalOrders int
	err := r.q.QueryRow(ctx, `
		INSERT INTO daily_order_summaries
			(day, total_orders, total_revenue, dine_in_orders, takeaway_orders, delivery_orders, cancelled_orders)
		VALUES ($1, 1, $2, $3, $4, $5, 0)
		ON CONFLICT (day) DO UPDATE SET
			total_orders    = daily_order_summaries.total_orders + 1,
			total_revenue   = daily_order_summaries.total_revenue + EXCLUDED.total_revenue,
			dine_in_orders  = daily_order_summaries.dine_in_orders + EXCLUDED.dine_in_orders,
			takeaway_orders = daily_order_summaries.takeaway_orders + EXCLUDED.takeaway_orders,
			delivery_orders = daily_order_summaries.delivery_orders + EXCLUDED.delivery_orders
		RETURNING total_orders
	`, o.Day(), o.Total, dineIn, takeaway, delivery).Scan(&totalOrders)
	if err != nil {
		return 0, wrapErr("upsert daily summary", err)
	}
	return totalOrders, nil
}

func (r *AnalyticsRepo) upsertUser(ctx context.Context, o *domain.Order) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO user_analytics
			(user_id, total_orders, total_spent, average_order_value, first_order_date, last_order_date)
		VALUES ($1, 1, $2, $2, $3, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			total_orders        = user_analytics.total_orders + 1,
			total_spent         = user_analytics.total_spent + EXCLUDED.total_spent,
			average_order_value = (user_analytics.total_spent + EXCLUDED.total_spent)
			                      / (user_analytics.total_orders + 1),
			last_order_date     = EXCLUDED.last_order_date
	`, o.UserID, o.Total, o.CreatedAt)
	if err != nil {
		return wrapErr("upsert user analytics", err)
	}
	return nil
}

func (r *AnalyticsRepo) upsertProduct(ctx context.Context, it *domain.OrderItem, at time.Time) error {
	revenue := it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
	_, err := r.q.Exec(ctx, `
		INSERT INTO product_analytics (product_id, total_sold, total_revenue, last_sold_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (product_id) DO UPDATE SET
			total_sold     = product_analytics.total_sold + EXCLUDED.total_sold,
			total_revenue  = product_analytics.total_revenue + EXCLUDED.total_revenue,
			last_sold_date = EXCLUDED.last_sold_date
	`, it.ProductID, it.Quantity, revenue, at)
	if err != nil {
		return wrapErr("upsert product analytics", err)
	}
	return nil
}

func (r *AnalyticsRepo) ApplyOrderCancelled(ctx context.Context, o *domain.Order) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO daily_order_summaries
			(day, total_orders, total_revenue, dine_in_orders, takeaway_orders, delivery_orders, cancelled_orders)
		VALUES ($1, 0, 0, 0, 0, 0, 1)
		ON CONFLICT (day) DO UPDATE SET
			cancelled_orders = daily_order_summaries.cancelled_orders + 1
	`, o.Day())
	if err != nil {
		return wrapErr("increment cancelled orders", err)
	}
	return nil
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}
