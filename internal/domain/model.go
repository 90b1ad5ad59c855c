package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderType string

const (
	OrderTypeDineIn   OrderType = "DINE_IN"
	OrderTypeTakeaway OrderType = "TAKEAWAY"
	OrderTypeDelivery OrderType = "DELIVERY"
)

// Order is the ledger record for one customer order. Items are owned by
// the order and live exactly as long as it does.
type Order struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"orderNumber"`
	UserID      uuid.UUID       `json:"userId"`
	Status      Status          `json:"status"`
	Type        OrderType       `json:"orderType"`
	TableNumber *int            `json:"tableNumber,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	Total       decimal.Decimal `json:"total"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Items       []OrderItem     `json:"items"`
}

// OrderItem keeps the unit price captured at order time. Catalog price
// changes never touch it.
type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"orderId"`
	ProductID uuid.UUID       `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// RecomputeTotal derives the order total from its current item set.
func (o *Order) RecomputeTotal() {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	o.Total = total
}

// ItemByProduct returns the line for the given product, if any.
func (o *Order) ItemByProduct(productID uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ProductID == productID {
			return &o.Items[i]
		}
	}
	return nil
}

// ItemByID returns the line with the given item id, if any.
func (o *Order) ItemByID(itemID uuid.UUID) *OrderItem {
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			return &o.Items[i]
		}
	}
	return nil
}

// Day returns the calendar day (UTC, date-truncated) the order was
// created on. Daily aggregates are keyed by it.
func (o *Order) Day() time.Time {
	return o.CreatedAt.UTC().Truncate(24 * time.Hour)
}

// Product is external catalog state; this core only reads its price and
// name, and mutates its stock counter.
type Product struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

// UserAnalytics holds lifetime totals per buyer. Rows are never deleted
// and never decremented on cancellation.
type UserAnalytics struct {
	UserID            uuid.UUID       `json:"userId"`
	TotalOrders       int             `json:"totalOrders"`
	TotalSpent        decimal.Decimal `json:"totalSpent"`
	AverageOrderValue decimal.Decimal `json:"averageOrderValue"`
	FirstOrderDate    time.Time       `json:"firstOrderDate"`
	LastOrderDate     time.Time       `json:"lastOrderDate"`
}

type ProductAnalytics struct {
	ProductID    uuid.UUID       `json:"productId"`
	TotalSold    int             `json:"totalSold"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	LastSoldDate time.Time       `json:"lastSoldDate"`
}

type DailyOrderSummary struct {
	Day             time.Time       `json:"day"`
	TotalOrders     int             `json:"totalOrders"`
	TotalRevenue    decimal.Decimal `json:"totalRevenue"`
	DineInOrders    int             `json:"dineInOrders"`
	TakeawayOrders  int             `json:"takeawayOrders"`
	DeliveryOrders  int             `json:"deliveryOrders"`
	CancelledOrders int             `json:"cancelledOrders"`
}
