package domain

import "time"

const (
	EventOrderCreated = "order.created"
	EventOrderUpdated = "order.updated"
)

// OrderEvent is the payload published to subscribers after a commit.
// Delivery is best-effort: subscribers must tolerate duplicates or gaps.
type OrderEvent struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurredAt"`
	Order      *Order    `json:"order"`
}
