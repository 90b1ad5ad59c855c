package domain

import "github.com/google/uuid"

type CreateOrderItem struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}

type CreateOrderRequest struct {
	UserID      uuid.UUID         `json:"userId" validate:"required"`
	OrderType   OrderType         `json:"orderType" validate:"required,oneof=DINE_IN TAKEAWAY DELIVERY"`
	TableNumber *int              `json:"tableNumber,omitempty" validate:"omitempty,gt=0"`
	Notes       *string           `json:"notes,omitempty"`
	Items       []CreateOrderItem `json:"items" validate:"required,min=1,dive"`
}

// UpdateOrderRequest is a partial field patch; nil means "leave as is".
// It never touches inventory or analytics.
type UpdateOrderRequest struct {
	UserID      *uuid.UUID `json:"userId,omitempty"`
	TableNumber *int       `json:"tableNumber,omitempty" validate:"omitempty,gt=0"`
	Notes       *string    `json:"notes,omitempty"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" validate:"required"`
}

type AddOrderItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,gt=0"`
}
