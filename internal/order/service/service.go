package service

import (
	"context"

	"github.com/google/uuid"

	"order-system/internal/domain"
)

// OrderService is the contract the boundary layer (HTTP handlers, cache
// decorator) programs against.
type OrderService interface {
	Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (*domain.Order, error)
	Update(ctx context.Context, id uuid.UUID, req domain.UpdateOrderRequest) (*domain.Order, error)
	Remove(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	AddOrUpdateItem(ctx context.Context, orderID uuid.UUID, req domain.AddOrderItemRequest) (*domain.Order, error)
	RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*domain.Order, error)

	FindOne(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindAll(ctx context.Context) ([]domain.Order, error)
	FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error)
}
