// Package cache wraps the order service with a read-through cache. The
// cache is not authoritative: every failure is logged and swallowed, a
// read falls back to the ledger and a mutation commits regardless.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"order-system/internal/domain"
	"order-system/internal/logger"
	"order-system/internal/order/service"
)

const (
	keyAll        = "order:all"
	keySinglePref = "order:single:"
	keyUserPref   = "order:user:"
)

func keySingle(id uuid.UUID) string   { return keySinglePref + id.String() }
func keyUser(userID uuid.UUID) string { return keyUserPref + userID.String() }

// KV is the narrow slice of the cache store the decorator needs.
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type RedisKV struct {
	rdb *redis.Client
}

func NewRedisKV(rdb *redis.Client) *RedisKV { return &RedisKV{rdb: rdb} }

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Del(ctx context.Context, keys ...string) error {
	return r.rdb.Del(ctx, keys...).Err()
}

// Orders decorates a service.OrderService. Reads are read-through with a
// bounded TTL; writes delegate and then invalidate the affected keys.
type Orders struct {
	next service.OrderService
	kv   KV
	ttl  time.Duration
	lg   *logger.Logger
}

func NewOrders(next service.OrderService, kv KV, ttl time.Duration, lg *logger.Logger) *Orders {
	return &Orders{next: next, kv: kv, ttl: ttl, lg: lg}
}

var _ service.OrderService = (*Orders)(nil)

func (c *Orders) FindAll(ctx context.Context) ([]domain.Order, error) {
	var cached []domain.Order
	if c.lookup(ctx, keyAll, &cached) {
		return cached, nil
	}
	orders, err := c.next.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	c.populate(ctx, keyAll, orders)
	return orders, nil
}

func (c *Orders) FindOne(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	key := keySingle(id)
	var cached domain.Order
	if c.lookup(ctx, key, &cached) {
		return &cached, nil
	}
	order, err := c.next.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	c.populate(ctx, key, order)
	return order, nil
}

func (c *Orders) FindByUser(ctx context.Context, userID uuid.UUID) ([]domain.Order, error) {
	key := keyUser(userID)
	var cached []domain.Order
	if c.lookup(ctx, key, &cached) {
		return cached, nil
	}
	orders, err := c.next.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.populate(ctx, key, orders)
	return orders, nil
}

func (c *Orders) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	order, err := c.next.Create(ctx, req)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, keyAll, keyUser(order.UserID))
	return order, nil
}

func (c *Orders) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (*domain.Order, error) {
	order, err := c.next.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, keyAll, keySingle(id), keyUser(order.UserID))
	return order, nil
}

func (c *Orders) Update(ctx context.Context, id uuid.UUID, req domain.UpdateOrderRequest) (*domain.Order, error) {
	// a reassignment must also drop the previous owner's list, and the
	// returned order only carries the new one; read the owner from the
	// ledger, not the cache, so a stale entry can't hide it
	var prevUser *uuid.UUID
	if req.UserID != nil {
		if prev, err := c.next.FindOne(ctx, id); err == nil {
			prevUser = &prev.UserID
		}
	}

	order, err := c.next.Update(ctx, id, req)
	if err != nil {
		return nil, err
	}
	keys := []string{keyAll, keySingle(id), keyUser(order.UserID)}
	if prevUser != nil && *prevUser != order.UserID {
		keys = append(keys, keyUser(*prevUser))
	}
	c.invalidate(ctx, keys...)
	return order, nil
}

func (c *Orders) Remove(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	order, err := c.next.Remove(ctx, id)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, keyAll, keySingle(id), keyUser(order.UserID))
	return order, nil
}

func (c *Orders) AddOrUpdateItem(ctx context.Context, orderID uuid.UUID, req domain.AddOrderItemRequest) (*domain.Order, error) {
	order, err := c.next.AddOrUpdateItem(ctx, orderID, req)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, keyAll, keySingle(orderID), keyUser(order.UserID))
	return order, nil
}

func (c *Orders) RemoveItem(ctx context.Context, orderID, itemID uuid.UUID) (*domain.Order, error) {
	order, err := c.next.RemoveItem(ctx, orderID, itemID)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, keyAll, keySingle(orderID), keyUser(order.UserID))
	return order, nil
}

// lookup reports whether key was present and dest populated.
func (c *Orders) lookup(ctx context.Context, key string, dest any) bool {
	val, ok, err := c.kv.Get(ctx, key)
	if err != nil {
		c.lg.Warn("cache_get_failed", err, map[string]any{"key": key})
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		c.lg.Warn("cache_decode_failed", err, map[string]any{"key": key})
		return false
	}
	return true
}

func (c *Orders) populate(ctx context.Context, key string, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.lg.Warn("cache_encode_failed", err, map[string]any{"key": key})
		return
	}
	if err := c.kv.Set(ctx, key, string(b), c.ttl); err != nil {
		c.lg.Warn("cache_set_failed", err, map[string]any{"key": key})
	}
}

func (c *Orders) invalidate(ctx context.Context, keys ...string) {
	if err := c.kv.Del(ctx, keys...); err != nil {
		c.lg.Warn("cache_invalidate_failed", err, map[string]any{"keys": keys})
	}
}
