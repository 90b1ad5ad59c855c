// Package notifier publishes order change events after a transaction
// commits. It is a notification channel, not a durability mechanism:
// the engine logs and swallows publish failures.
package notifier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"order-system/internal/connections/rabbitmq"
	"order-system/internal/domain"
)

type Publisher interface {
	PublishCreated(ctx context.Context, o *domain.Order) error
	PublishUpdated(ctx context.Context, o *domain.Order) error
}

type RabbitPublisher struct {
	client *rabbitmq.Client
}

func NewRabbit(client *rabbitmq.Client) *RabbitPublisher {
	return &RabbitPublisher{client: client}
}

func (p *RabbitPublisher) PublishCreated(ctx context.Context, o *domain.Order) error {
	return p.publish(ctx, domain.EventOrderCreated, domain.EventOrderCreated, o)
}

func (p *RabbitPublisher) PublishUpdated(ctx context.Context, o *domain.Order) error {
	key := domain.EventOrderUpdated + "." + strings.ToLower(string(o.Status))
	return p.publish(ctx, domain.EventOrderUpdated, key, o)
}

func (p *RabbitPublisher) publish(ctx context.Context, event, key string, o *domain.Order) error {
	body, err := json.Marshal(domain.OrderEvent{
		Event:      event,
		OccurredAt: time.Now().UTC(),
		Order:      o,
	})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.client.Publish(ctx, rabbitmq.OrdersExchange, key, body)
}
