// Package subscriber consumes order events from the broker and logs
// them. It stands in for downstream consumers (kitchen displays, email
// senders) and demonstrates the at-least-once contract of the notifier.
package subscriber

import (
	"context"
	"encoding/json"

	"order-system/internal/connections/rabbitmq"
	"order-system/internal/domain"
	"order-system/internal/logger"
)

func Run(ctx context.Context, client *rabbitmq.Client, lg *logger.Logger) error {
	deliveries, err := client.Consume(rabbitmq.NotificationQueue, "notification-subscriber", 1)
	if err != nil {
		return err
	}
	lg.Info("subscriber_started", map[string]any{"queue": rabbitmq.NotificationQueue})

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			var ev domain.OrderEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil || ev.Order == nil {
				lg.Error("event_decode_failed", err, map[string]any{"routing_key": d.RoutingKey})
				_ = d.Nack(false, false)
				continue
			}
			fields := map[string]any{
				"event":        ev.Event,
				"order_id":     ev.Order.ID.String(),
				"order_number": ev.Order.Number,
				"status":       string(ev.Order.Status),
				"total":        ev.Order.Total.String(),
			}
			lg.Info("order_event_received", fields)
			_ = d.Ack(false)
		}
	}
}
