package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

// Role-scoped notification topics. The SPA's socket bridge subscribes to
// these channels and fans events out to connected clients by role.
const (
	TopicKitchen = "kitchen"
	TopicWaiters = "waiters"
	TopicCashier = "cashier"
)

// Event names published by the core flows
const (
	EventNewOrder         = "kitchen:newOrder"
	EventOrderReady       = "order:ready"
	EventPaymentProcessed = "payment:processed"
)

// NotificationPublisher fans out state-change events to role-scoped topics.
// Delivery is best-effort: one attempt, no acknowledgement, and a dropped
// notification never rolls back the state change that triggered it.
type NotificationPublisher interface {
	Publish(ctx context.Context, topic string, event string, payload interface{}) error
}

// RedisPublisher implements NotificationPublisher over Redis pub/sub
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher from a Redis URL
// (e.g. redis://localhost:6379/0)
func NewRedisPublisher(redisURL string) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &RedisPublisher{client: redis.NewClient(opts)}, nil
}

// NewRedisPublisherFromClient wraps an existing client (primarily for tests)
func NewRedisPublisherFromClient(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends one event to a topic channel as a JSON envelope
func (p *RedisPublisher) Publish(ctx context.Context, topic string, event string, payload interface{}) error {
	envelope := map[string]interface{}{
		"event":   event,
		"payload": payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := p.client.Publish(ctx, topic, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Close releases the underlying Redis connection
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

// publishEvent is the fire-and-forget helper used by the services: publish
// failures are logged with context and never propagated to the caller.
func publishEvent(ctx context.Context, publisher NotificationPublisher, topic, event string, payload interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, topic, event, payload); err != nil {
		log.Printf("notification publish failed (topic=%s event=%s): %v", topic, event, err)
	}
}
