package services

import "context"

// Product event types.
const (
	EventProductCreated = "product.created"
	EventProductUpdated = "product.updated"
	EventProductDeleted = "product.deleted"
)

// EventPublisher delivers product change events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{}) error
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

// Publish does nothing.
func (NoopPublisher) Publish(context.Context, string, interface{}) error {
	return nil
}
