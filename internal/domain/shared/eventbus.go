package shared

import "context"

// EventHandler reacts to domain events published after a batch job
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the types delivered to the handler; empty means all
	EventTypes() []string
}

// EventPublisher is what the batch processor needs from a bus
type EventPublisher interface {
	Publish(ctx context.Context, events ...DomainEvent) error
}

// EventSubscriber registers handlers. Explicit event types passed to
// Subscribe take precedence over the handler's own EventTypes.
type EventSubscriber interface {
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
}

// EventBus is a startable publisher and subscriber
type EventBus interface {
	EventPublisher
	EventSubscriber
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
