package events

import "context"

// EventPublisher is the interface for publishing object lifecycle events.
type EventPublisher interface {
	PublishObject(ctx context.Context, event *ObjectEvent) error
}

// NoOpPublisher is an EventPublisher that does nothing (for in-process usage without events).
type NoOpPublisher struct{}

// PublishObject is a no-op.
func (p *NoOpPublisher) PublishObject(_ context.Context, _ *ObjectEvent) error {
	return nil
}

// CallbackPublisher is an EventPublisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *ObjectEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *ObjectEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishObject calls the callback.
func (p *CallbackPublisher) PublishObject(ctx context.Context, event *ObjectEvent) error {
	return p.callback(ctx, event)
}
