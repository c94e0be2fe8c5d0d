package events

import "context"

// Publisher sends domain events to whoever consumes them.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Handler processes one event.
type Handler func(ctx context.Context, e Event) error

// Nop drops every event. Used by the CLI and in tests.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }
