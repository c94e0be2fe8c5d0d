package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrDispatcherClosed is returned by Publish after Close.
var ErrDispatcherClosed = errors.New("event dispatcher closed")

// Dispatcher is the in-process Publisher used when RabbitMQ is not configured.
// Events are buffered and handled by a fixed number of worker goroutines.
type Dispatcher struct {
	queue   chan Event
	handler Handler
	logger  *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher starts workers that call handler for each published event.
func NewDispatcher(handler Handler, workers, buffer int, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	d := &Dispatcher{
		queue:   make(chan Event, buffer),
		handler: handler,
		logger:  logger,
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	return d
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for e := range d.queue {
		if err := d.handler(context.Background(), e); err != nil {
			d.logger.Warn("Event handler failed", zap.String("type", e.Type), zap.String("id", e.ID), zap.Error(err))
		}
	}
}

// Publish enqueues the event, blocking while the buffer is full.
func (d *Dispatcher) Publish(ctx context.Context, e Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events, drains the buffer and waits for the workers.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	return nil
}
