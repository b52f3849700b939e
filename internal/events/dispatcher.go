package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// inMemoryDispatcher is a simple synchronous dispatcher, used in tests
// where side effects must be observable immediately after Publish.
type inMemoryDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

// NewInMemoryDispatcher creates a synchronous dispatcher instance.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{
		listeners: make(map[EventType][]EventHandler),
	}
}

// Publish synchronously invokes handlers for the given event. Handler
// errors never propagate to the publisher.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler(ctx, event)
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *inMemoryDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// asyncDispatcher runs handlers on their own goroutine so the publishing
// operation returns as soon as its primary write has committed. Handler
// failures and panics are logged at this boundary and never reach the
// publisher.
type asyncDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	logger    *zap.Logger
}

// NewAsyncDispatcher creates the dispatcher used in production wiring.
func NewAsyncDispatcher(logger *zap.Logger) Dispatcher {
	return &asyncDispatcher{
		listeners: make(map[EventType][]EventHandler),
		logger:    logger,
	}
}

// Publish dispatches the event without waiting for handlers. The handler
// context is detached from the request: a client disconnect must not
// cancel in-flight notification side effects.
func (d *asyncDispatcher) Publish(ctx context.Context, event Event) error {
	d.mu.RLock()
	handlers := append([]EventHandler{}, d.listeners[event.Type]...)
	d.mu.RUnlock()

	go func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("event handler panic",
					zap.String("event_type", string(event.Type)),
					zap.Any("panic", r))
			}
		}()
		for _, handler := range handlers {
			if err := handler(context.Background(), event); err != nil {
				d.logger.Warn("event handler failed",
					zap.String("event_type", string(event.Type)),
					zap.Error(err))
			}
		}
	}()
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *asyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}
