package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the async dispatcher cannot accept more events.
var ErrQueueFull = errors.New("event queue full")

// ErrDispatcherClosed is returned when publishing after Close.
var ErrDispatcherClosed = errors.New("event dispatcher closed")

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type registry struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
}

func (r *registry) Subscribe(eventType EventType, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[eventType] = append(r.listeners[eventType], handler)
}

func (r *registry) handlers(eventType EventType) []EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]EventHandler{}, r.listeners[eventType]...)
}

// inMemoryDispatcher is a simple synchronous dispatcher.
type inMemoryDispatcher struct {
	registry
}

// NewInMemoryDispatcher creates a dispatcher that runs handlers on the caller's goroutine.
func NewInMemoryDispatcher() Dispatcher {
	return &inMemoryDispatcher{registry{listeners: make(map[EventType][]EventHandler)}}
}

// Publish synchronously invokes handlers and returns the first handler error.
func (d *inMemoryDispatcher) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, handler := range d.handlers(event.Type) {
		if err := handler(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AsyncDispatcher queues events on a bounded channel drained by a fixed worker pool.
// Publish never blocks; a full queue drops the event.
type AsyncDispatcher struct {
	registry
	logger *zap.Logger
	queue  chan Event

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	wg        sync.WaitGroup
}

// NewAsyncDispatcher starts workers goroutines reading from a queue of queueSize.
func NewAsyncDispatcher(logger *zap.Logger, workers, queueSize int) *AsyncDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &AsyncDispatcher{
		registry: registry{listeners: make(map[EventType][]EventHandler)},
		logger:   logger.With(zap.String("component", "events")),
		queue:    make(chan Event, queueSize),
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.work()
	}
	return d
}

// Publish enqueues the event. The context is not carried to handlers, which
// outlive the publishing request.
func (d *AsyncDispatcher) Publish(_ context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- event:
		return nil
	default:
		d.logger.Warn("dropping event, queue full",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
		return ErrQueueFull
	}
}

// Close stops accepting events and waits for queued ones to be handled.
func (d *AsyncDispatcher) Close() {
	d.closeOnce.Do(func() {
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
		d.wg.Wait()
	})
}

func (d *AsyncDispatcher) work() {
	defer d.wg.Done()
	for event := range d.queue {
		d.deliver(event)
	}
}

func (d *AsyncDispatcher) deliver(event Event) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("event handler panicked",
				zap.String("event_id", event.ID),
				zap.Any("panic", r))
		}
	}()
	for _, handler := range d.handlers(event.Type) {
		if err := handler(context.Background(), event); err != nil {
			d.logger.Error("event handler failed",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
		}
	}
}
