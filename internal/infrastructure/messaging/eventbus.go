// Package messaging implements the in-process event bus for the skill
// progress hub. Commands publish domain events (session logged, badge
// earned, catalog refreshed); handlers react without coupling the write
// path to them. Handler failures are logged and never propagate back to
// the publisher.
package messaging

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/skilltrack-hub/skill-progress-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrEventBusClosed is returned when publishing to a closed bus.
	ErrEventBusClosed = errors.New("messaging: event bus is closed")

	// ErrNilHandler is returned when subscribing a nil handler.
	ErrNilHandler = errors.New("messaging: handler cannot be nil")

	// ErrNilEvent is returned when publishing a nil event.
	ErrNilEvent = errors.New("messaging: event cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// IN-MEMORY EVENT BUS
// ══════════════════════════════════════════════════════════════════════════════

// EventBus routes domain events to subscribed handlers. Single-instance
// deployments run it synchronously; AsyncMode hands events to a bounded
// worker pool instead.
type EventBus struct {
	mu          sync.RWMutex
	handlers    map[shared.EventType][]shared.EventHandler
	allHandlers []shared.EventHandler
	asyncMode   bool
	workerPool  chan struct{}
	logger      *slog.Logger
	closed      bool
	wg          sync.WaitGroup

	published atomic.Int64
	failed    atomic.Int64
}

// Config contains configuration for the EventBus.
type Config struct {
	// AsyncMode enables asynchronous event processing.
	AsyncMode bool

	// WorkerPoolSize bounds concurrent handler executions in async mode.
	WorkerPoolSize int

	// Logger for structured logging.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		AsyncMode:      true,
		WorkerPoolSize: 10,
	}
}

// NewEventBus creates a new in-memory event bus.
func NewEventBus(config Config) *EventBus {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = 10
	}

	return &EventBus{
		handlers:   make(map[shared.EventType][]shared.EventHandler),
		asyncMode:  config.AsyncMode,
		workerPool: make(chan struct{}, config.WorkerPoolSize),
		logger:     config.Logger.With(slog.String("component", "eventbus")),
	}
}

// Register subscribes a handler to every event type it declares.
func (b *EventBus) Register(handler shared.EventHandler) error {
	if handler == nil {
		return ErrNilHandler
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}

	types := handler.EventTypes()
	if len(types) == 0 {
		b.allHandlers = append(b.allHandlers, handler)
		return nil
	}
	for _, eventType := range types {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
	}
	return nil
}

// Publish sends an event to all subscribed handlers. A failing handler
// is logged and skipped; delivery to the rest continues.
func (b *EventBus) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrEventBusClosed
	}
	handlers := make([]shared.EventHandler, 0, len(b.handlers[event.EventType()])+len(b.allHandlers))
	handlers = append(handlers, b.handlers[event.EventType()]...)
	handlers = append(handlers, b.allHandlers...)
	b.mu.RUnlock()

	b.published.Add(1)

	if len(handlers) == 0 {
		return nil
	}

	if !b.asyncMode {
		for _, handler := range handlers {
			b.dispatch(handler, event)
		}
		return nil
	}

	for _, handler := range handlers {
		handler := handler
		b.wg.Add(1)
		b.workerPool <- struct{}{}
		go func() {
			defer func() {
				<-b.workerPool
				b.wg.Done()
			}()
			b.dispatch(handler, event)
		}()
	}
	return nil
}

// dispatch runs one handler, containing panics and errors.
func (b *EventBus) dispatch(handler shared.EventHandler, event shared.Event) {
	defer func() {
		if r := recover(); r != nil {
			b.failed.Add(1)
			b.logger.Error("event handler panicked",
				slog.String("event_type", string(event.EventType())),
				slog.Any("panic", r))
		}
	}()

	if err := handler.Handle(event); err != nil {
		b.failed.Add(1)
		b.logger.Warn("event handler failed",
			slog.String("event_type", string(event.EventType())),
			slog.String("aggregate_id", event.AggregateID()),
			slog.String("error", err.Error()))
	}
}

// Stats returns publish/failure counters.
func (b *EventBus) Stats() (published, failed int64) {
	return b.published.Load(), b.failed.Load()
}

// Close drains in-flight async handlers and rejects further publishes.
func (b *EventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.wg.Wait()
}
