package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Handler processes an event
type Handler func(Event)

// Bus distributes events to subscribed handlers. Handlers run
// synchronously on the emitting goroutine, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
	now      func() time.Time
}

// NewBus creates an event bus with no subscribers
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{logger: logger, now: time.Now}
}

// Subscribe adds a handler for all events
func (b *Bus) Subscribe(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

// Emit stamps the event with an ID and time, then delivers it. A panicking
// handler is logged and does not stop delivery to the others.
func (b *Bus) Emit(e Event) {
	if b == nil {
		return
	}
	if e.ID == "" {
		e.ID = ulid.Make().String()
	}
	if e.Time.IsZero() {
		e.Time = b.now()
	}

	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	copy(handlers, b.handlers)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(h, e)
	}
}

func (b *Bus) deliver(h Handler, e Event) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Warn("event handler panicked", "type", e.Type, "panic", rec)
		}
	}()
	h(e)
}
