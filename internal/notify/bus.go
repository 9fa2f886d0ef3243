package notify

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Envelope wraps a published event with its identity
type Envelope struct {
	ID    string    `json:"id"`
	At    time.Time `json:"at"`
	Kind  Kind      `json:"kind"`
	Event Event     `json:"event"`
}

// Handler receives published events
type Handler func(ctx context.Context, env Envelope)

// Bus is an in-process publish/subscribe hub. Handlers run synchronously
// in subscription order; a panicking handler is logged and skipped.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]Handler
	order  []int
	nextID int
	logger *log.Logger
	now    func() time.Time
}

// NewBus creates an empty bus
func NewBus(logger *log.Logger) *Bus {
	if logger == nil {
		logger = log.Default()
	}
	return &Bus{
		subs:   make(map[int]Handler),
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers h and returns a function that removes it
func (b *Bus) Subscribe(h Handler) func() {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
		for i, v := range b.order {
			if v == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers e to every subscriber
func (b *Bus) Publish(ctx context.Context, e Event) {
	env := Envelope{
		ID:    uuid.NewString(),
		At:    b.now(),
		Kind:  e.Kind(),
		Event: e,
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		handlers = append(handlers, b.subs[id])
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		b.deliver(ctx, h, env)
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, env Envelope) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			b.logger.Printf("Panic in %s subscriber: %v\n%s", env.Kind, r, string(buf[:n]))
		}
	}()
	h(ctx, env)
}
