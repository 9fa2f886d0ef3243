package notify

import (
	"context"
	"log"
	"sync"
)

// Dispatcher delivers notifications to people
type Dispatcher interface {
	Send(ctx context.Context, e Event) error
}

// Attach subscribes d to the notification events on bus. Delivery failures
// are logged and otherwise ignored.
func Attach(bus *Bus, d Dispatcher, logger *log.Logger) func() {
	if logger == nil {
		logger = log.Default()
	}
	return bus.Subscribe(func(ctx context.Context, env Envelope) {
		if !IsNotification(env.Event) {
			return
		}
		if err := d.Send(ctx, env.Event); err != nil {
			logger.Printf("Failed to deliver %s notification: %v", env.Kind, err)
		}
	})
}

// LogDispatcher writes notifications to a logger
type LogDispatcher struct {
	Logger *log.Logger
}

// Send logs a one-line description of e
func (d LogDispatcher) Send(_ context.Context, e Event) error {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf("notify: %s", Describe(e))
	return nil
}

// AsyncDispatcher queues notifications for a background worker so slow
// transports never hold up the caller. When the queue is full the
// notification is dropped and logged.
type AsyncDispatcher struct {
	next   Dispatcher
	queue  chan Event
	logger *log.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

// NewAsyncDispatcher starts a worker delivering to next
func NewAsyncDispatcher(next Dispatcher, buffer int, logger *log.Logger) *AsyncDispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	if logger == nil {
		logger = log.Default()
	}
	d := &AsyncDispatcher{
		next:   next,
		queue:  make(chan Event, buffer),
		logger: logger,
	}
	d.wg.Add(1)
	go d.run()
	return d
}

func (d *AsyncDispatcher) run() {
	defer d.wg.Done()
	for e := range d.queue {
		if err := d.next.Send(context.Background(), e); err != nil {
			d.logger.Printf("Failed to deliver %s notification: %v", e.Kind(), err)
		}
	}
}

// Send enqueues e without blocking
func (d *AsyncDispatcher) Send(_ context.Context, e Event) error {
	select {
	case d.queue <- e:
	default:
		d.logger.Printf("Notification queue full, dropping %s", e.Kind())
	}
	return nil
}

// Close drains the queue and stops the worker
func (d *AsyncDispatcher) Close() {
	d.once.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// Recorder keeps every event it receives; used by tests and dry runs
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Send records e
func (r *Recorder) Send(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfKind returns the recorded events with kind k
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind() == k {
			out = append(out, e)
		}
	}
	return out
}
