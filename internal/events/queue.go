package events

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrQueueFull is reported when an event is dropped because the backlog is full.
var ErrQueueFull = errors.New("event queue full")

// QueueConfig tunes a Queue. Zero values take the defaults below.
type QueueConfig struct {
	Size    int
	Timeout time.Duration
	// OnError is called from the worker for every event that could not be
	// delivered, and from Publish for events dropped on a full queue.
	OnError func(e Event, err error)
}

const (
	defaultQueueSize    = 256
	defaultQueueTimeout = 5 * time.Second
)

// Queue delivers events to another Publisher from a single background
// worker, so Publish never waits on the broker. Events keep their publish
// order.
type Queue struct {
	next    Publisher
	timeout time.Duration
	onError func(Event, error)

	mu     sync.RWMutex
	closed bool
	ch     chan Event
	done   chan struct{}
	once   sync.Once
}

func NewQueue(next Publisher, cfg QueueConfig) *Queue {
	if cfg.Size <= 0 {
		cfg.Size = defaultQueueSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultQueueTimeout
	}
	if cfg.OnError == nil {
		cfg.OnError = func(Event, error) {}
	}
	q := &Queue{
		next:    next,
		timeout: cfg.Timeout,
		onError: cfg.OnError,
		ch:      make(chan Event, cfg.Size),
		done:    make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *Queue) run() {
	defer close(q.done)
	for e := range q.ch {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := q.next.Publish(ctx, e); err != nil {
			q.onError(e, err)
		}
		cancel()
	}
}

// Publish enqueues e and returns at once. It reports ErrQueueFull when the
// backlog is full and the event was dropped.
func (q *Queue) Publish(_ context.Context, e Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return errors.New("event queue closed")
	}
	select {
	case q.ch <- e:
		return nil
	default:
		q.onError(e, ErrQueueFull)
		return ErrQueueFull
	}
}

// Close stops accepting events, waits for the backlog to drain and closes
// the wrapped publisher.
func (q *Queue) Close() error {
	var err error
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
		<-q.done
		err = q.next.Close()
	})
	return err
}
