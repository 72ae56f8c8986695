// Package queue defines the contract for enqueuing and consuming simulation
// jobs.
//
// The in-memory implementation is a bounded channel; Enqueue never blocks.
package queue

import (
	"context"
	"sync"

	"github.com/okian/diamond/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue[T any] interface {
	// Enqueue adds an item to the queue.
	// It returns ErrFull or ErrClosed instead of blocking.
	Enqueue(ctx context.Context, item T) error

	// Dequeue returns the channel items are delivered on.
	// The channel is closed when the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan T

	// Len returns the current number of queued items.
	Len(ctx context.Context) int

	// Close stops accepting items. Items already queued stay readable.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue[T any] struct {
	items    chan T
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue[T any](opts ...Option) *InMemoryQueue[T] {
	s := settings{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(&s)
	}

	q := &InMemoryQueue[T]{
		items:    make(chan T, s.capacity),
		capacity: s.capacity,
	}

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Enqueue adds an item to the queue.
func (q *InMemoryQueue[T]) Enqueue(ctx context.Context, item T) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return err
	}

	select {
	case q.items <- item:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items))
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns the queue's delivery channel. Consumers share it, so each
// item goes to exactly one of them.
func (q *InMemoryQueue[T]) Dequeue(_ context.Context) <-chan T {
	return q.items
}

// Len returns the current number of queued items.
func (q *InMemoryQueue[T]) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Capacity returns the configured capacity.
func (q *InMemoryQueue[T]) Capacity() int {
	return q.capacity
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue[T]) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}

	close(q.items)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue[T]) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
