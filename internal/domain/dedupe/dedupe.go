// Package dedupe tracks claimed ids so each one is processed at most once
// while it is in flight.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records claimed ids to ensure at-most-once processing.
type Deduper[K comparable] interface {
	// SeenAndRecord atomically checks if id is claimed and claims it if not.
	// Returns true if id was already claimed, false if it was newly claimed.
	SeenAndRecord(ctx context.Context, id K) bool

	// Unrecord releases a claim so the id can be claimed again.
	Unrecord(ctx context.Context, id K)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map. Claims are never evicted:
// an in-flight id stays claimed until it is released.
type inMemoryDeduper[K comparable] struct {
	mu   sync.Mutex
	seen map[K]struct{}
	size atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper[K comparable]() Deduper[K] {
	return &inMemoryDeduper[K]{seen: make(map[K]struct{})}
}

func (d *inMemoryDeduper[K]) SeenAndRecord(_ context.Context, id K) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}
	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper[K]) Unrecord(_ context.Context, id K) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// Size returns the current number of claims.
func (d *inMemoryDeduper[K]) Size() int64 {
	return d.size.Load()
}
