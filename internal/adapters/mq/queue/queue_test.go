package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type job struct {
	id int64
}

func TestInMemoryQueue_BasicOperations(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(2))
	ctx := context.Background()

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}

	if err := q.Enqueue(ctx, job{id: 1}); err != nil {
		t.Errorf("expected enqueue to succeed, got %v", err)
	}

	if l := q.Len(ctx); l != 1 {
		t.Errorf("expected length 1, got %d", l)
	}

	got := <-q.Dequeue(ctx)
	if got.id != 1 {
		t.Errorf("expected job 1, got %d", got.id)
	}

	if l := q.Len(ctx); l != 0 {
		t.Errorf("expected length 0, got %d", l)
	}
	if c := q.Capacity(); c != 2 {
		t.Errorf("expected capacity 2, got %d", c)
	}
}

func TestInMemoryQueue_Capacity(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(2))
	ctx := context.Background()

	for i := int64(1); i <= 2; i++ {
		if err := q.Enqueue(ctx, job{id: i}); err != nil {
			t.Fatalf("expected enqueue %d to succeed, got %v", i, err)
		}
	}

	if err := q.Enqueue(ctx, job{id: 3}); !errors.Is(err, ErrFull) {
		t.Errorf("expected ErrFull, got %v", err)
	}

	if l := q.Len(ctx); l != 2 {
		t.Errorf("expected length 2, got %d", l)
	}
}

func TestInMemoryQueue_CancelledContext(t *testing.T) {
	q := NewInMemoryQueue[job]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := q.Enqueue(ctx, job{id: 1}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInMemoryQueue_ConcurrentAccess(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(100))
	ctx := context.Background()
	numProducers := 10
	numJobs := 100

	var wg sync.WaitGroup
	for i := 0; i < numProducers; i++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for j := 0; j < numJobs; j++ {
				for q.Enqueue(ctx, job{id: int64(p*numJobs + j)}) != nil {
					time.Sleep(time.Millisecond)
				}
			}
		}(i)
	}

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var consumers sync.WaitGroup
	for i := 0; i < 4; i++ {
		consumers.Add(1)
		go func() {
			defer consumers.Done()
			for j := range q.Dequeue(ctx) {
				mu.Lock()
				if seen[j.id] {
					t.Errorf("job %d delivered twice", j.id)
				}
				seen[j.id] = true
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	consumers.Wait()

	if len(seen) != numProducers*numJobs {
		t.Errorf("expected %d jobs, got %d", numProducers*numJobs, len(seen))
	}
}

func TestInMemoryQueue_GracefulShutdown(t *testing.T) {
	q := NewInMemoryQueue[job](WithCapacity(10))
	ctx := context.Background()

	if err := q.Enqueue(ctx, job{id: 1}); err != nil {
		t.Fatalf("expected enqueue to succeed, got %v", err)
	}

	if q.IsClosed() {
		t.Error("expected queue to be open initially")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected close to succeed, got error: %v", err)
	}

	if !q.IsClosed() {
		t.Error("expected queue to be closed after Close()")
	}

	if err := q.Enqueue(ctx, job{id: 2}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}

	// queued items stay readable after close
	ch := q.Dequeue(ctx)
	if j, ok := <-ch; !ok || j.id != 1 {
		t.Errorf("expected queued job 1, got %v (open=%v)", j.id, ok)
	}
	if _, ok := <-ch; ok {
		t.Error("expected dequeue channel to be closed once drained")
	}

	if err := q.Close(); err != nil {
		t.Errorf("expected second close to succeed, got error: %v", err)
	}
}
