// Package worker runs game simulations on a bounded pool of goroutines.
//
// Workers read jobs off a shared queue, simulate each one in isolation and
// answer on the job's own reply channel. A panic inside a simulation is
// recovered and reported as a *WorkerFault for that game only.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/okian/diamond/internal/adapters/mq/queue"
	"github.com/okian/diamond/internal/domain/model"
	"github.com/okian/diamond/internal/domain/random"
	"github.com/okian/diamond/pkg/logger"
	"github.com/okian/diamond/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultQueueCapacity  = 1024
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Simulator plays one game. Implementations must not touch shared state.
type Simulator interface {
	Simulate(pkg model.GamePackage, src random.Source) (model.GameResult, error)
}

// SimulatorFunc adapts a function to Simulator.
type SimulatorFunc func(pkg model.GamePackage, src random.Source) (model.GameResult, error)

// Simulate calls f.
func (f SimulatorFunc) Simulate(pkg model.GamePackage, src random.Source) (model.GameResult, error) {
	return f(pkg, src)
}

// Job is one game waiting for a worker.
type Job struct {
	Package model.GamePackage
	Seed    uint64
	reply   chan<- Outcome
}

// Outcome is a worker's answer for one job. Exactly one of Result and Err
// is set.
type Outcome struct {
	IDGame  int64
	Result  *model.GameResult
	Err     error
	Elapsed time.Duration
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until told to stop.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for simulation jobs.
type InMemoryWorker struct {
	queue Queue
	sim   Simulator
	name  string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, sim Simulator, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		sim:      sim,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			job.reply <- w.process(ctx, job)
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process simulates one job. It never panics.
func (w *InMemoryWorker) process(ctx context.Context, job Job) (out Outcome) {
	start := time.Now()
	out.IDGame = job.Package.IDGame

	metrics.IncWorkerBusy()
	defer func() {
		metrics.DecWorkerBusy()
		out.Elapsed = time.Since(start)
		metrics.RecordSimulationLatency(float64(out.Elapsed.Microseconds()) / 1000)
	}()

	defer func() {
		if r := recover(); r != nil {
			fault := &WorkerFault{IDGame: job.Package.IDGame, Panic: r, Stack: debug.Stack()}
			metrics.RecordWorkerFault()
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "simulation panicked",
				logger.GameID(job.Package.IDGame),
				logger.Any("panic", r),
				logger.String("stack", string(fault.Stack)),
			)
			out.Result = nil
			out.Err = fault
		}
	}()

	res, err := w.sim.Simulate(job.Package, random.NewSource(job.Seed))
	if err != nil {
		metrics.RecordErrorByComponent("worker", "simulation")
		w.logger.Warn(ctx, "simulation failed", logger.GameID(job.Package.IDGame), logger.Error(err))
		out.Err = err
		return out
	}
	out.Result = &res
	return out
}

// Pool manages a fixed set of workers sharing one bounded queue.
type Pool struct {
	workers       []*InMemoryWorker
	queue         *queue.InMemoryQueue[Job]
	queueCapacity int
	sim           Simulator

	mu      sync.Mutex
	started bool
	stopped bool

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers. A non-positive count uses
// one worker per CPU.
func NewPool(workerCount int, sim Simulator, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers:       make([]*InMemoryWorker, workerCount),
		queueCapacity: defaultQueueCapacity,
		sim:           sim,
		logger:        logger.Get().Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.queue = queue.NewInMemoryQueue[Job](queue.WithCapacity(p.queueCapacity))
	for i := 0; i < workerCount; i++ {
		p.workers[i] = NewInMemoryWorker(
			p.queue,
			sim,
			WithLogger(p.logger),
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Start starts all workers in the pool. Calling it twice is a no-op.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Submit queues one game. The package is deep-copied so the caller may
// reuse its value. The returned channel receives exactly one Outcome.
func (p *Pool) Submit(ctx context.Context, pkg model.GamePackage, seed uint64) (<-chan Outcome, error) {
	reply := make(chan Outcome, 1)
	err := p.queue.Enqueue(ctx, Job{Package: pkg.Clone(), Seed: seed, reply: reply})
	switch {
	case err == nil:
		return reply, nil
	case errors.Is(err, queue.ErrClosed):
		return nil, ErrPoolStopped
	case errors.Is(err, queue.ErrFull):
		return nil, ErrQueueFull
	default:
		return nil, err
	}
}

// Pending returns the number of queued jobs no worker has picked up yet.
func (p *Pool) Pending(ctx context.Context) int {
	return p.queue.Len(ctx)
}

// Stop signals every worker and waits briefly for them. Jobs still queued
// are answered with ErrPoolStopped.
func (p *Pool) Stop() {
	if !p.markStopped() {
		return
	}
	_ = p.queue.Close()

	for _, w := range p.workers {
		w.shutdownOnce.Do(func() { close(w.shutdown) })
	}
	if p.started {
		for _, w := range p.workers {
			select {
			case <-w.done:
			case <-time.After(workerShutdownTimeout):
			}
		}
	}
	p.drain()
}

// Shutdown closes the queue and lets workers finish what is already queued.
func (p *Pool) Shutdown(ctx context.Context) error {
	if !p.markStopped() {
		return nil
	}
	if err := p.queue.Close(); err != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(err))
	}
	if !p.started {
		p.drain()
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	p.drain()

	return nil
}

func (p *Pool) markStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopped {
		return false
	}
	p.stopped = true
	return true
}

// drain answers jobs no worker will run. The queue must be closed.
func (p *Pool) drain() {
	for job := range p.queue.Dequeue(context.Background()) {
		job.reply <- Outcome{IDGame: job.Package.IDGame, Err: ErrPoolStopped}
	}
}
