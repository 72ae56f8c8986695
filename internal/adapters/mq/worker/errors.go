package worker

import (
	"errors"
	"fmt"
)

// Sentinel kinds for pool errors.
var (
	ErrPoolStopped = errors.New("worker pool stopped")
	ErrQueueFull   = errors.New("worker queue full")
	ErrWorkerFault = errors.New("worker fault")
)

// WorkerFault reports a simulation that panicked. The worker recovers and
// keeps serving jobs.
type WorkerFault struct {
	IDGame int64
	Panic  any
	Stack  []byte
}

func (f *WorkerFault) Error() string {
	return fmt.Sprintf("game %d: worker fault: %v", f.IDGame, f.Panic)
}

// Is matches ErrWorkerFault.
func (f *WorkerFault) Is(target error) bool { return target == ErrWorkerFault }
