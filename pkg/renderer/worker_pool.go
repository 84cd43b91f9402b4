package renderer

import (
	"context"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"golang.org/x/sync/errgroup"
)

// WorkerFunc is the loop run by one worker. It should return once its work
// source is exhausted or ctx is cancelled.
type WorkerFunc func(ctx context.Context, worker int) error

// WorkerPool runs a fixed number of identical worker loops. There is no task
// queue: workers pull their own work from a shared iterator.
type WorkerPool struct {
	numWorkers int
}

// NewWorkerPool creates a pool with the specified number of workers; zero or
// less uses one worker per logical CPU
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = DefaultWorkerCount()
	}
	return &WorkerPool{numWorkers: numWorkers}
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// Run starts every worker and waits for all of them. The first worker error
// cancels the context seen by the others and is returned.
func (wp *WorkerPool) Run(ctx context.Context, fn WorkerFunc) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < wp.numWorkers; i++ {
		worker := i
		g.Go(func() error {
			return fn(ctx, worker)
		})
	}
	return g.Wait()
}

// DefaultWorkerCount returns the number of logical CPUs, at least 1
func DefaultWorkerCount() int {
	n, err := cpu.Counts(true)
	if err != nil || n < 1 {
		n = runtime.NumCPU()
	}
	return max(1, n)
}

// SystemInfo describes the machine for the render report
func SystemInfo() string {
	model := runtime.GOARCH
	if info, err := cpu.Info(); err == nil && len(info) > 0 && info[0].ModelName != "" {
		model = info[0].ModelName
	}
	desc := fmt.Sprintf("%s, %d threads", model, DefaultWorkerCount())
	if vm, err := mem.VirtualMemory(); err == nil {
		desc += fmt.Sprintf(", %d GB RAM", vm.Total/(1024*1024*1024))
	}
	return desc
}
