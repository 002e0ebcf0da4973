// Package worker runs independent jobs on a bounded pool of goroutines.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/wrestlerank/pkg/logger"
	"github.com/okian/wrestlerank/pkg/metrics"
)

// Task is one unit of work. Tasks must not share mutable state.
type Task func(ctx context.Context) error

// Pool executes tasks with bounded parallelism. The first failing task
// cancels the context handed to the others.
type Pool struct {
	size   int
	name   string
	logger logger.Logger
}

// NewPool creates a pool sized to the CPU count unless overridden.
func NewPool(opts ...Option) *Pool {
	p := &Pool{
		size:   runtime.NumCPU(),
		name:   "worker-pool",
		logger: logger.Get(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named(p.name)
	return p
}

// Size returns the parallelism bound.
func (p *Pool) Size() int { return p.size }

// Run executes every task and waits for all of them.
func (p *Pool) Run(ctx context.Context, tasks []Task) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.size)

	for i, task := range tasks {
		g.Go(func() error {
			return p.exec(gctx, i, task)
		})
	}
	return g.Wait()
}

func (p *Pool) exec(ctx context.Context, i int, task Task) error {
	metrics.AddWorkerActive(1)
	start := time.Now()
	defer func() {
		metrics.AddWorkerActive(-1)
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := task(ctx); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "task_error")
		p.logger.Error(ctx, "task failed", logger.Int("task", i), logger.Error(err))
		return fmt.Errorf("task %d: %w", i, err)
	}
	return nil
}

// Map runs fn for every index in [0, n) on pool and returns the results in
// index order once all calls have finished.
func Map[T any](ctx context.Context, pool *Pool, n int, fn func(ctx context.Context, i int) (T, error)) ([]T, error) {
	out := make([]T, n)
	tasks := make([]Task, n)
	for i := 0; i < n; i++ {
		tasks[i] = func(ctx context.Context) error {
			v, err := fn(ctx, i)
			if err != nil {
				return err
			}
			out[i] = v
			return nil
		}
	}
	if err := pool.Run(ctx, tasks); err != nil {
		return nil, err
	}
	return out, nil
}
