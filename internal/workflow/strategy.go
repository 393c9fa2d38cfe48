package workflow

import (
	"context"

	"github.com/alitto/pond/v2"
)

// Strategy is the concurrency policy the validator and the bulk executor run
// under. Both phases fan one task per identifier through it and join before
// moving on; tasks for distinct identifiers must be safe to run in any order.
type Strategy interface {
	Run(ctx context.Context, n int, task func(ctx context.Context, i int))
}

// PoolStrategy runs tasks on a bounded pond pool.
type PoolStrategy struct {
	Workers int
}

// MaxWorkers caps in-flight az operations per phase.
const MaxWorkers = 10

func (s PoolStrategy) Run(ctx context.Context, n int, task func(ctx context.Context, i int)) {
	workers := s.Workers
	if workers <= 0 {
		workers = MaxWorkers
	}

	pool := pond.NewPool(workers)
	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i := 0; i < n; i++ {
		i := i
		group.Submit(func() {
			// a cancelled context stops new work; in-flight tasks drain
			if groupCtx.Err() != nil {
				return
			}
			task(groupCtx, i)
		})
	}

	// tasks record their own outcomes; Wait only surfaces the context error
	// when a drain was cut short
	_ = group.Wait()
	pool.StopAndWait()
}

// SerialStrategy runs tasks one at a time, for operators who want the
// original sequential behavior (or deterministic debugging).
type SerialStrategy struct{}

func (SerialStrategy) Run(ctx context.Context, n int, task func(ctx context.Context, i int)) {
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			return
		}
		task(ctx, i)
	}
}
