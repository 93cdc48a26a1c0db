package conflict

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/oisee/encdb/pkg/isa"
	"github.com/oisee/encdb/pkg/result"
)

// WorkerPool runs per-instruction checks in parallel.
type WorkerPool struct {
	NumWorkers int
	Results    *result.Table
	checked    atomic.Int64
	found      atomic.Int64
}

// NewWorkerPool creates a pool with the given number of workers.
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		NumWorkers: numWorkers,
		Results:    result.NewTable(),
	}
}

// Stats returns the number of instructions checked and findings recorded.
func (wp *WorkerPool) Stats() (checked, found int64) {
	return wp.checked.Load(), wp.found.Load()
}

// Run distributes ids across workers, calling check for each and adding
// what it returns to Results. The first error stops the remaining work and
// is returned.
func (wp *WorkerPool) Run(ctx context.Context, ids []isa.ID, check func(isa.ID) ([]result.Finding, error)) error {
	ch := make(chan isa.ID, len(ids))
	for _, id := range ids {
		ch <- id
	}
	close(ch)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < wp.NumWorkers; i++ {
		g.Go(func() error {
			for id := range ch {
				if err := ctx.Err(); err != nil {
					return err
				}
				findings, err := check(id)
				if err != nil {
					return err
				}
				wp.checked.Add(1)
				for _, f := range findings {
					wp.found.Add(1)
					wp.Results.Add(f)
				}
			}
			return nil
		})
	}
	return g.Wait()
}
