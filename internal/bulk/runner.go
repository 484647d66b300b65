// Package bulk executes one operation across many entities with per-entity
// failure isolation: one bad id never aborts the batch, and every failure is
// reported in the aggregate result.
package bulk

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"provena/pkg/domain"
)

// DefaultConcurrency bounds parallel entity operations per batch.
const DefaultConcurrency = 8

// IDError is one failed entity within a batch.
type IDError struct {
	EntityID domain.EntityID `json:"entityId"`
	Message  string          `json:"message"`
}

// Result aggregates a batch run.
type Result struct {
	TotalProcessed int       `json:"totalProcessed"`
	SuccessCount   int       `json:"successCount"`
	FailureCount   int       `json:"failureCount"`
	Errors         []IDError `json:"errors,omitempty"`
}

// Runner fans one operation out over a list of entity ids.
type Runner struct {
	concurrency int
}

func NewRunner(concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Runner{concurrency: concurrency}
}

// Run applies op to every id with bounded concurrency. Failures are captured
// per id; op errors never cancel the remaining entities. The error order in
// the result follows completion order, not input order.
func (r *Runner) Run(ctx context.Context, ids []domain.EntityID, op func(ctx context.Context, entityID domain.EntityID) error) *Result {
	result := &Result{TotalProcessed: len(ids)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for _, entityID := range ids {
		g.Go(func() error {
			err := op(ctx, entityID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.FailureCount++
				result.Errors = append(result.Errors, IDError{
					EntityID: entityID,
					Message:  err.Error(),
				})
				return nil
			}
			result.SuccessCount++
			return nil
		})
	}

	// Closures always return nil, so Wait cannot fail.
	_ = g.Wait()
	return result
}
