package guard

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// BatchResult pairs one query with its run outcome.
type BatchResult struct {
	Index   int
	Query   string
	Outcome *Outcome
	Err     error
}

// RunBatch executes one run per query with bounded concurrency.
// Per-query failures land in their BatchResult; RunBatch itself fails
// only when the context is cancelled. concurrency <= 0 means one run
// per query simultaneously.
func (g *Guard) RunBatch(ctx context.Context, queries []string, concurrency int) ([]BatchResult, error) {
	results := make([]BatchResult, len(queries))

	eg, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	for i, query := range queries {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = BatchResult{Index: i, Query: query, Err: err}
				return err
			}

			outcome, err := g.Run(ctx, query)
			results[i] = BatchResult{Index: i, Query: query, Outcome: outcome, Err: err}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
