package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
)

var errWorkerPanicked = errors.New("generation worker panicked")

type BatchResult struct {
	Request Request
	Result  *Result
	Err     error
}

// Batch runs independent requests on a bounded worker pool. Results keep
// the order of reqs.
func (pipeline *Pipeline) Batch(ctx context.Context, reqs []Request, workers int) ([]BatchResult, error) {
	if workers <= 0 {
		workers = 1
	}

	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		slog.Error("Generation worker panicked", "panic", v)
	}))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]BatchResult, len(reqs))
	var wg sync.WaitGroup

	for i, req := range reqs {
		results[i] = BatchResult{Request: req, Err: errWorkerPanicked}

		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			res, err := pipeline.Generate(ctx, req)
			results[i] = BatchResult{Request: req, Result: res, Err: err}
		})
		if err != nil {
			wg.Done()
			results[i].Err = fmt.Errorf("submit %q: %w", req.Topic, err)
		}
	}

	wg.Wait()
	return results, nil
}
