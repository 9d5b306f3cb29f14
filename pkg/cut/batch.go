package cut

import (
	"context"
	"runtime"
	"sync"
	"time"
)

// BatchResult holds the outcome of one request of a batch
type BatchResult struct {
	Index    int
	Name     string
	Result   *Result
	Err      error
	Duration time.Duration
}

// RunBatch runs independent requests on a worker pool and returns their
// results in request order. workers <= 0 uses one worker per CPU.
func RunBatch(ctx context.Context, p *Pipeline, requests []Request, workers int) []BatchResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(requests) {
		workers = len(requests)
	}
	results := make([]BatchResult, len(requests))

	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				start := time.Now()
				req := requests[idx]
				res, err := p.Run(ctx, req)
				results[idx] = BatchResult{
					Index:    idx,
					Name:     req.Name,
					Result:   res,
					Err:      err,
					Duration: time.Since(start),
				}
			}
		}()
	}

	for i := range requests {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return results
}
