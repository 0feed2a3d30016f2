package calc

import (
	"context"
	"sort"
	"sync"
)

// CalculateBatch calculates requests one after the other. A failing request
// does not abort the batch. Results are in the order of the requests.
func (c *Calculator) CalculateBatch(ctx context.Context, requests []Request) []Result {
	results := make([]Result, len(requests))
	for i, req := range requests {
		results[i] = c.Calculate(ctx, req)
	}
	return results
}

// CalculateParallel calculates requests on a pool of workers, the size of
// which is configured by execution.workers. Requests with higher priority are
// dispatched first. Every request is subject to its own timeout; failures,
// including timeouts, affect the failing request only. Results are in the
// order of the requests.
func (c *Calculator) CalculateParallel(ctx context.Context, requests []Request) []Result {
	if ctx == nil {
		ctx = context.Background()
	}
	results := make([]Result, len(requests))
	if len(requests) == 0 {
		return results
	}
	workers := c.cfg.Execution.Workers
	if workers > len(requests) {
		workers = len(requests)
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.Calculate(ctx, requests[i])
			}
		}()
	}
	for _, i := range dispatchOrder(requests) {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	tracer().Debugf("calculated %d requests with %d workers", len(requests), workers)
	return results
}

// dispatchOrder returns the indices of requests by descending priority.
// Requests of equal priority keep their order.
func dispatchOrder(requests []Request) []int {
	order := make([]int, len(requests))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return requests[order[a]].options().Priority > requests[order[b]].options().Priority
	})
	return order
}
