package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/desertthunder/rsx/internal/models"
	"github.com/desertthunder/rsx/internal/protocol"
	"github.com/desertthunder/rsx/internal/shared"
	"golang.org/x/time/rate"
)

const (
	DefaultWorkers = 4
	MaxWorkers     = 32
)

// LookupFunc performs one lookup. [client.Client.Lookup] satisfies it as a method value.
type LookupFunc func(ctx context.Context, req models.Request) (*protocol.Response, error)

// BatchOpts contains configuration for batch lookups.
type BatchOpts struct {
	Workers int     // Concurrent lookups (default: 4, max: 32)
	Rate    float64 // Lookups per second across all workers; zero means unlimited
}

// BatchResult is the outcome of one request in a batch.
type BatchResult struct {
	Index    int
	Request  models.Request
	Response *protocol.Response
	Err      error
	Duration time.Duration
}

// OK reports whether the lookup completed with an ok status.
func (r BatchResult) OK() bool {
	return r.Err == nil && r.Response != nil && r.Response.Status == protocol.StatusOK
}

// BatchRunResult collects every result of a batch, in input order, with outcome counts.
type BatchRunResult struct {
	Results   []BatchResult
	Succeeded int
	Failed    int
	ByStatus  map[protocol.Status]int
	Elapsed   time.Duration
}

func (o BatchOpts) withDefaults() BatchOpts {
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers > MaxWorkers {
		o.Workers = MaxWorkers
	}
	if o.Rate < 0 {
		o.Rate = 0
	}
	return o
}

// BatchLookup runs lookup for every request on a fixed set of workers under a shared rate limit.
//
// Per-request failures are recorded on their [BatchResult] and do not stop the batch. When ctx is
// cancelled, requests that never ran carry ctx's error and BatchLookup returns it alongside the
// partial result.
func BatchLookup(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	lookup LookupFunc,
	reqs []models.Request,
	opts BatchOpts,
) (*BatchRunResult, error) {
	if lookup == nil {
		return nil, fmt.Errorf("%w: lookup function is required", shared.ErrInvalidArgument)
	}
	opts = opts.withDefaults()

	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	limiter := rate.NewLimiter(limit, 1)

	start := time.Now()
	results := make([]BatchResult, len(reqs))
	ran := make([]bool, len(reqs))

	sendProgress(prog, loadedRequestsUpdate(len(reqs)))

	jobs := make(chan int)
	var completed atomic.Int64
	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = runLookup(ctx, limiter, lookup, i, reqs[i])
				ran[i] = true
				sendProgress(prog, lookupUpdate(int(completed.Add(1)), len(reqs), results[i]))
			}
		}()
	}

feed:
	for i := range reqs {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	run := &BatchRunResult{
		Results:  results,
		ByStatus: make(map[protocol.Status]int),
		Elapsed:  time.Since(start),
	}
	for i := range results {
		if !ran[i] {
			results[i] = BatchResult{Index: i, Request: reqs[i], Err: ctx.Err()}
		}
		res := results[i]
		if res.Response != nil {
			run.ByStatus[res.Response.Status]++
		}
		if res.OK() {
			run.Succeeded++
		} else {
			run.Failed++
		}
	}

	if err := ctx.Err(); err != nil {
		return run, err
	}
	return run, nil
}

// runLookup waits for the limiter and performs a single lookup.
func runLookup(ctx context.Context, limiter *rate.Limiter, lookup LookupFunc, i int, req models.Request) BatchResult {
	res := BatchResult{Index: i, Request: req}

	if err := limiter.Wait(ctx); err != nil {
		res.Err = err
		return res
	}

	start := time.Now()
	res.Response, res.Err = lookup(ctx, req)
	res.Duration = time.Since(start)
	return res
}
