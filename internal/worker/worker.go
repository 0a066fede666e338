// Package worker runs a function over a slice of inputs with bounded
// concurrency and an optional global rate limit.
package worker

import (
	"context"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

type Options struct {
	// Workers caps concurrent calls. Values <= 0 mean 4.
	Workers int

	// RateLimitRPS is a global limit across all workers. Set to <=0 to disable.
	RateLimitRPS float64
}

func (o Options) withDefaults() Options {
	if o.Workers <= 0 {
		o.Workers = 4
	}
	return o
}

// Result holds the output for one input item.
type Result[In any, Out any] struct {
	Input  In
	Output Out
}

// ProcessAll runs processor over every item and returns the outputs in input
// order. Each item is attempted exactly once.
//
// The first error cancels the remaining work and is returned with no outputs.
func ProcessAll[In any, Out any](
	ctx context.Context,
	items []In,
	processor func(context.Context, In) (Out, error),
	opts Options,
) ([]Result[In, Out], error) {
	opts = opts.withDefaults()
	if len(items) == 0 {
		return nil, ctx.Err()
	}

	var limiter *rate.Limiter
	if opts.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimitRPS), 1)
	}

	out := make([]Result[In, Out], len(items))

	type job struct {
		idx int
		in  In
	}
	jobs := make(chan job)

	g, runCtx := errgroup.WithContext(ctx)
	workers := min(opts.Workers, len(items))
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for j := range jobs {
				if limiter != nil {
					if err := limiter.Wait(runCtx); err != nil {
						return err
					}
				}
				res, err := processor(runCtx, j.in)
				if err != nil {
					return err
				}
				out[j.idx] = Result[In, Out]{Input: j.in, Output: res}
			}
			return nil
		})
	}

feed:
	for i, item := range items {
		select {
		case jobs <- job{idx: i, in: item}:
		case <-runCtx.Done():
			break feed
		}
	}
	close(jobs)

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
