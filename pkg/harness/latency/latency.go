// Package latency measures how long items spend in a queue between a
// producer stamping them and a consumer taking them out.
package latency

import (
	"context"
	"slices"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/huynhanx03/go-timedqueue/pkg/datastructs/queue"
	"github.com/huynhanx03/go-timedqueue/pkg/runtime"
)

// pollInterval bounds each wait so both sides notice cancellation.
const pollInterval = 100 * time.Millisecond

// Stats summarises observed delays.
type Stats struct {
	Count  int           `json:"count"`
	Min    time.Duration `json:"min"`
	Max    time.Duration `json:"max"`
	Mean   time.Duration `json:"mean"`
	Median time.Duration `json:"median"`
	P99    time.Duration `json:"p99"`
}

// Measure sends passes monotonic timestamps through q from one producer to
// one consumer and summarises the delay of each. q should be empty and not
// shared with other goroutines for the duration of the run.
func Measure(ctx context.Context, q queue.Queue[int64], passes int) (Stats, error) {
	if passes <= 0 {
		return Stats{}, errors.Errorf("latency: passes must be positive, got %d", passes)
	}

	delays := make([]time.Duration, 0, passes)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		for i := 0; i < passes; i++ {
			if err := gctx.Err(); err != nil {
				return err
			}
			for !q.TryInsert(runtime.NanoTime(), pollInterval) {
				if err := gctx.Err(); err != nil {
					return err
				}
			}
		}
		return nil
	})

	g.Go(func() error {
		for len(delays) < passes {
			stamp, ok := q.TryRemove(pollInterval)
			if !ok {
				if err := gctx.Err(); err != nil {
					return err
				}
				continue
			}
			delays = append(delays, runtime.Since(stamp))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summarize(delays), errors.Wrap(err, "latency")
	}
	return Summarize(delays), nil
}

// Summarize computes Stats over delays. delays is sorted in place.
func Summarize(delays []time.Duration) Stats {
	n := len(delays)
	if n == 0 {
		return Stats{}
	}
	slices.Sort(delays)

	var total time.Duration
	for _, d := range delays {
		total += d
	}

	median := delays[n/2]
	if n%2 == 0 {
		median = (delays[n/2-1] + delays[n/2]) / 2
	}

	p99 := (n*99 + 99) / 100 // ceil(0.99n), 1-based rank
	return Stats{
		Count:  n,
		Min:    delays[0],
		Max:    delays[n-1],
		Mean:   total / time.Duration(n),
		Median: median,
		P99:    delays[p99-1],
	}
}
