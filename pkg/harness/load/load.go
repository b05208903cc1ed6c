// Package load drives a queue with concurrent producers and consumers and
// checks that every pushed value is popped exactly once.
//
// Conservation is verified with an order-independent XOR fold over the
// values on each side, so the check holds whatever the interleaving.
package load

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huynhanx03/go-timedqueue/pkg/datastructs/queue"
	"github.com/huynhanx03/go-timedqueue/pkg/runtime"
)

// Mode selects which queue operations the workers use.
type Mode string

const (
	// ModeBlocking uses Insert and Remove. It cannot be cancelled mid-run.
	ModeBlocking Mode = "blocking"
	// ModeTimed uses TryInsert and TryRemove, retrying the same value after a miss.
	ModeTimed Mode = "timed"
)

// ErrInvalidOptions is returned by NewRunner for unusable options.
var ErrInvalidOptions = errors.New("load: invalid options")

// Options configures a Runner.
type Options struct {
	Mode             Mode
	Producers        int
	Consumers        int
	ItemsPerProducer int
	InsertTimeout    time.Duration
	RemoveTimeout    time.Duration

	// ReportInterval enables periodic progress logs when positive.
	ReportInterval time.Duration
	Logger         *zap.Logger
}

// Report summarises a run. During a run only the counters are live;
// the checksums are filled in when workers finish.
type Report struct {
	Pushed     uint64        `json:"pushed"`
	Popped     uint64        `json:"popped"`
	PushMisses uint64        `json:"push_misses"`
	PopMisses  uint64        `json:"pop_misses"`
	PushedXOR  uint64        `json:"pushed_xor"`
	PoppedXOR  uint64        `json:"popped_xor"`
	Elapsed    time.Duration `json:"elapsed"`
}

// Balanced reports whether everything pushed was popped exactly once.
func (r Report) Balanced() bool {
	return r.Pushed == r.Popped && r.PushedXOR == r.PoppedXOR
}

// Runner runs one load test against a queue.
type Runner struct {
	q    queue.Queue[uint64]
	opts Options
	log  *zap.Logger

	pushed, popped        atomic.Uint64
	pushMisses, popMisses atomic.Uint64
	claimed               atomic.Int64 // removal tickets handed to consumers

	mu                   sync.Mutex
	pushedXOR, poppedXOR uint64
	started              time.Time
	elapsed              time.Duration
}

// NewRunner validates opts and returns a Runner for q.
func NewRunner(q queue.Queue[uint64], opts Options) (*Runner, error) {
	switch {
	case q == nil:
		return nil, errors.Wrap(ErrInvalidOptions, "nil queue")
	case opts.Mode != ModeBlocking && opts.Mode != ModeTimed:
		return nil, errors.Wrapf(ErrInvalidOptions, "mode %q", opts.Mode)
	case opts.Producers <= 0 || opts.Consumers <= 0:
		return nil, errors.Wrapf(ErrInvalidOptions, "producers %d consumers %d", opts.Producers, opts.Consumers)
	case opts.ItemsPerProducer <= 0:
		return nil, errors.Wrapf(ErrInvalidOptions, "items per producer %d", opts.ItemsPerProducer)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{q: q, opts: opts, log: log.Named("load")}, nil
}

// Run starts the workers and waits for them. In timed mode a cancelled ctx
// stops the workers between attempts and Run returns the context error along
// with the partial report. A Runner must not be Run twice.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	total := int64(r.opts.Producers) * int64(r.opts.ItemsPerProducer)

	r.mu.Lock()
	r.started = time.Now()
	r.mu.Unlock()

	r.log.Info("load test started",
		zap.String("mode", string(r.opts.Mode)),
		zap.Int("producers", r.opts.Producers),
		zap.Int("consumers", r.opts.Consumers),
		zap.Int64("items", total),
		zap.Int("capacity", r.q.Cap()))

	g, gctx := errgroup.WithContext(ctx)
	for p := 0; p < r.opts.Producers; p++ {
		g.Go(func() error { return r.produce(gctx) })
	}
	for c := 0; c < r.opts.Consumers; c++ {
		g.Go(func() error { return r.consume(gctx, total) })
	}

	stop := make(chan struct{})
	var progress sync.WaitGroup
	if r.opts.ReportInterval > 0 {
		progress.Add(1)
		go func() {
			defer progress.Done()
			r.logProgress(stop)
		}()
	}

	err := g.Wait()
	close(stop)
	progress.Wait()

	r.mu.Lock()
	r.elapsed = time.Since(r.started)
	r.mu.Unlock()

	report := r.Stats()
	if err != nil {
		r.log.Warn("load test interrupted", zap.Error(err), zap.Uint64("pushed", report.Pushed), zap.Uint64("popped", report.Popped))
		return report, errors.Wrap(err, "load test")
	}

	fields := []zap.Field{
		zap.Uint64("pushed", report.Pushed),
		zap.Uint64("popped", report.Popped),
		zap.Uint64("push_misses", report.PushMisses),
		zap.Uint64("pop_misses", report.PopMisses),
		zap.Duration("elapsed", report.Elapsed),
	}
	if report.Balanced() {
		r.log.Info("load test finished", fields...)
	} else {
		r.log.Error("load test checksum mismatch", append(fields,
			zap.Uint64("pushed_xor", report.PushedXOR),
			zap.Uint64("popped_xor", report.PoppedXOR))...)
	}
	return report, nil
}

// Stats returns a snapshot of the run so far. Safe to call concurrently with Run.
func (r *Runner) Stats() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	elapsed := r.elapsed
	if elapsed == 0 && !r.started.IsZero() {
		elapsed = time.Since(r.started)
	}
	return Report{
		Pushed:     r.pushed.Load(),
		Popped:     r.popped.Load(),
		PushMisses: r.pushMisses.Load(),
		PopMisses:  r.popMisses.Load(),
		PushedXOR:  r.pushedXOR,
		PoppedXOR:  r.poppedXOR,
		Elapsed:    elapsed,
	}
}

func (r *Runner) produce(ctx context.Context) error {
	var sum uint64
	defer r.foldPushed(&sum)

	for i := 0; i < r.opts.ItemsPerProducer; i++ {
		v := runtime.Uint64()
		if r.opts.Mode == ModeBlocking {
			r.q.Insert(v)
		} else {
			for !r.q.TryInsert(v, r.opts.InsertTimeout) {
				r.pushMisses.Add(1)
				if err := ctx.Err(); err != nil {
					return err
				}
			}
		}
		sum ^= v
		r.pushed.Add(1)
	}
	return nil
}

func (r *Runner) consume(ctx context.Context, total int64) error {
	var sum uint64
	defer r.foldPopped(&sum)

	for r.claimed.Add(1) <= total {
		var v uint64
		if r.opts.Mode == ModeBlocking {
			v = r.q.Remove()
		} else {
			var ok bool
			v, ok = r.q.TryRemove(r.opts.RemoveTimeout)
			for !ok {
				r.popMisses.Add(1)
				if err := ctx.Err(); err != nil {
					return err
				}
				v, ok = r.q.TryRemove(r.opts.RemoveTimeout)
			}
		}
		sum ^= v
		r.popped.Add(1)
	}
	return nil
}

func (r *Runner) foldPushed(sum *uint64) {
	r.mu.Lock()
	r.pushedXOR ^= *sum
	r.mu.Unlock()
}

func (r *Runner) foldPopped(sum *uint64) {
	r.mu.Lock()
	r.poppedXOR ^= *sum
	r.mu.Unlock()
}

func (r *Runner) logProgress(stop <-chan struct{}) {
	ticker := time.NewTicker(r.opts.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.log.Info("load test progress",
				zap.Int("count", r.q.Count()),
				zap.Uint64("pushed", r.pushed.Load()),
				zap.Uint64("popped", r.popped.Load()),
				zap.Uint64("push_misses", r.pushMisses.Load()),
				zap.Uint64("pop_misses", r.popMisses.Load()))
		}
	}
}
