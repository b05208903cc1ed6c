package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-timedqueue/pkg/datastructs/queue"
	"github.com/huynhanx03/go-timedqueue/pkg/harness/latency"
	"github.com/huynhanx03/go-timedqueue/pkg/settings"
)

func newLatencyCmd(a *app) *cobra.Command {
	var capacity, passes int

	cmd := &cobra.Command{
		Use:   "latency",
		Short: "Measure time spent in the queue between one producer and one consumer",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("capacity") {
				a.cfg.Latency.Capacity = capacity
			}
			if cmd.Flags().Changed("passes") {
				a.cfg.Latency.Passes = passes
			}
			if err := settings.Validate(a.cfg); err != nil {
				return err
			}
			return runLatency(cmd.Context(), a.cfg.Latency, a.log)
		},
	}

	cmd.Flags().IntVar(&capacity, "capacity", 0, "override latency.capacity")
	cmd.Flags().IntVar(&passes, "passes", 0, "override latency.passes")
	return cmd
}

func runLatency(ctx context.Context, cfg settings.Latency, log *zap.Logger) error {
	// a private queue: the measurement assumes nobody else touches it
	q, err := queue.New[int64](cfg.Capacity)
	if err != nil {
		return err
	}

	log.Info("latency measurement started", zap.Int("capacity", cfg.Capacity), zap.Int("passes", cfg.Passes))
	stats, err := latency.Measure(ctx, q, cfg.Passes)
	if err != nil {
		return err
	}

	log.Info("latency measurement finished",
		zap.Int("count", stats.Count),
		zap.Duration("min", stats.Min),
		zap.Duration("max", stats.Max),
		zap.Duration("mean", stats.Mean),
		zap.Duration("median", stats.Median),
		zap.Duration("p99", stats.P99))

	fmt.Printf("count=%d min=%s max=%s mean=%s median=%s p99=%s\n",
		stats.Count, stats.Min, stats.Max, stats.Mean, stats.Median, stats.P99)
	return nil
}
