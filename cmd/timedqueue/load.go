package main

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huynhanx03/go-timedqueue/pkg/harness/load"
	"github.com/huynhanx03/go-timedqueue/pkg/monitor"
	"github.com/huynhanx03/go-timedqueue/pkg/registry"
	"github.com/huynhanx03/go-timedqueue/pkg/settings"
)

var errUnbalanced = errors.New("pushed and popped values differ")

type loadFlags struct {
	capacity    int
	mode        string
	producers   int
	consumers   int
	items       int
	insertWait  time.Duration
	removeWait  time.Duration
	monitorPort int
}

func newLoadCmd(a *app) *cobra.Command {
	f := &loadFlags{}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Run producers and consumers over the shared queue and verify the XOR checksum",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f.apply(cmd, a.cfg)
			if err := settings.Validate(a.cfg); err != nil {
				return err
			}
			return runLoad(cmd.Context(), a.cfg, a.log)
		},
	}

	fs := cmd.Flags()
	fs.IntVar(&f.capacity, "capacity", 0, "override queue.capacity")
	fs.StringVar(&f.mode, "mode", "", "override load.mode (blocking|timed)")
	fs.IntVarP(&f.producers, "producers", "p", 0, "override load.producers")
	fs.IntVarP(&f.consumers, "consumers", "n", 0, "override load.consumers")
	fs.IntVar(&f.items, "items", 0, "override load.items_per_producer")
	fs.DurationVar(&f.insertWait, "insert-timeout", 0, "override load.insert_timeout")
	fs.DurationVar(&f.removeWait, "remove-timeout", 0, "override load.remove_timeout")
	fs.IntVar(&f.monitorPort, "monitor-port", 0, "override monitor.port (0 disables)")
	return cmd
}

func (f *loadFlags) apply(cmd *cobra.Command, cfg *settings.Config) {
	fs := cmd.Flags()
	if fs.Changed("capacity") {
		cfg.Queue.Capacity = f.capacity
	}
	if fs.Changed("mode") {
		cfg.Load.Mode = f.mode
	}
	if fs.Changed("producers") {
		cfg.Load.Producers = f.producers
	}
	if fs.Changed("consumers") {
		cfg.Load.Consumers = f.consumers
	}
	if fs.Changed("items") {
		cfg.Load.ItemsPerProducer = f.items
	}
	if fs.Changed("insert-timeout") {
		cfg.Load.InsertTimeout = f.insertWait
	}
	if fs.Changed("remove-timeout") {
		cfg.Load.RemoveTimeout = f.removeWait
	}
	if fs.Changed("monitor-port") {
		cfg.Monitor.Port = f.monitorPort
	}
}

func runLoad(ctx context.Context, cfg *settings.Config, log *zap.Logger) error {
	q, err := registry.Shared[uint64](cfg.Queue.Capacity)
	if err != nil {
		return err
	}

	runner, err := load.NewRunner(q, load.Options{
		Mode:             load.Mode(cfg.Load.Mode),
		Producers:        cfg.Load.Producers,
		Consumers:        cfg.Load.Consumers,
		ItemsPerProducer: cfg.Load.ItemsPerProducer,
		InsertTimeout:    cfg.Load.InsertTimeout,
		RemoveTimeout:    cfg.Load.RemoveTimeout,
		ReportInterval:   cfg.Load.ReportInterval,
		Logger:           log,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	monitorCtx, stopMonitor := context.WithCancel(gctx)
	defer stopMonitor()

	if cfg.Monitor.Port > 0 {
		srv := monitor.New(cfg.Monitor, q, func() any { return runner.Stats() }, log)
		// A blocking run cannot be interrupted, so a taken port must fail here.
		ln, err := srv.Listen()
		if err != nil {
			return err
		}
		g.Go(func() error { return srv.Serve(monitorCtx, ln) })
	}

	var report load.Report
	g.Go(func() error {
		defer stopMonitor()
		var err error
		report, err = runner.Run(gctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	fmt.Printf("pushed=%d popped=%d push_misses=%d pop_misses=%d elapsed=%s\n",
		report.Pushed, report.Popped, report.PushMisses, report.PopMisses, report.Elapsed)
	if !report.Balanced() {
		return errors.Wrapf(errUnbalanced, "xor %#x != %#x", report.PushedXOR, report.PoppedXOR)
	}
	return nil
}
