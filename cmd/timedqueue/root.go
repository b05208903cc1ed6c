package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-timedqueue/pkg/logger"
	"github.com/huynhanx03/go-timedqueue/pkg/registry"
	"github.com/huynhanx03/go-timedqueue/pkg/settings"
)

var version = "dev"

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	logLevel   string

	cfg *settings.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "timedqueue",
		Short:         "Drive a bounded blocking queue with producers and consumers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logger.log_level")

	root.AddCommand(
		newLoadCmd(a),
		newLatencyCmd(a),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

func (a *app) setup() error {
	cfg, err := settings.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logger.LogLevel = a.logLevel
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	registry.SetLogger(log)
	return nil
}
