package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/pairank/internal/app"
	"github.com/okian/pairank/internal/config"
	"github.com/okian/pairank/pkg/logger"
)

// cli carries state shared by subcommands once the root has loaded it.
type cli struct {
	cfg *config.Config
	log logger.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:          "pairank",
		Short:        "Rank a list by answering pairwise comparisons",
		Long:         "pairank orders items by asking which of two you prefer, locking each item once its rank is settled.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}
	root.PersistentFlags().String("config", "", "Path to YAML config file (overrides "+config.EnvConfigFile+")")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(newServeCmd(c))
	root.AddCommand(newRankCmd(c))
	root.AddCommand(newSimulateCmd(c))
	return root
}

// setup loads configuration (defaults -> file -> env -> flags) and
// initializes the global logger.
func (c *cli) setup(cmd *cobra.Command) error {
	if p, _ := cmd.Flags().GetString("config"); p != "" {
		if err := os.Setenv(config.EnvConfigFile, p); err != nil {
			return fmt.Errorf("set config path: %w", err)
		}
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithOutput(cmd.ErrOrStderr())); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	c.log = logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		c.log.Warn(cmd.Context(), "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	c.cfg = cfg
	return nil
}

// schedulerOptions maps configuration onto scheduler options.
func (c *cli) schedulerOptions() []app.Option {
	return []app.Option{
		app.WithLogger(c.log),
		app.WithQueueCapacity(c.cfg.QueueCapacity),
		app.WithRejectCycles(c.cfg.RejectCycles),
		app.WithMaxNameLength(c.cfg.MaxNameLength),
		app.WithIdempotencySize(c.cfg.IdempotencySize),
	}
}
