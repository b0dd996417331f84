// Package app holds the axon command tree.
package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Dicklesworthstone/axon_dashboard/internal/config"
	"github.com/Dicklesworthstone/axon_dashboard/internal/logger"
)

// globals are the persistent flags shared by every command.
type globals struct {
	flags config.Flags
	cfg   *config.Config
	log   *slog.Logger
	close func() error
}

// NewRootCmd builds the command tree. Running it without a subcommand
// opens the dashboard.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "axon",
		Short: "Live system telemetry dashboard",
		Long: `axon shows CPU, memory, storage, network, GPU, battery and OS details
in the terminal. Readings come from a host bridge when one is available
(a D-Bus service or in-process collectors) and from a seeded simulation
otherwise.

Examples:
  # Open the dashboard
  axon

  # Force simulation with a fixed seed
  axon --bridge none --seed 42

  # Write one snapshot as YAML
  axon export --format yaml

  # Stream NDJSON snapshots
  axon stream --count 10

  # Serve the host bridge on the session bus
  axon bridge`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if g.close != nil {
				return g.close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDashboard(cmd, g)
		},
	}
	g.flags.Register(root.PersistentFlags())
	root.SuggestionsMinimumDistance = 2

	root.AddCommand(newExportCmd(g))
	root.AddCommand(newStreamCmd(g))
	root.AddCommand(newBridgeCmd(g))
	root.AddCommand(newConfigCmd(g))
	return root
}

// Execute runs the root command until it returns or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

// skipConfigLoad marks commands that must run before a config file exists.
const skipConfigLoad = "axon/skip-config-load"

func (g *globals) init(cmd *cobra.Command) error {
	cfg := config.DefaultConfig()
	if cmd.Annotations[skipConfigLoad] == "" {
		var err error
		if cfg, err = config.Resolve(cmd.Root().PersistentFlags(), &g.flags, os.Getenv); err != nil {
			return err
		}
	}
	g.cfg = cfg

	lc := logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, File: cfg.Log.File, Output: cmd.ErrOrStderr()}
	// The dashboard owns the terminal; without a log file nothing is written.
	if cmd == cmd.Root() && cfg.Log.File == "" {
		lc.Output = io.Discard
	}
	log, closer, err := logger.Init(lc)
	if err != nil {
		return err
	}
	g.log, g.close = log, closer
	return nil
}
