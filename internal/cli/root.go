// Package cli implements the command-line interface for gitsim.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilupskalvis/gitsim/internal/app"
	"github.com/kilupskalvis/gitsim/internal/config"
	"github.com/kilupskalvis/gitsim/internal/interp"
	"github.com/kilupskalvis/gitsim/internal/store"
)

// cmdContext holds common resources for CLI commands
type cmdContext struct {
	Config *config.Config
	Store  store.StateStore
	Interp *interp.Interpreter
	Logger *slog.Logger
}

// Close releases resources held by cmdContext
func (c *cmdContext) Close() {
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			c.Logger.Warn("failed to close store", "error", err)
		}
	}
}

var (
	configPath  string
	logLevel    string
	storageKind string
)

// loadConfig reads the config and applies persistent flag overrides.
func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitError("%v", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if storageKind != "" {
		cfg.Storage = storageKind
	}
	return cfg
}

// initContext loads config, opens the store and restores the interpreter.
func initContext() *cmdContext {
	cfg := loadConfig()
	logger := cfg.Logger(os.Stderr)

	in, st, err := app.Open(cfg, logger)
	if err != nil {
		exitError("%v", err)
	}
	return &cmdContext{Config: cfg, Store: st, Interp: in, Logger: logger}
}

var rootCmd = &cobra.Command{
	Use:   "gitsim",
	Short: "Git object-graph simulator",
	Long: `gitsim simulates a git repository's commit graph in memory. Type git
commands (init, commit, branch, checkout, merge, log, reset --hard, tag)
and watch branches, tags and HEAD move. State is saved between runs.

Without a subcommand, gitsim starts an interactive session.`,
	Args: cobra.NoArgs,
	Run:  runRepl,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default: .gitsim/config found upwards)")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	pf.StringVar(&storageKind, "storage", "", "Storage backend (bolt|sqlite|memory)")

	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(stateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(clearCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}

// exitError prints an error and exits
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

// stdout is where command output goes; tests swap it.
var stdout io.Writer = os.Stdout
