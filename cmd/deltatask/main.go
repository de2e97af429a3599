// Command deltatask is the CLI for the DeltaTask task manager: a canonical
// SQLite store mirrored into an Obsidian-style markdown vault.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/deltatask/deltatask/internal/config"
	"github.com/deltatask/deltatask/internal/engine"
	"github.com/deltatask/deltatask/internal/store"
	"github.com/deltatask/deltatask/internal/vault"
)

var rootCmd = &cobra.Command{
	Use:   "deltatask",
	Short: "Task management with an Obsidian-style markdown vault",
	Long: `DeltaTask keeps tasks in a local SQLite database and mirrors them into
a vault of linked markdown documents you can browse and edit in Obsidian.

The database is authoritative; the vault is a projection. Edit task
documents by hand and run 'deltatask sync reverse' (or the daemon) to
pull the changes back into the database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles everything a command needs after setup.
type app struct {
	cfg    *config.Config
	store  *store.Store
	engine *engine.Engine
	logger *log.Logger
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Printf("WARNING: failed to close store: %v", err)
	}
}

// openApp loads configuration and wires the store, projector, reconciler,
// and engine together. Commands defer app.close().
func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cfg)

	s, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	projector := vault.NewProjector(cfg.Vault.Path, logger)
	reconciler := vault.NewReconciler(cfg.Vault.Path, logger)
	eng := engine.New(s, projector, reconciler, logger, nil)

	return &app{cfg: cfg, store: s, engine: eng, logger: logger}, nil
}

// newLogger returns the shared logger: rotated file output when configured,
// stderr otherwise.
func newLogger(cfg *config.Config) *log.Logger {
	var out io.Writer = os.Stderr
	if cfg.Log.File != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		}
	}
	return log.New(out, "[deltatask] ", log.LstdFlags)
}
