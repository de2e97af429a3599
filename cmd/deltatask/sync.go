package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deltatask/deltatask/internal/daemon"
	"github.com/deltatask/deltatask/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the database and the vault",
}

var syncForwardCmd = &cobra.Command{
	Use:   "forward",
	Short: "Project the database into the vault",
	Long: `Rewrite the vault from database state: every task document, the
Subtasks links, tag listings, views, statistics, and indexes. Running it
twice changes nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		start := time.Now()
		report, err := a.engine.ForwardSync(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("%s Vault synced in %v\n", ui.RenderPass("✓"), time.Since(start).Round(time.Millisecond))
		fmt.Printf("   Vault: %s\n", a.cfg.Vault.Path)
		warnProjection(report.Errors)
		return nil
	},
}

var syncReverseCmd = &cobra.Command{
	Use:   "reverse",
	Short: "Pull vault edits back into the database",
	Long: `Read every task document in the vault and apply human edits to the
database. Documents with unknown ids are re-created; malformed documents
are skipped with a warning. A forward sync runs afterwards so the vault
ends up normalized.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		result, err := a.engine.ReverseSync(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("%s Reverse sync complete\n", ui.RenderPass("✓"))
		fmt.Printf("   Scanned:  %d\n", result.Scanned)
		fmt.Printf("   Updated:  %d\n", result.Updated)
		fmt.Printf("   Inserted: %d\n", result.Inserted)
		if result.Skipped > 0 {
			fmt.Printf("   %s %d\n", ui.RenderWarn("Skipped:"), result.Skipped)
		}
		if result.Failed > 0 {
			fmt.Printf("   %s  %d\n", ui.RenderErr("Failed:"), result.Failed)
		}
		warnProjection(result.Projection.Errors)
		return nil
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Watch the vault and sync edits continuously",
	Long: `Run the watch daemon: vault edits are pulled into the database after
a short debounce, and a periodic forward sync keeps the vault converged.
Stops on SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		cfg := daemon.DefaultConfig()
		cfg.DebounceInterval = a.cfg.Daemon.DebounceInterval
		cfg.ResyncInterval = a.cfg.Daemon.ResyncInterval
		cfg.Logger = a.logger

		d, err := daemon.New(a.engine, a.cfg.Vault.Path, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("%s Watching %s (Ctrl-C to stop)\n", ui.RenderAccent("👁"), a.cfg.Vault.Path)
		return d.Start(ctx)
	},
}

func init() {
	syncCmd.AddCommand(syncForwardCmd, syncReverseCmd)
	rootCmd.AddCommand(syncCmd, daemonCmd)
}
