package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/deltatask/deltatask/internal/daemon"
	"github.com/deltatask/deltatask/internal/dashboard"
	"github.com/deltatask/deltatask/internal/ui"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Serve the live WebSocket dashboard",
	Long: `Start the dashboard server and the watch daemon together. Connected
WebSocket clients receive task mutations, sync completions, and vault
projection errors in real time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.close()

		port := dashboardPort
		if port == 0 {
			port = a.cfg.Dashboard.Port
		}

		srv := dashboard.NewServer(&dashboard.Config{Port: port, Logger: a.logger})
		if err := srv.Start(); err != nil {
			return err
		}
		defer srv.Stop()

		a.engine.SetSink(srv)

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

		fmt.Printf("%s Dashboard on http://localhost:%d (Ctrl-C to stop)\n", ui.RenderAccent("📊"), port)
		return d.Start(ctx)
	},
}

var dashboardPort int

func init() {
	dashboardCmd.Flags().IntVarP(&dashboardPort, "port", "p", 0, "listen port (default from config)")
	rootCmd.AddCommand(dashboardCmd)
}
