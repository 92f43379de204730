package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start background jobs that normally run inside the server, for deployments that keep them in a separate process.`,
}

var reaperWorkerCmd = &cobra.Command{
	Use:   "reaper",
	Short: "Start the proxy delegation expiry job",
	Long:  `Deactivate proxy delegations whose end date has passed, on the workflow.proxy_reaper_schedule cron expression.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return startReaperWorker()
	},
}

var reapOnce bool

func startReaperWorker() error {
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}

	app, err := buildApp(cfg, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	if reapOnce {
		n, err := app.Proxies.ReapExpired(context.Background())
		if err != nil {
			_ = app.Close(context.Background())
			return fmt.Errorf("reap expired delegations: %w", err)
		}
		lg.Info("expired delegations deactivated", "count", n)
		return app.Close(context.Background())
	}

	app.Reaper.Start()
	lg.Info("reaper worker is running. Press Ctrl+C to stop.", "schedule", cfg.Workflow.ProxyReaperSchedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	lg.Info("received signal, shutting down reaper worker", "signal", sig)

	ctx, cancel := internal.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return app.Close(ctx)
}

func init() {
	reaperWorkerCmd.Flags().BoolVar(&reapOnce, "once", false, "run a single pass and exit")

	workerCmd.AddCommand(reaperWorkerCmd)
	rootCmd.AddCommand(workerCmd)
}
