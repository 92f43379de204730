package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/spf13/cobra"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification maintenance commands",
}

var notifyResendCmd = &cobra.Command{
	Use:   "resend <request-id>",
	Short: "Re-send the notifications for a request's current status",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid request id %q", args[0])
		}
		return resendNotifications(id)
	},
}

func resendNotifications(id int64) error {
	cfg, lg, err := bootstrap()
	if err != nil {
		return err
	}

	app, err := buildApp(cfg, lg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}

	resendErr := app.Requests.Resend(context.Background(), id)

	// Close drains the bus and the delivery pool before exiting.
	ctx, cancel := internal.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	closeErr := app.Close(ctx)

	if resendErr != nil {
		return fmt.Errorf("resend request %d: %w", id, resendErr)
	}
	if closeErr != nil {
		return closeErr
	}
	lg.Info("notifications re-sent", "request_id", id)
	return nil
}

func init() {
	notifyCmd.AddCommand(notifyResendCmd)
	rootCmd.AddCommand(notifyCmd)
}
