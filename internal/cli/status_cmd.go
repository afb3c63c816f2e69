package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/jwulff/wpm/internal/daemon"
	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show speech daemon status and permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			out := cmd.OutOrStdout()
			tr := daemon.NewTranscriber(app.Config.SocketPath, app.Config.Locale, app.Config.Device, app.Log)

			resp, err := tr.Status(ctx)
			if err != nil {
				fmt.Fprintf(out, "Daemon:      not running (%s)\n", app.Config.SocketPath)
				return fmt.Errorf("daemon status: %w", err)
			}
			fmt.Fprintf(out, "Daemon:      running (%s)\n", app.Config.SocketPath)
			fmt.Fprintf(out, "Recording:   %s\n", yesNo(resp.Recording != nil && *resp.Recording))
			if resp.Device != "" {
				fmt.Fprintf(out, "Device:      %s\n", resp.Device)
			}

			access, err := tr.RequestAccess(ctx)
			if err != nil {
				return fmt.Errorf("daemon permissions: %w", err)
			}
			fmt.Fprintf(out, "Microphone:  %s\n", granted(access.Microphone))
			fmt.Fprintf(out, "Speech:      %s\n", granted(access.Speech))
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func granted(b bool) string {
	if b {
		return "granted"
	}
	return "denied"
}
