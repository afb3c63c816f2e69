package cli

import (
	"github.com/jwulff/wpm/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve transcript analysis and settings as MCP tools on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := app.openStore()
			if err != nil {
				return err
			}
			// stdout carries the protocol; keep logs on stderr.
			app.Log.SetOutput(cmd.ErrOrStderr())
			return mcpserver.New(store, app.Log).ServeStdio(app.Version)
		},
	}
}
