package cli

import (
	mcpserver "github.com/alexanderramin/foreman/internal/mcp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMCPCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Model Context Protocol server",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve reporting, step and approval tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := mcpserver.NewServer(mcpserver.Services{
				Proposals: app.Proposals,
				Approvals: app.Approvals,
				Workflow:  app.Workflow,
				Steps:     app.Steps,
				Reports:   app.Reports,
			}, app.Actor, log.Logger)

			log.Info().Str("actor", app.Actor.ID).Msg("serving mcp on stdio")
			return mcpserver.Serve(s)
		},
	})

	return cmd
}
