package cli

import (
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Proposals service.ProposalService
	Approvals service.ApprovalService
	Workflow  service.WorkflowCoordinator
	Steps     service.StepService
	Reports   service.ReportService
	Import    service.ImportService

	// Actor is recorded on every mutation. The persistent --actor-* flags
	// override it per invocation.
	Actor domain.Actor
	// JSON switches list/show output to indented JSON.
	JSON bool
	// IsInteractive reports whether stdin is a terminal; nil means never.
	IsInteractive func() bool
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "foreman" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "foreman",
		Short:         "Construction proposals, approvals and work progress",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.Actor.ID, "actor-id", app.Actor.ID, "ID recorded on mutations")
	flags.StringVar(&app.Actor.Name, "actor-name", app.Actor.Name, "Name recorded on mutations")
	flags.Var(newRoleValue(&app.Actor.Role), "role", "Actor role (admin|manager|staff|client)")
	flags.BoolVar(&app.JSON, "json", false, "Print JSON instead of tables")

	root.AddCommand(
		newProposalCmd(app),
		newInvoiceCmd(app),
		newProjectCmd(app),
		newStepCmd(app),
		newChangeOrderCmd(app),
		newPriceCmd(app),
		newMCPCmd(app),
	)

	return root
}
