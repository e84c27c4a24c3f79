package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/foreman/internal/app"
	"github.com/alexanderramin/foreman/internal/cli/formatter"
	"github.com/alexanderramin/foreman/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newProjectCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}

	cmd.AddCommand(
		newProjectCreateCmd(a),
		newProjectListCmd(a),
		newProjectReportCmd(a),
		newProjectCompleteCmd(a),
		newProjectBudgetCmd(a),
	)

	return cmd
}

func newProjectCreateCmd(a *App) *cobra.Command {
	var proposal, name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Start a project from an approved, paid proposal",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.Workflow.CreateProject(context.Background(), a.Actor, proposal, name)
			if err != nil {
				return err
			}
			printf(cmd, "Created project %s %q, budget %s\n", p.Number, p.Name, formatter.Money(p.TotalBudget))
			return nil
		},
	}

	cmd.Flags().StringVar(&proposal, "proposal", "", "Proposal id or number")
	cmd.Flags().StringVar(&name, "name", "", "Project name (defaults to the proposal title)")
	_ = cmd.MarkFlagRequired("proposal")
	return cmd
}

func newProjectListCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.Workflow.ListProjects(context.Background())
			if err != nil {
				return err
			}
			if len(projects) == 0 && !a.JSON {
				printf(cmd, "No projects yet.\n")
				return nil
			}
			return render(cmd, a, projects, func() string {
				return formatter.FormatProjectList(projects)
			})
		},
	}
}

func newProjectReportCmd(a *App) *cobra.Command {
	var noSteps, noChangeOrders bool

	cmd := &cobra.Command{
		Use:   "report <project>",
		Short: "Progress, budget, invoice and steps of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := app.NewProjectReportRequest(args[0])
			req.IncludeSteps = !noSteps
			req.IncludeChangeOrders = !noChangeOrders

			report, err := a.Reports.ProjectReport(context.Background(), req)
			if err != nil {
				return err
			}
			return render(cmd, a, report, func() string {
				return formatter.FormatProjectReport(report)
			})
		},
	}

	cmd.Flags().BoolVar(&noSteps, "no-steps", false, "Leave out the step rows")
	cmd.Flags().BoolVar(&noChangeOrders, "no-change-orders", false, "Leave out change orders")
	return cmd
}

func newProjectCompleteCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <project>",
		Short: "Mark a project completed once every step is finished",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.Workflow.MarkProjectComplete(context.Background(), a.Actor, args[0])
			if err != nil {
				return err
			}
			printf(cmd, "Project %s completed\n", p.Number)
			return nil
		},
	}
}

func newProjectBudgetCmd(a *App) *cobra.Command {
	var clientBudget string
	var clearClient bool

	cmd := &cobra.Command{
		Use:   "budget <project>",
		Short: "Show the effective budget, or set the client budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if clearClient || clientBudget != "" {
				var amount *decimal.Decimal
				if !clearClient {
					d := pricing.ParseAmount(clientBudget)
					amount = &d
				}
				if _, err := a.Workflow.SetClientBudget(ctx, args[0], amount); err != nil {
					return err
				}
			}

			summary, err := a.Workflow.BudgetSummary(ctx, args[0])
			if err != nil {
				return err
			}
			if a.JSON {
				return writeJSON(cmd, summary)
			}
			printf(cmd, "Base:                   %s\n", formatter.Money(summary.Base))
			printf(cmd, "Approved change orders: %s\n", formatter.Money(summary.ApprovedChangeOrders))
			printf(cmd, "Effective:              %s\n", formatter.Money(summary.Effective))
			if summary.ClientBudget != nil {
				printf(cmd, "Client budget:          %s\n", formatter.Money(*summary.ClientBudget))
				if summary.Effective.GreaterThan(*summary.ClientBudget) {
					printf(cmd, "%s\n", formatter.StyleRed.Render(fmt.Sprintf("Over client budget by %s",
						formatter.Money(summary.Effective.Sub(*summary.ClientBudget)))))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&clientBudget, "set-client", "", "Set the client budget")
	cmd.Flags().BoolVar(&clearClient, "clear-client", false, "Remove the client budget")
	cmd.MarkFlagsMutuallyExclusive("set-client", "clear-client")
	return cmd
}
