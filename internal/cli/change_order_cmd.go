package cli

import (
	"context"

	"github.com/alexanderramin/foreman/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newChangeOrderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "change-order",
		Aliases: []string{"co"},
		Short:   "Manage change orders on a project",
	}

	cmd.AddCommand(
		newChangeOrderCreateCmd(app),
		newChangeOrderListCmd(app),
		newChangeOrderApproveCmd(app),
		newChangeOrderRejectCmd(app),
	)

	return cmd
}

func newChangeOrderCreateCmd(app *App) *cobra.Command {
	var project, title string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a change order against an active project",
		RunE: func(cmd *cobra.Command, args []string) error {
			co, err := app.Workflow.CreateChangeOrder(context.Background(), app.Actor, project, title)
			if err != nil {
				return err
			}
			printf(cmd, "Created change order %s %q\n", co.Number, co.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project id or number")
	cmd.Flags().StringVar(&title, "title", "", "Change order title")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newChangeOrderListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list <project>",
		Aliases: []string{"ls"},
		Short:   "List the change orders of a project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cos, err := app.Workflow.ListChangeOrders(context.Background(), args[0])
			if err != nil {
				return err
			}
			if len(cos) == 0 && !app.JSON {
				printf(cmd, "No change orders.\n")
				return nil
			}
			return render(cmd, app, cos, func() string {
				return formatter.FormatChangeOrderList(cos)
			})
		},
	}
}

func newChangeOrderApproveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <change-order>",
		Short: "Approve a change order; its priced work joins the budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			co, err := app.Workflow.ApproveChangeOrder(context.Background(), app.Actor, args[0])
			if err != nil {
				return err
			}
			printf(cmd, "Change order %s %s\n", co.Number, formatter.ChangeOrderPill(co.Status))
			return nil
		},
	}
}

func newChangeOrderRejectCmd(app *App) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "reject <change-order>",
		Short: "Reject a change order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			co, err := app.Workflow.RejectChangeOrder(context.Background(), app.Actor, args[0], reason)
			if err != nil {
				return err
			}
			printf(cmd, "Change order %s %s\n", co.Number, formatter.ChangeOrderPill(co.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Rejection reason")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}
