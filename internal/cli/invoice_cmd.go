package cli

import (
	"context"

	"github.com/alexanderramin/foreman/internal/cli/formatter"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/spf13/cobra"
)

func newInvoiceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoice",
		Aliases: []string{"inv"},
		Short:   "Inspect invoices and record payments",
	}

	cmd.AddCommand(
		newInvoiceListCmd(app),
		newInvoiceShowCmd(app),
		newInvoiceSetStatusCmd(app),
	)

	return cmd
}

func newInvoiceListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			invoices, err := app.Workflow.ListInvoices(context.Background())
			if err != nil {
				return err
			}
			if len(invoices) == 0 && !app.JSON {
				printf(cmd, "No invoices yet.\n")
				return nil
			}
			return render(cmd, app, invoices, func() string {
				return formatter.FormatInvoiceList(invoices)
			})
		},
	}
}

func newInvoiceShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <invoice>",
		Short: "Show an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := app.Workflow.GetInvoice(context.Background(), args[0])
			if err != nil {
				return err
			}
			return render(cmd, app, inv, func() string {
				return formatter.FormatInvoice(inv)
			})
		},
	}
}

func newInvoiceSetStatusCmd(app *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "set-status <invoice>",
		Short: "Record payment progress on an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := app.Workflow.SetInvoiceStatus(context.Background(), args[0], domain.InvoiceStatus(status))
			if err != nil {
				return err
			}
			printf(cmd, "Invoice %s is now %s\n", inv.Number, formatter.InvoicePill(inv.Status))
			if inv.PaymentReceived() {
				printf(cmd, "Payment received; a project can be created.\n")
			}
			return nil
		},
	}

	cmd.Flags().Var(newEnumValue(&status, "",
		string(domain.InvoicePartialPaid), string(domain.InvoicePaid),
		string(domain.InvoiceOverdue), string(domain.InvoiceCancelled)),
		"status", "New status (partial_paid|paid|overdue|cancelled)")
	_ = cmd.MarkFlagRequired("status")
	return cmd
}
