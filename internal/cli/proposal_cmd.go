package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/foreman/internal/cli/formatter"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/pricing"
	"github.com/alexanderramin/foreman/internal/service"
	"github.com/spf13/cobra"
)

func newProposalCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "proposal",
		Aliases: []string{"p"},
		Short:   "Draft, price and approve proposals",
	}

	cmd.AddCommand(
		newProposalCreateCmd(app),
		newProposalImportCmd(app),
		newProposalListCmd(app),
		newProposalShowCmd(app),
		newProposalReviseCmd(app),
		newProposalDeleteCmd(app),
		newProposalSendCmd(app),
		newProposalApproveCmd(app),
		newProposalRejectCmd(app),
		newProposalSendBackCmd(app),
		newProposalRequestChangesCmd(app),
	)

	return cmd
}

// addProposalFlags registers the editable proposal fields on cmd.
func addProposalFlags(cmd *cobra.Command, f *proposalFields) {
	cmd.Flags().StringVar(&f.Title, "title", "", "Proposal title")
	cmd.Flags().StringVar(&f.ClientName, "client", "", "Client name")
	cmd.Flags().StringArrayVar(&f.Items, "item", nil, "Line item as name:quantity:unit_price (repeatable)")
	cmd.Flags().StringVar(&f.GeneralCondPct, "gc-pct", "", "General conditions percentage (blank for the default)")
	cmd.Flags().Var(newEnumValue(&f.SupervisionType, string(domain.SupervisionNone),
		string(domain.SupervisionNone), string(domain.SupervisionPartTime), string(domain.SupervisionFullTime)),
		"supervision", "Supervision (none|part_time|full_time)")
	cmd.Flags().StringVar(&f.SupervisionWeeks, "weeks", "", "Supervision weeks")
	cmd.Flags().StringVar(&f.Discount, "discount", "", "Discount amount")
}

// proposalDraft returns the editable content of an existing proposal.
func proposalDraft(p *domain.Proposal) service.ProposalDraft {
	return service.ProposalDraft{
		Title:                p.Title,
		ClientName:           p.ClientName,
		LineItems:            p.LineItems,
		GeneralConditionsPct: p.GeneralConditionsPct,
		Supervision:          p.Supervision,
		Discount:             p.Discount,
	}
}

func newProposalCreateCmd(app *App) *cobra.Command {
	var f proposalFields

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a proposal (interactive form on a terminal when --title is omitted)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.Title == "" && app.interactive() {
				form, items := wizardProposal(&f)
				if err := form.Run(); err != nil {
					return err
				}
				f.Items = splitLines(*items)
			}
			if f.Title == "" || f.ClientName == "" {
				return fmt.Errorf("--title and --client are required")
			}

			draft, err := f.draft()
			if err != nil {
				return err
			}
			p, err := app.Proposals.Create(context.Background(), app.Actor, draft)
			if err != nil {
				return err
			}

			printf(cmd, "Created proposal %s %q, total %s\n", p.Number, p.Title, formatter.Money(p.TotalCost))
			return nil
		},
	}

	addProposalFlags(cmd, &f)
	return cmd
}

func newProposalImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Create a proposal from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Import.ImportProposal(context.Background(), app.Actor, args[0])
			if err != nil {
				return err
			}
			printf(cmd, "Imported proposal %s %q with %d line items, total %s\n",
				res.Proposal.Number, res.Proposal.Title, res.LineItemCount, formatter.Money(res.Proposal.TotalCost))
			return nil
		},
	}
}

func newProposalListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List proposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			proposals, err := app.Proposals.List(context.Background())
			if err != nil {
				return err
			}
			if len(proposals) == 0 && !app.JSON {
				printf(cmd, "No proposals yet.\n")
				return nil
			}
			return render(cmd, app, proposals, func() string {
				return formatter.FormatProposalList(proposals)
			})
		},
	}
}

func newProposalShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <proposal>",
		Short: "Show a proposal with its cost breakdown and approvals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.Proposals.Get(context.Background(), args[0])
			if err != nil {
				return err
			}
			costs := p.CostSnapshot()
			return render(cmd, app, map[string]any{"proposal": p, "costs": costs}, func() string {
				return formatter.FormatProposal(p, costs)
			})
		},
	}
}

func newProposalReviseCmd(app *App) *cobra.Command {
	var f proposalFields

	cmd := &cobra.Command{
		Use:   "revise <proposal>",
		Short: "Change the content of a proposal; approvals restart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			p, err := app.Proposals.Get(ctx, args[0])
			if err != nil {
				return err
			}

			draft := proposalDraft(p)
			flags := cmd.Flags()
			if flags.Changed("title") {
				draft.Title = f.Title
			}
			if flags.Changed("client") {
				draft.ClientName = f.ClientName
			}
			if flags.Changed("item") {
				parsed, err := f.draft()
				if err != nil {
					return err
				}
				draft.LineItems = parsed.LineItems
			}
			if flags.Changed("gc-pct") {
				draft.GeneralConditionsPct = f.GeneralCondPct
			}
			if flags.Changed("supervision") {
				draft.Supervision.Type = pricing.ParseSupervisionType(f.SupervisionType)
			}
			if flags.Changed("weeks") {
				draft.Supervision.Weeks = pricing.ParseAmount(f.SupervisionWeeks)
			}
			if flags.Changed("discount") {
				draft.Discount = pricing.ParseAmount(f.Discount)
			}

			revised, err := app.Proposals.Revise(ctx, app.Actor, p.ID, draft)
			if err != nil {
				return err
			}
			printf(cmd, "Revised proposal %s, total %s\n", revised.Number, formatter.Money(revised.TotalCost))
			return nil
		},
	}

	addProposalFlags(cmd, &f)
	return cmd
}

func newProposalDeleteCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <proposal>",
		Short: "Delete a proposal that has not been invoiced",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force && app.interactive() {
				confirmed := false
				if err := wizardConfirm(fmt.Sprintf("Delete proposal %s?", args[0]), &confirmed).Run(); err != nil {
					return err
				}
				if !confirmed {
					printf(cmd, "Cancelled.\n")
					return nil
				}
			}
			if err := app.Proposals.Delete(context.Background(), args[0]); err != nil {
				return err
			}
			printf(cmd, "Deleted proposal %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation")
	return cmd
}

// printOutcome reports the approval state after a transition, and the
// invoice when the transition issued one.
func printOutcome(cmd *cobra.Command, app *App, out *service.ApprovalOutcome) error {
	if app.JSON {
		return writeJSON(cmd, out)
	}
	p := out.Proposal
	printf(cmd, "%s  management: %s  client: %s\n", p.Number,
		formatter.ApprovalPill(string(p.ManagementApproval)),
		formatter.ApprovalPill(string(p.ClientApproval)))
	if out.Invoice != nil && out.InvoiceCreated {
		printf(cmd, "Issued invoice %s for %s\n", out.Invoice.Number, formatter.Money(out.Invoice.Costs.TotalCost))
	}
	return nil
}

func newProposalSendCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "send <proposal>",
		Short: "Submit a proposal for management approval",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Approvals.SendForApproval(context.Background(), app.Actor, args[0])
			if err != nil {
				return err
			}
			return printOutcome(cmd, app, out)
		},
	}
}

const (
	trackManagement = "management"
	trackClient     = "client"
)

func trackFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().Var(newEnumValue(target, trackManagement, trackManagement, trackClient),
		"as", "Approval track (management|client)")
}

func newProposalApproveCmd(app *App) *cobra.Command {
	var track string

	cmd := &cobra.Command{
		Use:   "approve <proposal>",
		Short: "Approve a proposal; the invoice is issued once both tracks approve",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var (
				out *service.ApprovalOutcome
				err error
			)
			if track == trackClient {
				out, err = app.Approvals.ApproveByClient(ctx, app.Actor, args[0])
			} else {
				out, err = app.Approvals.ApproveByManagement(ctx, app.Actor, args[0])
			}
			if err != nil {
				return err
			}
			return printOutcome(cmd, app, out)
		},
	}

	trackFlag(cmd, &track)
	return cmd
}

func newProposalRejectCmd(app *App) *cobra.Command {
	var track, reason string

	cmd := &cobra.Command{
		Use:   "reject <proposal>",
		Short: "Reject a proposal; rejection is final",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var (
				out *service.ApprovalOutcome
				err error
			)
			if track == trackClient {
				out, err = app.Approvals.RejectByClient(ctx, app.Actor, args[0], reason)
			} else {
				out, err = app.Approvals.RejectByManagement(ctx, app.Actor, args[0], reason)
			}
			if err != nil {
				return err
			}
			return printOutcome(cmd, app, out)
		},
	}

	trackFlag(cmd, &track)
	cmd.Flags().StringVar(&reason, "reason", "", "Rejection reason")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newProposalSendBackCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "send-back <proposal>",
		Short: "Return an approved proposal to management review",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Approvals.SendBackForReview(context.Background(), app.Actor, args[0])
			if err != nil {
				return err
			}
			return printOutcome(cmd, app, out)
		},
	}
}

func newProposalRequestChangesCmd(app *App) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "request-changes <proposal>",
		Short: "Ask for changes on behalf of the client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := app.Approvals.RequestChanges(context.Background(), app.Actor, args[0], note)
			if err != nil {
				return err
			}
			return printOutcome(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "What the client wants changed")
	_ = cmd.MarkFlagRequired("note")
	return cmd
}
