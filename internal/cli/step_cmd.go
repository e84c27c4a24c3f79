package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/alexanderramin/foreman/internal/cli/formatter"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/steptree"
	"github.com/spf13/cobra"
)

func newStepCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Edit the work breakdown of a project or change order",
		Long: `Steps are addressed by id or by position as shown in "step list":
"2" is the second work title, "2.1" its first description.`,
	}

	cmd.PersistentFlags().Bool("change-order", false, "The owner is a change order rather than a project")

	cmd.AddCommand(
		newStepListCmd(app),
		newStepAddCmd(app),
		newStepStatusCmd(app),
		newStepOverrideCmd(app),
		newStepMoveCmd(app),
		newStepDeleteCmd(app),
	)

	return cmd
}

func ownerKind(cmd *cobra.Command) domain.OwnerKind {
	if co, _ := cmd.Flags().GetBool("change-order"); co {
		return domain.OwnerChangeOrder
	}
	return domain.OwnerProject
}

func openStore(cmd *cobra.Command, app *App, owner string) (*steptree.Store, error) {
	return app.Steps.Open(context.Background(), ownerKind(cmd), owner)
}

// stepRef is a resolved step address. ParentID is set for descriptions.
type stepRef struct {
	ID       string
	ParentID string
}

func (r stepRef) isChild() bool { return r.ParentID != "" }

// resolveStep finds a step by position ("2", "2.1") or by id.
func resolveStep(tree *domain.WorkBreakdown, ref string) (stepRef, error) {
	if pos, child, ok := parsePosition(ref); ok {
		if pos < 1 || pos > len(tree.Items) {
			return stepRef{}, fmt.Errorf("no work title at position %d", pos)
		}
		it := tree.Items[pos-1]
		if child == 0 {
			return stepRef{ID: it.ID}, nil
		}
		if child > len(it.Children) {
			return stepRef{}, fmt.Errorf("no description at position %d.%d", pos, child)
		}
		return stepRef{ID: it.Children[child-1].ID, ParentID: it.ID}, nil
	}

	for _, it := range tree.Items {
		if it.ID == ref {
			return stepRef{ID: it.ID}, nil
		}
		for _, c := range it.Children {
			if c.ID == ref {
				return stepRef{ID: c.ID, ParentID: it.ID}, nil
			}
		}
	}
	return stepRef{}, fmt.Errorf("step not found: %q", ref)
}

func parsePosition(ref string) (pos, child int, ok bool) {
	head, tail, dotted := strings.Cut(ref, ".")
	pos, err := strconv.Atoi(head)
	if err != nil {
		return 0, 0, false
	}
	if !dotted {
		return pos, 0, true
	}
	child, err = strconv.Atoi(tail)
	if err != nil || child < 1 {
		return 0, 0, false
	}
	return pos, child, true
}

func printStepResult(cmd *cobra.Command, app *App, res *steptree.Result) error {
	if app.JSON {
		return writeJSON(cmd, map[string]any{
			"progress":      res.Progress,
			"parent_status": res.ParentStatus,
			"mutations":     len(res.Command.Mutations),
		})
	}
	if res.ParentStatus != "" {
		printf(cmd, "Work title is now %s\n", formatter.StepStatusPill(res.ParentStatus))
	}
	printf(cmd, "Progress %s\n", formatter.RenderProgress(res.Progress, 20))
	return nil
}

func newStepListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "list <owner>",
		Aliases: []string{"ls"},
		Short:   "Show the work breakdown and progress",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, app, args[0])
			if err != nil {
				return err
			}
			tree := store.Snapshot()
			return render(cmd, app, tree, func() string {
				return formatter.RenderBreakdown(tree) + "\n" + formatter.RenderProgress(store.Progress(), 24) + "\n"
			})
		},
	}
}

func newStepAddCmd(app *App) *cobra.Command {
	var name, description, price, parent string

	cmd := &cobra.Command{
		Use:   "add <owner>",
		Short: "Add a work title, or a description under --parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := openStore(cmd, app, args[0])
			if err != nil {
				return err
			}

			var res *steptree.Result
			if parent != "" {
				ref, err := resolveStep(store.Snapshot(), parent)
				if err != nil {
					return err
				}
				if ref.isChild() {
					return fmt.Errorf("descriptions can only be added under a work title")
				}
				res, err = store.AddWorkDescription(ctx, app.Actor, ref.ID, name, description)
				if err != nil {
					return err
				}
			} else {
				res, err = store.AddWorkItem(ctx, app.Actor, name, description, price)
				if err != nil {
					return err
				}
			}
			printf(cmd, "Added %q\n", name)
			return printStepResult(cmd, app, res)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Step name")
	cmd.Flags().StringVar(&description, "description", "", "Free text description")
	cmd.Flags().StringVar(&price, "price", "", "Price of a work title, e.g. \"$1,200\"")
	cmd.Flags().StringVar(&parent, "parent", "", "Work title (position or id) to add a description under")
	_ = cmd.MarkFlagRequired("name")
	cmd.MarkFlagsMutuallyExclusive("price", "parent")
	return cmd
}

func newStepStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "status <owner> <step> <pending|in_progress|finished>",
		Short:     "Set the status of a step",
		Args:      cobra.ExactArgs(3),
		ValidArgs: []string{"pending", "in_progress", "finished"},
		RunE: func(cmd *cobra.Command, args []string) error {
			status := strings.ToLower(strings.ReplaceAll(args[2], "-", "_"))
			if !domain.ValidStepStatuses[status] {
				return fmt.Errorf("invalid status %q (pending|in_progress|finished)", args[2])
			}
			store, err := openStore(cmd, app, args[0])
			if err != nil {
				return err
			}
			ref, err := resolveStep(store.Snapshot(), args[1])
			if err != nil {
				return err
			}
			res, err := store.SetStatus(context.Background(), app.Actor, ref.ID, domain.StepStatus(status), ref.isChild(), ref.ParentID)
			if err != nil {
				return err
			}
			return printStepResult(cmd, app, res)
		},
	}
}

func newStepOverrideCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "override <owner> <description>",
		Short: "Toggle the manual override that counts a description as finished",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, app, args[0])
			if err != nil {
				return err
			}
			ref, err := resolveStep(store.Snapshot(), args[1])
			if err != nil {
				return err
			}
			if !ref.isChild() {
				return fmt.Errorf("manual override applies to descriptions, not work titles")
			}
			res, err := store.ToggleManualOverride(context.Background(), app.Actor, ref.ID, ref.ParentID)
			if err != nil {
				return err
			}
			return printStepResult(cmd, app, res)
		},
	}
}

func newStepMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <owner> <work-title> <position>",
		Short: "Move a work title to a new 1-based position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			to, err := strconv.Atoi(args[2])
			if err != nil || to < 1 {
				return fmt.Errorf("position must be a positive number, got %q", args[2])
			}
			store, err := openStore(cmd, app, args[0])
			if err != nil {
				return err
			}
			ref, err := resolveStep(store.Snapshot(), args[1])
			if err != nil {
				return err
			}
			if ref.isChild() {
				return fmt.Errorf("only work titles can be moved")
			}
			res, err := store.MoveWorkItem(context.Background(), app.Actor, ref.ID, to-1)
			if err != nil {
				return err
			}
			if app.JSON {
				return printStepResult(cmd, app, res)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.RenderBreakdown(store.Snapshot()))
			return nil
		},
	}
}

func newStepDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <owner> <step>",
		Short: "Delete a work title with its descriptions, or a single description",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := openStore(cmd, app, args[0])
			if err != nil {
				return err
			}
			ref, err := resolveStep(store.Snapshot(), args[1])
			if err != nil {
				return err
			}

			var res *steptree.Result
			if ref.isChild() {
				res, err = store.DeleteWorkDescription(ctx, app.Actor, ref.ID, ref.ParentID)
			} else {
				res, err = store.DeleteWorkItem(ctx, app.Actor, ref.ID)
			}
			if err != nil {
				return err
			}
			printf(cmd, "Deleted step %s\n", args[1])
			return printStepResult(cmd, app, res)
		},
	}
}
