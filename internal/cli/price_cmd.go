package cli

import (
	"fmt"

	"github.com/alexanderramin/foreman/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Pricing tools",
	}
	cmd.AddCommand(newPriceQuoteCmd(app))
	return cmd
}

func newPriceQuoteCmd(app *App) *cobra.Command {
	var f proposalFields

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price line items without saving a proposal",
		Example: `  foreman price quote --item "Cabinets:12:$450" --item "Counter:1:$3,200" \
      --supervision part_time --weeks 4 --discount 500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(f.Items) == 0 {
				return fmt.Errorf("at least one --item is required")
			}
			draft, err := f.draft()
			if err != nil {
				return err
			}
			costs, err := app.Proposals.Quote(draft)
			if err != nil {
				return err
			}
			return render(cmd, app, costs, func() string {
				return formatter.FormatCosts(costs)
			})
		},
	}

	cmd.Flags().StringArrayVar(&f.Items, "item", nil, "Line item as name:quantity:unit_price (repeatable)")
	cmd.Flags().StringVar(&f.GeneralCondPct, "gc-pct", "", "General conditions percentage (blank for the default)")
	cmd.Flags().Var(newEnumValue(&f.SupervisionType, "none", "none", "part_time", "full_time"),
		"supervision", "Supervision (none|part_time|full_time)")
	cmd.Flags().StringVar(&f.SupervisionWeeks, "weeks", "", "Supervision weeks")
	cmd.Flags().StringVar(&f.Discount, "discount", "", "Discount amount")
	return cmd
}
