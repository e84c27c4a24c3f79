package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/foreman/internal/app"
	"github.com/alexanderramin/foreman/internal/domain"
)

func FormatProjectList(projects []*domain.Project) string {
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			Bold(p.DisplayID()),
			p.Name,
			ProjectPill(p.Status),
			RenderProgress(p.ProgressPercentage, 10),
			Money(p.TotalBudget),
		})
	}
	return RenderTable([]string{"NUMBER", "NAME", "STATUS", "PROGRESS", "BUDGET"}, rows, 4)
}

func FormatChangeOrderList(cos []*domain.ChangeOrder) string {
	rows := make([][]string, 0, len(cos))
	for _, co := range cos {
		rows = append(rows, []string{
			Bold(co.Number),
			co.Title,
			ChangeOrderPill(co.Status),
			StepStatusPill(co.CompletionStatus),
		})
	}
	return RenderTable([]string{"NUMBER", "TITLE", "APPROVAL", "WORK"}, rows)
}

// FormatProjectReport renders the full project report: progress, budget,
// invoice, steps and change orders, followed by any warnings.
func FormatProjectReport(r *app.ProjectReport) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s  %s\n", Bold(r.Number), r.Name, ProjectPill(r.Status)))
	b.WriteString(RenderProgress(r.Progress, 24) + "\n")
	if r.CanComplete {
		b.WriteString(StyleGreen.Render("All work finished; ready to mark complete.") + "\n")
	}

	b.WriteString("\n" + Header("Budget") + "\n")
	budget := [][]string{
		{"Base", Money(r.Budget.Base)},
		{"Approved change orders", Money(r.Budget.ApprovedChangeOrders)},
		{Bold("Effective"), Bold(Money(r.Budget.Effective))},
	}
	if r.Budget.ClientBudget != nil {
		budget = append(budget, []string{"Client budget", Money(*r.Budget.ClientBudget)})
	}
	b.WriteString(RenderTable([]string{"", "AMOUNT"}, budget, 1))

	if r.Invoice != nil {
		b.WriteString("\n" + Header("Invoice") + "\n")
		b.WriteString(fmt.Sprintf("%s  %s  %s\n", r.Invoice.Number, Money(r.Invoice.TotalCost), InvoicePill(r.Invoice.Status)))
	}

	if len(r.Steps) > 0 {
		b.WriteString("\n" + Header("Work") + "\n")
		b.WriteString(formatStepRows(r.Steps))
	}

	if len(r.ChangeOrders) > 0 {
		b.WriteString("\n" + Header("Change orders") + "\n")
		rows := make([][]string, 0, len(r.ChangeOrders))
		for _, co := range r.ChangeOrders {
			rows = append(rows, []string{
				Bold(co.Number),
				co.Title,
				ChangeOrderPill(co.Status),
				Money(co.ItemsTotal),
				fmt.Sprintf("%d%%", co.Progress),
			})
		}
		b.WriteString(RenderTable([]string{"NUMBER", "TITLE", "APPROVAL", "TOTAL", "DONE"}, rows, 3, 4))
	}

	for _, w := range r.Warnings {
		b.WriteString(StyleYellow.Render("! "+w) + "\n")
	}
	return b.String()
}

func formatStepRows(steps []app.StepView) string {
	rows := make([][]string, 0, len(steps))
	for _, s := range steps {
		name := s.Name
		price := Money(s.Price)
		if s.Level > 0 {
			name = "   " + name
			price = ""
		}
		if s.ManualOverride {
			name += " " + StylePurple.Render("(override)")
		}
		rows = append(rows, []string{name, StepStatusPill(s.Status), price})
	}
	return RenderTable([]string{"STEP", "STATUS", "PRICE"}, rows, 2)
}
