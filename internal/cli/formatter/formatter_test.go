package formatter

import (
	"regexp"
	"strings"
	"testing"

	"github.com/alexanderramin/foreman/internal/app"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ansiPattern matches ANSI escape sequences so assertions are terminal-independent.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"5", "$5.00"},
		{"999.999", "$1,000.00"},
		{"1234.5", "$1,234.50"},
		{"1234567.891", "$1,234,567.89"},
		{"-2500", "-$2,500.00"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Money(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestRenderTable_RightAlignsColumns(t *testing.T) {
	out := stripANSI(RenderTable(
		[]string{"ITEM", "PRICE"},
		[][]string{{"Tile", "$5.00"}, {"Vanity", "$1,000.00"}},
		1,
	))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Tile        $5.00", lines[2])
	assert.Equal(t, "Vanity  $1,000.00", lines[3])
}

func TestRenderProgress(t *testing.T) {
	assert.Equal(t, "[█████░░░░░]  50%", stripANSI(RenderProgress(50, 10)))
	assert.Equal(t, "[░░░░░░░░░░]   0%", stripANSI(RenderProgress(-4, 10)))
	assert.Equal(t, "[██████████] 100%", stripANSI(RenderProgress(130, 10)))
}

func TestRenderBreakdown(t *testing.T) {
	tree := &domain.WorkBreakdown{Items: []*domain.WorkItem{
		{
			Name: "Demolition", Status: domain.StepInProgress, Price: decimal.NewFromInt(1000),
			Children: []*domain.WorkDescription{
				{Name: "Cabinets", Status: domain.StepFinished},
				{Name: "Flooring", Status: domain.StepPending, ManualOverride: true},
			},
		},
		{Name: "Framing", Status: domain.StepPending, Price: decimal.NewFromInt(500)},
	}}

	out := stripANSI(RenderBreakdown(tree))
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "1. ▶ Demolition")
	assert.Contains(t, lines[0], "[ $1,000.00 ]")
	assert.Contains(t, lines[1], "├─ ✔ Cabinets")
	assert.Contains(t, lines[2], "└─ ✔ Flooring")
	assert.Contains(t, lines[2], "[ override ]")
	assert.Contains(t, lines[3], "2. ○ Framing")

	assert.Contains(t, stripANSI(RenderBreakdown(&domain.WorkBreakdown{})), "No work items.")
}

func TestFormatProjectReport(t *testing.T) {
	client := decimal.NewFromInt(2000)
	r := &app.ProjectReport{
		Number:      "PRJ-0001",
		Name:        "Kitchen",
		Status:      domain.ProjectActive,
		Progress:    38,
		CanComplete: false,
		Budget: app.BudgetView{
			Base:                 decimal.NewFromInt(2370),
			ApprovedChangeOrders: decimal.NewFromInt(500),
			Effective:            decimal.NewFromInt(2870),
			ClientBudget:         &client,
		},
		Invoice: &app.InvoiceView{Number: "INV-0001", Status: domain.InvoicePaid, TotalCost: decimal.NewFromInt(2370)},
		Steps: []app.StepView{
			{Name: "Demolition", Level: 0, Status: domain.StepInProgress, Price: decimal.NewFromInt(1000)},
			{Name: "Cabinets", Level: 1, Status: domain.StepFinished, ManualOverride: true},
		},
		ChangeOrders: []app.ChangeOrderView{
			{Number: "CO-0001", Title: "Deck", Status: domain.ChangeOrderApproved, ItemsTotal: decimal.NewFromInt(500), Progress: 0},
		},
		Warnings: []string{"effective budget 2870.00 exceeds client budget 2000.00"},
	}

	out := stripANSI(FormatProjectReport(r))
	assert.Contains(t, out, "PRJ-0001  Kitchen  ● Active")
	assert.Contains(t, out, " 38%")
	assert.Contains(t, out, "$2,870.00")
	assert.Contains(t, out, "Client budget")
	assert.Contains(t, out, "INV-0001  $2,370.00  ✔ paid")
	assert.Contains(t, out, "Cabinets (override)")
	assert.Contains(t, out, "CO-0001")
	assert.Contains(t, out, "! effective budget 2870.00 exceeds client budget 2000.00")
	assert.NotContains(t, out, "ready to mark complete")
}

func TestFormatProposal_ShowsBothTracks(t *testing.T) {
	p := &domain.Proposal{
		Number:                    "PRO-0001",
		Title:                     "Kitchen",
		ClientName:                "Dana",
		LineItems:                 []domain.LineItem{{Name: "Tile", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(50)}},
		ManagementApproval:        domain.ManagementRejected,
		ManagementRejectionReason: "over budget",
	}
	costs := domain.CostBreakdown{
		ItemsTotal:           decimal.NewFromInt(100),
		GeneralConditionsPct: decimal.RequireFromString("18.5"),
		GeneralConditions:    decimal.RequireFromString("18.5"),
		TotalCost:            decimal.RequireFromString("118.5"),
	}

	out := stripANSI(FormatProposal(p, costs))
	assert.Contains(t, out, "PRO-0001  Kitchen")
	assert.Contains(t, out, "General conditions (18.5%)")
	assert.Contains(t, out, "$118.50")
	assert.Contains(t, out, "Management: ✖ rejected")
	assert.Contains(t, out, "reason: over budget")
	assert.Contains(t, out, "Client:     -- not released")
	assert.NotContains(t, out, "Discount")
}
