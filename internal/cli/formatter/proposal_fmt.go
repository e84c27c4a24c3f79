package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/foreman/internal/domain"
)

// FormatProposalList renders proposals as a table.
func FormatProposalList(proposals []*domain.Proposal) string {
	rows := make([][]string, 0, len(proposals))
	for _, p := range proposals {
		rows = append(rows, []string{
			Bold(p.Number),
			p.Title,
			p.ClientName,
			Money(p.TotalCost),
			ApprovalPill(string(p.ManagementApproval)),
			ApprovalPill(string(p.ClientApproval)),
		})
	}
	return RenderTable([]string{"NUMBER", "TITLE", "CLIENT", "TOTAL", "MANAGEMENT", "CLIENT APPROVAL"}, rows, 3)
}

// FormatCosts renders a cost breakdown as label/amount lines.
func FormatCosts(c domain.CostBreakdown) string {
	rows := [][]string{
		{"Line items", Money(c.ItemsTotal)},
		{"Supervision", Money(c.SupervisionFee)},
		{fmt.Sprintf("General conditions (%s%%)", c.GeneralConditionsPct.String()), Money(c.GeneralConditions)},
	}
	if !c.Discount.IsZero() {
		rows = append(rows, []string{"Discount", "-" + Money(c.Discount)})
	}
	rows = append(rows, []string{Bold("Total"), Bold(Money(c.TotalCost))})
	return RenderTable([]string{"", "AMOUNT"}, rows, 1)
}

// FormatProposal renders one proposal with its line items, costs and both
// approval tracks.
func FormatProposal(p *domain.Proposal, costs domain.CostBreakdown) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n", Bold(p.Number), p.Title))
	b.WriteString(fmt.Sprintf("Client: %s\n\n", p.ClientName))

	rows := make([][]string, 0, len(p.LineItems))
	for _, li := range p.LineItems {
		rows = append(rows, []string{li.Name, li.Quantity.String(), Money(li.UnitPrice), Money(li.Price())})
	}
	b.WriteString(Header("Line items") + "\n")
	b.WriteString(RenderTable([]string{"ITEM", "QTY", "UNIT", "PRICE"}, rows, 1, 2, 3))
	if p.Supervision.Type != "" && p.Supervision.Type != domain.SupervisionNone {
		b.WriteString(Dim(fmt.Sprintf("Supervision: %s, %s weeks", p.Supervision.Type, p.Supervision.Weeks.String())) + "\n")
	}

	b.WriteString("\n" + Header("Costs") + "\n")
	b.WriteString(FormatCosts(costs))

	b.WriteString("\n" + Header("Approvals") + "\n")
	b.WriteString(fmt.Sprintf("Management: %s%s\n", ApprovalPill(string(p.ManagementApproval)), stampSuffix(p.ManagementDecision)))
	if p.ManagementRejectionReason != "" {
		b.WriteString(Dim("  reason: "+p.ManagementRejectionReason) + "\n")
	}
	b.WriteString(fmt.Sprintf("Client:     %s%s\n", ApprovalPill(string(p.ClientApproval)), stampSuffix(p.ClientDecision)))
	if p.ClientRejectionReason != "" {
		b.WriteString(Dim("  reason: "+p.ClientRejectionReason) + "\n")
	}
	if p.ClientChangeRequest != "" {
		b.WriteString(Dim("  requested: "+p.ClientChangeRequest) + "\n")
	}

	return b.String()
}

func stampSuffix(s *domain.Stamp) string {
	if s == nil {
		return ""
	}
	return Dim(fmt.Sprintf("  by %s on %s", domain.CoalesceStr(s.ActorName, s.ActorID), HumanDate(s.At)))
}
