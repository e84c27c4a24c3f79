package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/foreman/internal/domain"
)

func FormatInvoiceList(invoices []*domain.Invoice) string {
	rows := make([][]string, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, []string{
			Bold(inv.Number),
			inv.ClientName,
			Money(inv.Costs.TotalCost),
			InvoicePill(inv.Status),
			HumanDate(inv.CreatedAt),
		})
	}
	return RenderTable([]string{"NUMBER", "CLIENT", "TOTAL", "STATUS", "ISSUED"}, rows, 2)
}

func FormatInvoice(inv *domain.Invoice) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s  %s  %s\n", Bold(inv.Number), inv.ClientName, InvoicePill(inv.Status)))
	b.WriteString(Dim("Issued "+HumanDate(inv.CreatedAt)) + "\n\n")

	rows := make([][]string, 0, len(inv.LineItems))
	for _, li := range inv.LineItems {
		rows = append(rows, []string{li.Name, li.Quantity.String(), Money(li.UnitPrice), Money(li.Price())})
	}
	b.WriteString(RenderTable([]string{"ITEM", "QTY", "UNIT", "PRICE"}, rows, 1, 2, 3))
	b.WriteString("\n")
	b.WriteString(FormatCosts(inv.Costs))
	return b.String()
}
