package app

import (
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/shopspring/decimal"
)

// StepView is one row of a rendered work breakdown. Level is 0 for work
// titles and 1 for their descriptions.
type StepView struct {
	ID             string            `json:"id"`
	ParentID       string            `json:"parent_id,omitempty"`
	Level          int               `json:"level"`
	OrderIndex     int               `json:"order_index"`
	Name           string            `json:"name"`
	Status         domain.StepStatus `json:"status"`
	ManualOverride bool              `json:"manual_override"`
	Price          decimal.Decimal   `json:"price"`
	// Fraction is the share of the item counted toward progress, 0..1.
	Fraction float64 `json:"fraction"`
}

type BudgetView struct {
	Base                 decimal.Decimal  `json:"base"`
	ApprovedChangeOrders decimal.Decimal  `json:"approved_change_orders"`
	Effective            decimal.Decimal  `json:"effective"`
	ClientBudget         *decimal.Decimal `json:"client_budget,omitempty"`
}

type ChangeOrderView struct {
	ID               string                   `json:"id"`
	Number           string                   `json:"number"`
	Title            string                   `json:"title"`
	Status           domain.ChangeOrderStatus `json:"status"`
	CompletionStatus domain.StepStatus        `json:"completion_status"`
	ItemsTotal       decimal.Decimal          `json:"items_total"`
	Progress         int                      `json:"progress"`
}

type InvoiceView struct {
	ID         string               `json:"id"`
	Number     string               `json:"number"`
	Status     domain.InvoiceStatus `json:"status"`
	TotalCost  decimal.Decimal      `json:"total_cost"`
	PaymentMet bool                 `json:"payment_met"`
}
