package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostBreakdown is the full result of a pricing calculation.
type CostBreakdown struct {
	ItemsTotal           decimal.Decimal `json:"items_total"`
	SupervisionFee       decimal.Decimal `json:"supervision_fee"`
	GeneralConditionsPct decimal.Decimal `json:"general_conditions_pct"`
	GeneralConditions    decimal.Decimal `json:"general_conditions"`
	Discount             decimal.Decimal `json:"discount"`
	TotalCost            decimal.Decimal `json:"total_cost"`
}

// Invoice is a snapshot of an approved proposal. Only Status changes after creation.
type Invoice struct {
	ID          string
	Number      string
	ProposalID  string
	ClientName  string
	LineItems   []LineItem
	Supervision Supervision
	Costs       CostBreakdown
	Status      InvoiceStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoicePending:     {InvoicePartialPaid, InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoicePartialPaid: {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue:     {InvoicePartialPaid, InvoicePaid, InvoiceCancelled},
}

// CanTransitionTo reports whether the payment status may move to next.
func (i *Invoice) CanTransitionTo(next InvoiceStatus) bool {
	for _, s := range invoiceTransitions[i.Status] {
		if s == next {
			return true
		}
	}
	return false
}

func (i *Invoice) SetStatus(next InvoiceStatus, now time.Time) error {
	if !i.CanTransitionTo(next) {
		return InvalidTransition("invoice %s: %s -> %s", i.Number, i.Status, next)
	}
	i.Status = next
	i.UpdatedAt = now
	return nil
}

// PaymentReceived reports whether enough has been paid to start the project.
func (i *Invoice) PaymentReceived() bool {
	return i.Status == InvoicePaid || i.Status == InvoicePartialPaid
}
