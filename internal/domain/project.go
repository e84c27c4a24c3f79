package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Project struct {
	ID         string
	Number     string
	Name       string
	ProposalID string
	InvoiceID  string

	Steps              WorkBreakdown
	ProgressPercentage int
	TotalBudget        decimal.Decimal
	ClientBudget       *decimal.Decimal
	Status             ProjectStatus
	CompletedAt        *time.Time

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarkCompleted moves the project to its terminal state. The caller checks
// that every step is finished first.
func (p *Project) MarkCompleted(now time.Time) error {
	if p.Status == ProjectCompleted {
		return InvalidTransition("project %s is already completed", p.Number)
	}
	p.Status = ProjectCompleted
	p.CompletedAt = &now
	p.UpdatedAt = now
	return nil
}

// DisplayID returns the project number, or a truncated ID when unnumbered.
func (p *Project) DisplayID() string {
	if p.Number != "" {
		return p.Number
	}
	if len(p.ID) >= 8 {
		return p.ID[:8]
	}
	return p.ID
}
