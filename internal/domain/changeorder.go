package domain

import (
	"strings"
	"time"
)

// ChangeOrder is supplementary scope on a project. Its approval status and
// completion status move independently.
type ChangeOrder struct {
	ID               string
	Number           string
	ProjectID        string
	Title            string
	Steps            WorkBreakdown
	Status           ChangeOrderStatus
	CompletionStatus StepStatus
	RejectionReason  string
	Decision         *Stamp

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *ChangeOrder) Approve(actor Actor, now time.Time) error {
	if c.Status != ChangeOrderPending {
		return InvalidTransition("change order %s is %s", c.Number, c.Status)
	}
	c.Status = ChangeOrderApproved
	c.Decision = actor.StampAt(now)
	c.UpdatedAt = now
	return nil
}

func (c *ChangeOrder) Reject(actor Actor, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ValidationError(errReasonRequired, "change order %s rejection", c.Number)
	}
	if c.Status != ChangeOrderPending {
		return InvalidTransition("change order %s is %s", c.Number, c.Status)
	}
	c.Status = ChangeOrderRejected
	c.RejectionReason = reason
	c.Decision = actor.StampAt(now)
	c.UpdatedAt = now
	return nil
}
