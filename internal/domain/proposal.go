package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a priced row on a proposal or invoice.
type LineItem struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Price is quantity times unit price.
func (l LineItem) Price() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// Supervision is the site supervision billed per week.
type Supervision struct {
	Type  SupervisionType `json:"type"`
	Weeks decimal.Decimal `json:"weeks"`
}

// Proposal is a priced offer moving through management and client approval.
type Proposal struct {
	ID         string
	Number     string
	Title      string
	ClientName string

	LineItems []LineItem
	// GeneralConditionsPct is kept as entered; pricing resolves blanks to the default.
	GeneralConditionsPct string
	Supervision          Supervision
	Discount             decimal.Decimal
	// Costs is the breakdown priced when the content was last saved.
	// TotalCost always equals Costs.TotalCost once SetCosts has run.
	Costs     CostBreakdown
	TotalCost decimal.Decimal

	ManagementApproval        ManagementApproval
	ClientApproval            ClientApproval
	ManagementRejectionReason string
	ClientRejectionReason     string
	ClientChangeRequest       string

	SentForApproval    *Stamp
	ManagementDecision *Stamp
	ClientDecision     *Stamp
	ReturnedForReview  *Stamp

	CreatedBy string
	CreatedAt time.Time
	UpdatedAt time.Time
}

var errReasonRequired = errors.New("reason is required")

// SetCosts records the priced breakdown of the current content.
func (p *Proposal) SetCosts(c CostBreakdown) {
	p.Costs = c
	p.TotalCost = c.TotalCost
}

// CostSnapshot returns the stored breakdown. Rows saved before breakdowns
// were kept carry only a total, which is returned on its own.
func (p *Proposal) CostSnapshot() CostBreakdown {
	if p.Costs.TotalCost.Equal(p.TotalCost) {
		return p.Costs
	}
	return CostBreakdown{Discount: p.Discount, TotalCost: p.TotalCost}
}

// Rejected reports whether either approval track has rejected the proposal.
func (p *Proposal) Rejected() bool {
	return p.ManagementApproval == ManagementRejected || p.ClientApproval == ClientRejected
}

// BothApproved reports whether management and client have both approved.
func (p *Proposal) BothApproved() bool {
	return p.ManagementApproval == ManagementApproved && p.ClientApproval == ClientApproved
}

// Editable reports whether the proposal content may still change.
func (p *Proposal) Editable() bool {
	return !p.Rejected() && p.ManagementApproval == ManagementPending && p.SentForApproval == nil
}

func (p *Proposal) guardRejected(op string) error {
	if p.Rejected() {
		return InvalidTransition("%s: proposal %s is rejected", op, p.Number)
	}
	return nil
}

// SendForApproval marks the proposal as submitted to management. It does not
// change either approval track.
func (p *Proposal) SendForApproval(actor Actor, now time.Time) error {
	if err := p.guardRejected("send for approval"); err != nil {
		return err
	}
	if p.ManagementApproval != ManagementPending {
		return InvalidTransition("send for approval: management approval is %s", p.ManagementApproval)
	}
	if p.SentForApproval != nil {
		return InvalidTransition("send for approval: already sent at %s", p.SentForApproval.At.Format(time.RFC3339))
	}
	p.SentForApproval = actor.StampAt(now)
	p.UpdatedAt = now
	return nil
}

// ApproveByManagement approves the management track and releases the
// proposal to the client.
func (p *Proposal) ApproveByManagement(actor Actor, now time.Time) error {
	if err := p.guardRejected("management approval"); err != nil {
		return err
	}
	if p.ManagementApproval != ManagementPending {
		return InvalidTransition("management approval: already %s", p.ManagementApproval)
	}
	p.ManagementApproval = ManagementApproved
	p.ManagementDecision = actor.StampAt(now)
	if p.ClientApproval == ClientNotReleased {
		p.ClientApproval = ClientPending
	}
	p.UpdatedAt = now
	return nil
}

// RejectByManagement rejects the proposal for good. A reason is required.
func (p *Proposal) RejectByManagement(actor Actor, reason string, now time.Time) error {
	if err := p.guardRejected("management rejection"); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ValidationError(errReasonRequired, "management rejection of %s", p.Number)
	}
	if p.ManagementApproval != ManagementPending {
		return InvalidTransition("management rejection: already %s", p.ManagementApproval)
	}
	p.ManagementApproval = ManagementRejected
	p.ManagementRejectionReason = reason
	p.ManagementDecision = actor.StampAt(now)
	p.UpdatedAt = now
	return nil
}

// SendBackForReview reopens the proposal for edits by its creator. A client
// approval already given is kept, so the next management approval completes
// the pair again; an open client review is withdrawn.
func (p *Proposal) SendBackForReview(actor Actor, now time.Time) error {
	if err := p.guardRejected("send back for review"); err != nil {
		return err
	}
	p.SentForApproval = nil
	p.ManagementApproval = ManagementPending
	p.ManagementDecision = nil
	if p.ClientApproval != ClientApproved {
		p.ClientApproval = ClientNotReleased
		p.ClientDecision = nil
	}
	p.ReturnedForReview = actor.StampAt(now)
	p.UpdatedAt = now
	return nil
}

// ApproveByClient approves the client track once management has approved.
func (p *Proposal) ApproveByClient(actor Actor, now time.Time) error {
	if err := p.guardRejected("client approval"); err != nil {
		return err
	}
	if p.ManagementApproval != ManagementApproved {
		return InvalidTransition("client approval: management approval is %s", p.ManagementApproval)
	}
	if p.ClientApproval != ClientPending && p.ClientApproval != ClientRequestChanges {
		return InvalidTransition("client approval: client approval is %q", p.ClientApproval)
	}
	p.ClientApproval = ClientApproved
	p.ClientDecision = actor.StampAt(now)
	p.UpdatedAt = now
	return nil
}

// RejectByClient rejects the proposal for good. A reason is required.
func (p *Proposal) RejectByClient(actor Actor, reason string, now time.Time) error {
	if err := p.guardRejected("client rejection"); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ValidationError(errReasonRequired, "client rejection of %s", p.Number)
	}
	if p.ClientApproval != ClientPending && p.ClientApproval != ClientRequestChanges {
		return InvalidTransition("client rejection: client approval is %q", p.ClientApproval)
	}
	p.ClientApproval = ClientRejected
	p.ClientRejectionReason = reason
	p.ClientDecision = actor.StampAt(now)
	p.UpdatedAt = now
	return nil
}

// RequestChanges records a client change request. The proposal can still be
// approved by the client afterwards.
func (p *Proposal) RequestChanges(actor Actor, note string, now time.Time) error {
	if err := p.guardRejected("request changes"); err != nil {
		return err
	}
	note = strings.TrimSpace(note)
	if note == "" {
		return ValidationError(errReasonRequired, "change request on %s", p.Number)
	}
	if p.ClientApproval != ClientPending {
		return InvalidTransition("request changes: client approval is %q", p.ClientApproval)
	}
	p.ClientApproval = ClientRequestChanges
	p.ClientChangeRequest = note
	p.ClientDecision = actor.StampAt(now)
	p.UpdatedAt = now
	return nil
}

// Revise replaces the priced content. Callers reprice with SetCosts afterwards.
func (p *Proposal) Revise(items []LineItem, gcPct string, sup Supervision, discount decimal.Decimal, now time.Time) error {
	if !p.Editable() {
		return InvalidTransition("revise: proposal %s is locked for review", p.Number)
	}
	p.LineItems = append([]LineItem(nil), items...)
	p.GeneralConditionsPct = gcPct
	p.Supervision = sup
	p.Discount = discount
	p.UpdatedAt = now
	return nil
}
