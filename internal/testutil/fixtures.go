package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNumberCounter atomic.Int64

func nextNumber(prefix string) string {
	return fmt.Sprintf("%s-T%04d", prefix, testNumberCounter.Add(1))
}

// Actors used across service and CLI tests.
var (
	Manager = domain.Actor{ID: "u-manager", Name: "Maria Manager", Role: domain.RoleManager}
	Staff   = domain.Actor{ID: "u-staff", Name: "Sam Staff", Role: domain.RoleStaff}
	Client  = domain.Actor{ID: "u-client", Name: "Carl Client", Role: domain.RoleClient}
)

// Proposal options
type ProposalOption func(*domain.Proposal)

func WithLineItem(name string, qty, unitPrice string) ProposalOption {
	return func(p *domain.Proposal) {
		p.LineItems = append(p.LineItems, domain.LineItem{
			Name:      name,
			Quantity:  decimal.RequireFromString(qty),
			UnitPrice: decimal.RequireFromString(unitPrice),
		})
	}
}

func WithSupervision(t domain.SupervisionType, weeks string) ProposalOption {
	return func(p *domain.Proposal) {
		p.Supervision = domain.Supervision{Type: t, Weeks: decimal.RequireFromString(weeks)}
	}
}

func WithGeneralConditions(pct string) ProposalOption {
	return func(p *domain.Proposal) {
		p.GeneralConditionsPct = pct
	}
}

func WithApprovals(m domain.ManagementApproval, c domain.ClientApproval) ProposalOption {
	return func(p *domain.Proposal) {
		p.ManagementApproval = m
		p.ClientApproval = c
	}
}

func NewTestProposal(title string, opts ...ProposalOption) *domain.Proposal {
	now := time.Now().UTC()
	p := &domain.Proposal{
		ID:                 uuid.New().String(),
		Number:             nextNumber("PRO"),
		Title:              title,
		ClientName:         "Test Client",
		Supervision:        domain.Supervision{Type: domain.SupervisionNone},
		ManagementApproval: domain.ManagementPending,
		ClientApproval:     domain.ClientNotReleased,
		CreatedBy:          Staff.ID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project options
type ProjectOption func(*domain.Project)

func WithProposal(id string) ProjectOption {
	return func(p *domain.Project) {
		p.ProposalID = id
	}
}

func WithBudget(amount string) ProjectOption {
	return func(p *domain.Project) {
		p.TotalBudget = decimal.RequireFromString(amount)
	}
}

func WithProjectStatus(s domain.ProjectStatus) ProjectOption {
	return func(p *domain.Project) {
		p.Status = s
	}
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        uuid.New().String(),
		Number:    nextNumber("PRJ"),
		Name:      name,
		Status:    domain.ProjectActive,
		CreatedBy: Staff.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	p.Steps.Owner = domain.Owner{Kind: domain.OwnerProject, ID: p.ID}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkItem options
type WorkItemOption func(*domain.WorkItem)

func WithPrice(amount string) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.Price = decimal.RequireFromString(amount)
	}
}

func WithItemStatus(s domain.StepStatus) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.Status = s
	}
}

func WithOrderIndex(i int) WorkItemOption {
	return func(w *domain.WorkItem) {
		w.OrderIndex = i
	}
}

func NewTestWorkItem(name string, opts ...WorkItemOption) *domain.WorkItem {
	now := time.Now().UTC()
	w := &domain.WorkItem{
		ID:        uuid.New().String(),
		Name:      name,
		Status:    domain.StepPending,
		Price:     decimal.NewFromInt(100),
		CreatedBy: Staff.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// NewTestDescription creates a child step and appends it to parent.
func NewTestDescription(parent *domain.WorkItem, name string, status domain.StepStatus) *domain.WorkDescription {
	now := time.Now().UTC()
	d := &domain.WorkDescription{
		ID:         uuid.New().String(),
		ParentID:   parent.ID,
		Name:       name,
		Status:     status,
		OrderIndex: len(parent.Children),
		CreatedBy:  Staff.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	parent.Children = append(parent.Children, d)
	return d
}

func NewTestChangeOrder(projectID, title string) *domain.ChangeOrder {
	now := time.Now().UTC()
	c := &domain.ChangeOrder{
		ID:               uuid.New().String(),
		Number:           nextNumber("CO"),
		ProjectID:        projectID,
		Title:            title,
		Status:           domain.ChangeOrderPending,
		CompletionStatus: domain.StepPending,
		CreatedBy:        Staff.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	c.Steps.Owner = domain.Owner{Kind: domain.OwnerChangeOrder, ID: c.ID}
	return c
}

func NewTestInvoice(p *domain.Proposal) *domain.Invoice {
	now := time.Now().UTC()
	return &domain.Invoice{
		ID:          uuid.New().String(),
		Number:      nextNumber("INV"),
		ProposalID:  p.ID,
		ClientName:  p.ClientName,
		LineItems:   p.LineItems,
		Supervision: p.Supervision,
		Costs:       domain.CostBreakdown{TotalCost: p.TotalCost},
		Status:      domain.InvoicePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
