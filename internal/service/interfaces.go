package service

import (
	"context"

	"github.com/alexanderramin/foreman/internal/app"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/steptree"
	"github.com/shopspring/decimal"
)

// Entity references accepted by the services are either an id or a
// human-facing number such as PRO-0001, matched case-insensitively.

type StepService interface {
	// Open loads the breakdown of a project or change order into a store whose
	// commands are persisted in one transaction each.
	Open(ctx context.Context, kind domain.OwnerKind, ref string) (*steptree.Store, error)
	Breakdown(ctx context.Context, kind domain.OwnerKind, ref string) (*domain.WorkBreakdown, error)
}

type ProposalService interface {
	Create(ctx context.Context, actor domain.Actor, draft ProposalDraft) (*domain.Proposal, error)
	Revise(ctx context.Context, actor domain.Actor, ref string, draft ProposalDraft) (*domain.Proposal, error)
	Get(ctx context.Context, ref string) (*domain.Proposal, error)
	List(ctx context.Context) ([]*domain.Proposal, error)
	Delete(ctx context.Context, ref string) error
	Quote(draft ProposalDraft) (domain.CostBreakdown, error)
}

type ApprovalService interface {
	SendForApproval(ctx context.Context, actor domain.Actor, ref string) (*ApprovalOutcome, error)
	ApproveByManagement(ctx context.Context, actor domain.Actor, ref string) (*ApprovalOutcome, error)
	RejectByManagement(ctx context.Context, actor domain.Actor, ref, reason string) (*ApprovalOutcome, error)
	SendBackForReview(ctx context.Context, actor domain.Actor, ref string) (*ApprovalOutcome, error)
	ApproveByClient(ctx context.Context, actor domain.Actor, ref string) (*ApprovalOutcome, error)
	RejectByClient(ctx context.Context, actor domain.Actor, ref, reason string) (*ApprovalOutcome, error)
	RequestChanges(ctx context.Context, actor domain.Actor, ref, note string) (*ApprovalOutcome, error)
}

// WorkflowCoordinator enforces the cross-entity gates: approved proposal to
// invoice, paid invoice to project, finished steps to completed project.
type WorkflowCoordinator interface {
	OnBothApprovalsApproved(ctx context.Context, p *domain.Proposal) (*domain.Invoice, bool, error)
	CanCreateProject(ctx context.Context, proposalRef string) error
	CreateProject(ctx context.Context, actor domain.Actor, proposalRef, name string) (*domain.Project, error)
	CanMarkProjectComplete(ctx context.Context, projectRef string) (bool, error)
	MarkProjectComplete(ctx context.Context, actor domain.Actor, projectRef string) (*domain.Project, error)

	CreateChangeOrder(ctx context.Context, actor domain.Actor, projectRef, title string) (*domain.ChangeOrder, error)
	ApproveChangeOrder(ctx context.Context, actor domain.Actor, ref string) (*domain.ChangeOrder, error)
	RejectChangeOrder(ctx context.Context, actor domain.Actor, ref, reason string) (*domain.ChangeOrder, error)
	ListChangeOrders(ctx context.Context, projectRef string) ([]*domain.ChangeOrder, error)
	BudgetSummary(ctx context.Context, projectRef string) (*BudgetSummary, error)
	SetClientBudget(ctx context.Context, projectRef string, amount *decimal.Decimal) (*domain.Project, error)

	SetInvoiceStatus(ctx context.Context, invoiceRef string, status domain.InvoiceStatus) (*domain.Invoice, error)
	GetInvoice(ctx context.Context, ref string) (*domain.Invoice, error)
	ListInvoices(ctx context.Context) ([]*domain.Invoice, error)
	GetProject(ctx context.Context, ref string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]*domain.Project, error)
}

type ReportService interface {
	app.ProjectReportUseCase
}

type ImportService interface {
	app.ImportProposalUseCase
}

// ProposalDraft is the editable content of a proposal. Amounts are already
// coerced; callers holding raw strings go through the pricing parse helpers.
type ProposalDraft struct {
	Title                string
	ClientName           string
	LineItems            []domain.LineItem
	GeneralConditionsPct string
	Supervision          domain.Supervision
	Discount             decimal.Decimal
}

// ApprovalOutcome is the proposal after a transition. Invoice is set once both
// tracks are approved; InvoiceCreated is true only for the call that issued it.
type ApprovalOutcome struct {
	Proposal       *domain.Proposal
	Invoice        *domain.Invoice
	InvoiceCreated bool
}

// BudgetSummary adds approved change order work to the project's base budget.
type BudgetSummary struct {
	Base                 decimal.Decimal
	ApprovedChangeOrders decimal.Decimal
	Effective            decimal.Decimal
	ClientBudget         *decimal.Decimal
}
