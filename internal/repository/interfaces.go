package repository

import (
	"context"
	"errors"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/patch"
)

// ErrNotFound is wrapped by every repository lookup that matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with a unique key.
var ErrDuplicate = errors.New("already exists")

// StepRepo persists work breakdown nodes. Updates accept partial fields.
type StepRepo interface {
	CreateItem(ctx context.Context, owner domain.Owner, w *domain.WorkItem) error
	CreateDescription(ctx context.Context, owner domain.Owner, d *domain.WorkDescription) error
	UpdateFields(ctx context.Context, id string, fields patch.Doc) error
	Delete(ctx context.Context, id string) error
	DeleteByOwner(ctx context.Context, owner domain.Owner) error
	LoadBreakdown(ctx context.Context, owner domain.Owner) (*domain.WorkBreakdown, error)
}

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByNumber(ctx context.Context, number string) (*domain.Project, error)
	GetByProposalID(ctx context.Context, proposalID string) (*domain.Project, error)
	List(ctx context.Context) ([]*domain.Project, error)
	UpdateFields(ctx context.Context, id string, fields patch.Doc) error
	Delete(ctx context.Context, id string) error
}

type ProposalRepo interface {
	Create(ctx context.Context, p *domain.Proposal) error
	GetByID(ctx context.Context, id string) (*domain.Proposal, error)
	GetByNumber(ctx context.Context, number string) (*domain.Proposal, error)
	List(ctx context.Context) ([]*domain.Proposal, error)
	Update(ctx context.Context, p *domain.Proposal) error
	Delete(ctx context.Context, id string) error
}

type InvoiceRepo interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	GetByNumber(ctx context.Context, number string) (*domain.Invoice, error)
	GetByProposalID(ctx context.Context, proposalID string) (*domain.Invoice, error)
	List(ctx context.Context) ([]*domain.Invoice, error)
	UpdateStatus(ctx context.Context, inv *domain.Invoice) error
}

type ChangeOrderRepo interface {
	Create(ctx context.Context, c *domain.ChangeOrder) error
	GetByID(ctx context.Context, id string) (*domain.ChangeOrder, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.ChangeOrder, error)
	Update(ctx context.Context, c *domain.ChangeOrder) error
	Delete(ctx context.Context, id string) error
}

// SequenceKind names an independent document number series.
type SequenceKind string

const (
	SeqProposal    SequenceKind = "proposal"
	SeqInvoice     SequenceKind = "invoice"
	SeqProject     SequenceKind = "project"
	SeqChangeOrder SequenceKind = "change_order"
)

type SequenceRepo interface {
	Next(ctx context.Context, kind SequenceKind) (int, error)
}
