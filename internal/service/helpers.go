package service

import (
	"context"
	"errors"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/pricing"
	"github.com/alexanderramin/foreman/internal/repository"
)

var errRequired = errors.New("is required")

// notFoundOr translates a repository miss into ENTITY_NOT_FOUND and any
// other storage error into PERSISTENCE_FAILURE. Domain errors pass through.
func notFoundOr(err error, kind, ref string) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return domain.EntityNotFound(kind, ref, err)
	}
	return domain.PersistenceFailure(err, "loading %s %s", kind, ref)
}

// persistErr wraps a write failure unless it already carries a domain code.
func persistErr(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return domain.PersistenceFailure(err, format, args...)
}

type byIDOrNumber[T any] interface {
	GetByID(ctx context.Context, id string) (T, error)
	GetByNumber(ctx context.Context, number string) (T, error)
}

// lookup resolves ref as an id first, then as a document number.
func lookup[T any](ctx context.Context, repo byIDOrNumber[T], kind, ref string) (T, error) {
	v, err := repo.GetByID(ctx, ref)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return v, notFoundOr(err, kind, ref)
	}
	v, err = repo.GetByNumber(ctx, ref)
	return v, notFoundOr(err, kind, ref)
}

func lookupProposal(ctx context.Context, repo repository.ProposalRepo, ref string) (*domain.Proposal, error) {
	return lookup[*domain.Proposal](ctx, repo, "proposal", ref)
}

func lookupProject(ctx context.Context, repo repository.ProjectRepo, ref string) (*domain.Project, error) {
	return lookup[*domain.Project](ctx, repo, "project", ref)
}

func lookupInvoice(ctx context.Context, repo repository.InvoiceRepo, ref string) (*domain.Invoice, error) {
	return lookup[*domain.Invoice](ctx, repo, "invoice", ref)
}

func lookupChangeOrder(ctx context.Context, repo repository.ChangeOrderRepo, ref string) (*domain.ChangeOrder, error) {
	c, err := repo.GetByID(ctx, ref)
	return c, notFoundOr(err, "change order", ref)
}

func pricingInput(p *domain.Proposal) pricing.Input {
	return pricing.Input{
		LineItems:            p.LineItems,
		GeneralConditionsPct: p.GeneralConditionsPct,
		Supervision:          p.Supervision,
		Discount:             p.Discount,
	}
}

func draftInput(d ProposalDraft) pricing.Input {
	return pricing.Input{
		LineItems:            d.LineItems,
		GeneralConditionsPct: d.GeneralConditionsPct,
		Supervision:          d.Supervision,
		Discount:             d.Discount,
	}
}
