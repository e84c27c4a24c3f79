package service

import (
	"context"
	"errors"
	"strings"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/repository"
	"github.com/hay-kot/criterio"
)

type proposalService struct {
	proposals repository.ProposalRepo
	uow       db.UnitOfWork
	settings  Settings
	observer  UseCaseObserver
}

func NewProposalService(proposals repository.ProposalRepo, uow db.UnitOfWork, settings Settings, observers ...UseCaseObserver) ProposalService {
	return &proposalService{
		proposals: proposals,
		uow:       uow,
		settings:  settings.withDefaults(),
		observer:  useCaseObserverOrNoop(observers),
	}
}

// validate checks the fields a proposal cannot be saved without. Range checks
// on amounts only run when the settings ask for them.
func (s *proposalService) validate(d ProposalDraft) error {
	var b criterio.FieldErrorsBuilder
	if strings.TrimSpace(d.Title) == "" {
		b = b.Append("title", errRequired)
	}
	if strings.TrimSpace(d.ClientName) == "" {
		b = b.Append("client_name", errRequired)
	}
	for _, li := range d.LineItems {
		if strings.TrimSpace(li.Name) == "" {
			b = b.Append("line_items.name", errRequired)
			break
		}
	}
	if err := b.ToError(); err != nil {
		return domain.ValidationError(err, "proposal")
	}
	if s.settings.RejectNegativeAmounts {
		if err := s.settings.Policy.ValidateRanges(draftInput(d)); err != nil {
			return domain.ValidationError(err, "proposal amounts")
		}
	}
	return nil
}

func (s *proposalService) Quote(d ProposalDraft) (domain.CostBreakdown, error) {
	if s.settings.RejectNegativeAmounts {
		if err := s.settings.Policy.ValidateRanges(draftInput(d)); err != nil {
			return domain.CostBreakdown{}, domain.ValidationError(err, "quote amounts")
		}
	}
	return s.settings.Policy.Calculate(draftInput(d)), nil
}

func (s *proposalService) Create(ctx context.Context, actor domain.Actor, d ProposalDraft) (p *domain.Proposal, err error) {
	defer observe(ctx, s.observer, "proposal.create", map[string]any{"actor": actor.ID}, &err)()

	if err := s.validate(d); err != nil {
		return nil, err
	}
	now := s.settings.Now()
	p = &domain.Proposal{
		ID:                   s.settings.NewID(),
		Title:                strings.TrimSpace(d.Title),
		ClientName:           strings.TrimSpace(d.ClientName),
		LineItems:            append([]domain.LineItem(nil), d.LineItems...),
		GeneralConditionsPct: strings.TrimSpace(d.GeneralConditionsPct),
		Supervision:          d.Supervision,
		Discount:             d.Discount,
		ManagementApproval:   domain.ManagementPending,
		ClientApproval:       domain.ClientNotReleased,
		CreatedBy:            actor.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if p.Supervision.Type == "" {
		p.Supervision.Type = domain.SupervisionNone
	}
	p.SetCosts(s.settings.Policy.Calculate(pricingInput(p)))

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		seq, err := repository.NewSQLiteSequenceRepo(tx).Next(ctx, repository.SeqProposal)
		if err != nil {
			return domain.PersistenceFailure(err, "numbering proposal")
		}
		p.Number = formatNumber(s.settings.Numbering.Proposal, seq)
		if err := repository.NewSQLiteProposalRepo(tx).Create(ctx, p); err != nil {
			return domain.PersistenceFailure(err, "creating proposal")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Revise replaces the priced content of an editable proposal and recomputes
// its total.
func (s *proposalService) Revise(ctx context.Context, actor domain.Actor, ref string, d ProposalDraft) (p *domain.Proposal, err error) {
	defer observe(ctx, s.observer, "proposal.revise", map[string]any{"proposal": ref, "actor": actor.ID}, &err)()

	if err := s.validate(d); err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteProposalRepo(tx)
		found, err := lookupProposal(ctx, repo, ref)
		if err != nil {
			return err
		}
		sup := d.Supervision
		if sup.Type == "" {
			sup.Type = domain.SupervisionNone
		}
		if err := found.Revise(d.LineItems, strings.TrimSpace(d.GeneralConditionsPct), sup, d.Discount, s.settings.Now()); err != nil {
			return err
		}
		found.Title = strings.TrimSpace(d.Title)
		found.ClientName = strings.TrimSpace(d.ClientName)
		found.SetCosts(s.settings.Policy.Calculate(pricingInput(found)))
		if err := repo.Update(ctx, found); err != nil {
			return persistErr(err, "saving proposal %s", found.Number)
		}
		p = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *proposalService) Get(ctx context.Context, ref string) (*domain.Proposal, error) {
	return lookupProposal(ctx, s.proposals, ref)
}

func (s *proposalService) List(ctx context.Context) ([]*domain.Proposal, error) {
	out, err := s.proposals.List(ctx)
	if err != nil {
		return nil, domain.PersistenceFailure(err, "listing proposals")
	}
	return out, nil
}

// Delete removes a proposal that has not been invoiced.
func (s *proposalService) Delete(ctx context.Context, ref string) (err error) {
	defer observe(ctx, s.observer, "proposal.delete", map[string]any{"proposal": ref}, &err)()

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteProposalRepo(tx)
		p, err := lookupProposal(ctx, repo, ref)
		if err != nil {
			return err
		}
		inv, err := repository.NewSQLiteInvoiceRepo(tx).GetByProposalID(ctx, p.ID)
		if err == nil {
			return domain.InvalidTransition("proposal %s has invoice %s", p.Number, inv.Number)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return domain.PersistenceFailure(err, "checking invoice for %s", p.Number)
		}
		return persistErr(repo.Delete(ctx, p.ID), "deleting proposal %s", p.Number)
	})
}
