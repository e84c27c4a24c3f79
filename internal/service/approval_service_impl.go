package service

import (
	"context"
	"time"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/repository"
)

type approvalService struct {
	uow      db.UnitOfWork
	settings Settings
	issuer   invoiceIssuer
	observer UseCaseObserver
}

// NewApprovalService returns the approval state machine runner. Each
// transition is loaded, applied and saved in one transaction; when it leaves
// both tracks approved the invoice is issued in that same transaction.
func NewApprovalService(uow db.UnitOfWork, settings Settings, observers ...UseCaseObserver) ApprovalService {
	settings = settings.withDefaults()
	return &approvalService{
		uow:      uow,
		settings: settings,
		issuer:   invoiceIssuer{settings: settings},
		observer: useCaseObserverOrNoop(observers),
	}
}

type transitionFunc func(p *domain.Proposal, now time.Time) error

func (s *approvalService) SendForApproval(ctx context.Context, actor domain.Actor, ref string) (*ApprovalOutcome, error) {
	return s.transition(ctx, "approval.send_for_approval", actor, ref, func(p *domain.Proposal, now time.Time) error {
		return p.SendForApproval(actor, now)
	})
}

func (s *approvalService) ApproveByManagement(ctx context.Context, actor domain.Actor, ref string) (*ApprovalOutcome, error) {
	return s.transition(ctx, "approval.approve_management", actor, ref, func(p *domain.Proposal, now time.Time) error {
		return p.ApproveByManagement(actor, now)
	})
}

func (s *approvalService) RejectByManagement(ctx context.Context, actor domain.Actor, ref, reason string) (*ApprovalOutcome, error) {
	return s.transition(ctx, "approval.reject_management", actor, ref, func(p *domain.Proposal, now time.Time) error {
		return p.RejectByManagement(actor, reason, now)
	})
}

func (s *approvalService) SendBackForReview(ctx context.Context, actor domain.Actor, ref string) (*ApprovalOutcome, error) {
	return s.transition(ctx, "approval.send_back", actor, ref, func(p *domain.Proposal, now time.Time) error {
		return p.SendBackForReview(actor, now)
	})
}

func (s *approvalService) ApproveByClient(ctx context.Context, actor domain.Actor, ref string) (*ApprovalOutcome, error) {
	return s.transition(ctx, "approval.approve_client", actor, ref, func(p *domain.Proposal, now time.Time) error {
		return p.ApproveByClient(actor, now)
	})
}

func (s *approvalService) RejectByClient(ctx context.Context, actor domain.Actor, ref, reason string) (*ApprovalOutcome, error) {
	return s.transition(ctx, "approval.reject_client", actor, ref, func(p *domain.Proposal, now time.Time) error {
		return p.RejectByClient(actor, reason, now)
	})
}

func (s *approvalService) RequestChanges(ctx context.Context, actor domain.Actor, ref, note string) (*ApprovalOutcome, error) {
	return s.transition(ctx, "approval.request_changes", actor, ref, func(p *domain.Proposal, now time.Time) error {
		return p.RequestChanges(actor, note, now)
	})
}

func (s *approvalService) transition(ctx context.Context, name string, actor domain.Actor, ref string, apply transitionFunc) (out *ApprovalOutcome, err error) {
	fields := map[string]any{"proposal": ref, "actor": actor.ID}
	defer observe(ctx, s.observer, name, fields, &err)()

	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		proposals := repository.NewSQLiteProposalRepo(tx)
		p, err := lookupProposal(ctx, proposals, ref)
		if err != nil {
			return err
		}
		if err := apply(p, s.settings.Now()); err != nil {
			return err
		}
		if err := proposals.Update(ctx, p); err != nil {
			return persistErr(err, "saving proposal %s", p.Number)
		}

		out = &ApprovalOutcome{Proposal: p}
		if !p.BothApproved() {
			return nil
		}
		inv, created, err := s.issuer.issue(ctx, tx, p)
		if err != nil {
			return err
		}
		out.Invoice = inv
		out.InvoiceCreated = created
		fields["invoice"] = inv.Number
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
