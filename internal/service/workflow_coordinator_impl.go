package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/patch"
	"github.com/alexanderramin/foreman/internal/progress"
	"github.com/alexanderramin/foreman/internal/repository"
	"github.com/shopspring/decimal"
)

type workflowCoordinator struct {
	proposals    repository.ProposalRepo
	invoices     repository.InvoiceRepo
	projects     repository.ProjectRepo
	changeOrders repository.ChangeOrderRepo
	steps        repository.StepRepo
	uow          db.UnitOfWork
	settings     Settings
	issuer       invoiceIssuer
	observer     UseCaseObserver
}

func NewWorkflowCoordinator(
	proposals repository.ProposalRepo,
	invoices repository.InvoiceRepo,
	projects repository.ProjectRepo,
	changeOrders repository.ChangeOrderRepo,
	steps repository.StepRepo,
	uow db.UnitOfWork,
	settings Settings,
	observers ...UseCaseObserver,
) WorkflowCoordinator {
	settings = settings.withDefaults()
	return &workflowCoordinator{
		proposals:    proposals,
		invoices:     invoices,
		projects:     projects,
		changeOrders: changeOrders,
		steps:        steps,
		uow:          uow,
		settings:     settings,
		issuer:       invoiceIssuer{settings: settings},
		observer:     useCaseObserverOrNoop(observers),
	}
}

// OnBothApprovalsApproved issues the proposal's invoice. Calling it again for
// the same proposal returns the existing invoice with created=false.
func (c *workflowCoordinator) OnBothApprovalsApproved(ctx context.Context, p *domain.Proposal) (inv *domain.Invoice, created bool, err error) {
	defer observe(ctx, c.observer, "workflow.issue_invoice", map[string]any{"proposal": p.Number}, &err)()

	err = c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		current, err := repository.NewSQLiteProposalRepo(tx).GetByID(ctx, p.ID)
		if err != nil {
			return notFoundOr(err, "proposal", p.ID)
		}
		inv, created, err = c.issuer.issue(ctx, tx, current)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return inv, created, nil
}

// CanCreateProject returns PAYMENT_REQUIRED until the proposal's invoice is
// paid or partially paid.
func (c *workflowCoordinator) CanCreateProject(ctx context.Context, proposalRef string) error {
	p, err := lookupProposal(ctx, c.proposals, proposalRef)
	if err != nil {
		return err
	}
	_, err = paidInvoice(ctx, c.invoices, p)
	return err
}

func paidInvoice(ctx context.Context, invoices repository.InvoiceRepo, p *domain.Proposal) (*domain.Invoice, error) {
	inv, err := invoices.GetByProposalID(ctx, p.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.PaymentRequired("proposal %s has no invoice yet", p.Number)
	}
	if err != nil {
		return nil, domain.PersistenceFailure(err, "loading invoice for %s", p.Number)
	}
	if !inv.PaymentReceived() {
		return nil, domain.PaymentRequired("invoice %s is %s", inv.Number, inv.Status)
	}
	return inv, nil
}

// CreateProject starts a project from a paid proposal: one work title per
// line item, budget equal to the proposal total.
func (c *workflowCoordinator) CreateProject(ctx context.Context, actor domain.Actor, proposalRef, name string) (project *domain.Project, err error) {
	defer observe(ctx, c.observer, "workflow.create_project", map[string]any{"proposal": proposalRef}, &err)()

	err = c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		p, err := lookupProposal(ctx, repository.NewSQLiteProposalRepo(tx), proposalRef)
		if err != nil {
			return err
		}
		inv, err := paidInvoice(ctx, repository.NewSQLiteInvoiceRepo(tx), p)
		if err != nil {
			return err
		}

		projects := repository.NewSQLiteProjectRepo(tx)
		existing, err := projects.GetByProposalID(ctx, p.ID)
		if err == nil {
			return domain.InvalidTransition("proposal %s already has project %s", p.Number, existing.Number)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return domain.PersistenceFailure(err, "checking project for %s", p.Number)
		}

		seq, err := repository.NewSQLiteSequenceRepo(tx).Next(ctx, repository.SeqProject)
		if err != nil {
			return domain.PersistenceFailure(err, "numbering project")
		}

		now := c.settings.Now()
		project = &domain.Project{
			ID:          c.settings.NewID(),
			Number:      formatNumber(c.settings.Numbering.Project, seq),
			Name:        domain.CoalesceStr(strings.TrimSpace(name), p.Title),
			ProposalID:  p.ID,
			InvoiceID:   inv.ID,
			TotalBudget: p.TotalCost,
			Status:      domain.ProjectActive,
			CreatedBy:   actor.ID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		project.Steps.Owner = domain.Owner{Kind: domain.OwnerProject, ID: project.ID}
		if err := projects.Create(ctx, project); err != nil {
			return domain.PersistenceFailure(err, "creating project for %s", p.Number)
		}

		steps := repository.NewSQLiteStepRepo(tx)
		for i, li := range p.LineItems {
			w := &domain.WorkItem{
				ID:          c.settings.NewID(),
				Name:        li.Name,
				Description: fmt.Sprintf("%s x %s", li.Quantity.String(), li.UnitPrice.StringFixed(2)),
				Status:      domain.StepPending,
				Price:       li.Price(),
				OrderIndex:  i,
				CreatedBy:   actor.ID,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := steps.CreateItem(ctx, project.Steps.Owner, w); err != nil {
				return domain.PersistenceFailure(err, "creating work item %q", li.Name)
			}
			project.Steps.Items = append(project.Steps.Items, w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// CanMarkProjectComplete reports whether every work title of an active
// project is finished. A project without work titles qualifies.
func (c *workflowCoordinator) CanMarkProjectComplete(ctx context.Context, projectRef string) (bool, error) {
	p, err := lookupProject(ctx, c.projects, projectRef)
	if err != nil {
		return false, err
	}
	if p.Status == domain.ProjectCompleted {
		return false, nil
	}
	tree, err := c.steps.LoadBreakdown(ctx, p.Steps.Owner)
	if err != nil {
		return false, domain.PersistenceFailure(err, "loading steps of %s", p.Number)
	}
	return progress.AllFinished(tree.Items), nil
}

func (c *workflowCoordinator) MarkProjectComplete(ctx context.Context, actor domain.Actor, projectRef string) (project *domain.Project, err error) {
	defer observe(ctx, c.observer, "workflow.complete_project", map[string]any{"project": projectRef, "actor": actor.ID}, &err)()

	err = c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		projects := repository.NewSQLiteProjectRepo(tx)
		p, err := lookupProject(ctx, projects, projectRef)
		if err != nil {
			return err
		}
		tree, err := repository.NewSQLiteStepRepo(tx).LoadBreakdown(ctx, p.Steps.Owner)
		if err != nil {
			return domain.PersistenceFailure(err, "loading steps of %s", p.Number)
		}
		if !progress.AllFinished(tree.Items) {
			return domain.InvalidTransition("project %s has unfinished work items", p.Number)
		}
		now := c.settings.Now()
		if err := p.MarkCompleted(now); err != nil {
			return err
		}
		p.ProgressPercentage = progress.Percentage(tree.Items)
		p.Steps = *tree

		fields, err := patch.New().
			Set("status", string(p.Status)).
			Set("completed_at", now.Format(time.RFC3339)).
			Set("progress_percentage", p.ProgressPercentage).
			Set("updated_at", now.Format(time.RFC3339)).
			Doc()
		if err != nil {
			return err
		}
		if err := projects.UpdateFields(ctx, p.ID, fields); err != nil {
			return persistErr(err, "completing project %s", p.Number)
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (c *workflowCoordinator) CreateChangeOrder(ctx context.Context, actor domain.Actor, projectRef, title string) (co *domain.ChangeOrder, err error) {
	defer observe(ctx, c.observer, "workflow.create_change_order", map[string]any{"project": projectRef}, &err)()

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, domain.ValidationError(errRequired, "change order title")
	}
	err = c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		p, err := lookupProject(ctx, repository.NewSQLiteProjectRepo(tx), projectRef)
		if err != nil {
			return err
		}
		if p.Status == domain.ProjectCompleted {
			return domain.InvalidTransition("project %s is completed", p.Number)
		}
		seq, err := repository.NewSQLiteSequenceRepo(tx).Next(ctx, repository.SeqChangeOrder)
		if err != nil {
			return domain.PersistenceFailure(err, "numbering change order")
		}
		now := c.settings.Now()
		co = &domain.ChangeOrder{
			ID:               c.settings.NewID(),
			Number:           formatNumber(c.settings.Numbering.ChangeOrder, seq),
			ProjectID:        p.ID,
			Title:            title,
			Status:           domain.ChangeOrderPending,
			CompletionStatus: domain.StepPending,
			CreatedBy:        actor.ID,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		co.Steps.Owner = domain.Owner{Kind: domain.OwnerChangeOrder, ID: co.ID}
		if err := repository.NewSQLiteChangeOrderRepo(tx).Create(ctx, co); err != nil {
			return domain.PersistenceFailure(err, "creating change order on %s", p.Number)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return co, nil
}

func (c *workflowCoordinator) ApproveChangeOrder(ctx context.Context, actor domain.Actor, ref string) (*domain.ChangeOrder, error) {
	return c.decideChangeOrder(ctx, "workflow.approve_change_order", ref, func(co *domain.ChangeOrder, now time.Time) error {
		return co.Approve(actor, now)
	})
}

func (c *workflowCoordinator) RejectChangeOrder(ctx context.Context, actor domain.Actor, ref, reason string) (*domain.ChangeOrder, error) {
	return c.decideChangeOrder(ctx, "workflow.reject_change_order", ref, func(co *domain.ChangeOrder, now time.Time) error {
		return co.Reject(actor, reason, now)
	})
}

func (c *workflowCoordinator) decideChangeOrder(ctx context.Context, name, ref string, decide func(*domain.ChangeOrder, time.Time) error) (co *domain.ChangeOrder, err error) {
	defer observe(ctx, c.observer, name, map[string]any{"change_order": ref}, &err)()

	err = c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteChangeOrderRepo(tx)
		found, err := lookupChangeOrder(ctx, repo, ref)
		if err != nil {
			return err
		}
		if err := decide(found, c.settings.Now()); err != nil {
			return err
		}
		if err := repo.Update(ctx, found); err != nil {
			return persistErr(err, "saving change order %s", found.Number)
		}
		co = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return co, nil
}

func (c *workflowCoordinator) ListChangeOrders(ctx context.Context, projectRef string) ([]*domain.ChangeOrder, error) {
	p, err := lookupProject(ctx, c.projects, projectRef)
	if err != nil {
		return nil, err
	}
	cos, err := c.changeOrders.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, domain.PersistenceFailure(err, "listing change orders of %s", p.Number)
	}
	return cos, nil
}

// BudgetSummary sums the work title prices of approved change orders on top
// of the project's base budget. Pending and rejected change orders add nothing.
func (c *workflowCoordinator) BudgetSummary(ctx context.Context, projectRef string) (*BudgetSummary, error) {
	p, err := lookupProject(ctx, c.projects, projectRef)
	if err != nil {
		return nil, err
	}
	cos, err := c.changeOrders.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, domain.PersistenceFailure(err, "listing change orders of %s", p.Number)
	}
	extra, err := approvedChangeOrderTotal(ctx, c.steps, cos)
	if err != nil {
		return nil, err
	}
	return &BudgetSummary{
		Base:                 p.TotalBudget,
		ApprovedChangeOrders: extra,
		Effective:            p.TotalBudget.Add(extra),
		ClientBudget:         p.ClientBudget,
	}, nil
}

func approvedChangeOrderTotal(ctx context.Context, steps repository.StepRepo, cos []*domain.ChangeOrder) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, co := range cos {
		if co.Status != domain.ChangeOrderApproved {
			continue
		}
		tree, err := steps.LoadBreakdown(ctx, co.Steps.Owner)
		if err != nil {
			return decimal.Zero, domain.PersistenceFailure(err, "loading steps of %s", co.Number)
		}
		total = total.Add(tree.ItemsTotal())
	}
	return total, nil
}

// SetClientBudget records the client's stated budget. A nil amount clears it.
func (c *workflowCoordinator) SetClientBudget(ctx context.Context, projectRef string, amount *decimal.Decimal) (*domain.Project, error) {
	p, err := lookupProject(ctx, c.projects, projectRef)
	if err != nil {
		return nil, err
	}
	now := c.settings.Now()
	b := patch.New().Set("updated_at", now.Format(time.RFC3339))
	if amount != nil {
		b.Set("client_budget", amount.String())
	} else {
		b.Set("client_budget", nil)
	}
	fields, err := b.Doc()
	if err != nil {
		return nil, err
	}
	if err := c.projects.UpdateFields(ctx, p.ID, fields); err != nil {
		return nil, persistErr(err, "setting client budget of %s", p.Number)
	}
	p.ClientBudget = amount
	p.UpdatedAt = now
	return p, nil
}

var validInvoiceStatuses = map[domain.InvoiceStatus]bool{
	domain.InvoicePending:     true,
	domain.InvoicePartialPaid: true,
	domain.InvoicePaid:        true,
	domain.InvoiceOverdue:     true,
	domain.InvoiceCancelled:   true,
}

func (c *workflowCoordinator) SetInvoiceStatus(ctx context.Context, invoiceRef string, status domain.InvoiceStatus) (inv *domain.Invoice, err error) {
	defer observe(ctx, c.observer, "workflow.set_invoice_status", map[string]any{"invoice": invoiceRef, "status": string(status)}, &err)()

	if !validInvoiceStatuses[status] {
		return nil, domain.ValidationError(fmt.Errorf("unknown status %q", status), "invoice status")
	}
	err = c.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repo := repository.NewSQLiteInvoiceRepo(tx)
		found, err := lookupInvoice(ctx, repo, invoiceRef)
		if err != nil {
			return err
		}
		if err := found.SetStatus(status, c.settings.Now()); err != nil {
			return err
		}
		if err := repo.UpdateStatus(ctx, found); err != nil {
			return persistErr(err, "saving invoice %s", found.Number)
		}
		inv = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (c *workflowCoordinator) GetInvoice(ctx context.Context, ref string) (*domain.Invoice, error) {
	return lookupInvoice(ctx, c.invoices, ref)
}

func (c *workflowCoordinator) ListInvoices(ctx context.Context) ([]*domain.Invoice, error) {
	out, err := c.invoices.List(ctx)
	if err != nil {
		return nil, domain.PersistenceFailure(err, "listing invoices")
	}
	return out, nil
}

func (c *workflowCoordinator) GetProject(ctx context.Context, ref string) (*domain.Project, error) {
	return lookupProject(ctx, c.projects, ref)
}

func (c *workflowCoordinator) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	out, err := c.projects.List(ctx)
	if err != nil {
		return nil, domain.PersistenceFailure(err, "listing projects")
	}
	return out, nil
}
