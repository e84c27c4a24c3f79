package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/patch"
	"github.com/alexanderramin/foreman/internal/repository"
	"github.com/alexanderramin/foreman/internal/steptree"
)

type stepService struct {
	steps        repository.StepRepo
	projects     repository.ProjectRepo
	changeOrders repository.ChangeOrderRepo
	uow          db.UnitOfWork
	settings     Settings
	observer     UseCaseObserver
}

func NewStepService(
	steps repository.StepRepo,
	projects repository.ProjectRepo,
	changeOrders repository.ChangeOrderRepo,
	uow db.UnitOfWork,
	settings Settings,
	observers ...UseCaseObserver,
) StepService {
	return &stepService{
		steps:        steps,
		projects:     projects,
		changeOrders: changeOrders,
		uow:          uow,
		settings:     settings.withDefaults(),
		observer:     useCaseObserverOrNoop(observers),
	}
}

// resolveOwner maps a reference to the breakdown owner. Completed projects
// and rejected change orders are read-only.
func (s *stepService) resolveOwner(ctx context.Context, kind domain.OwnerKind, ref string, forWrite bool) (domain.Owner, error) {
	switch kind {
	case domain.OwnerProject:
		p, err := lookupProject(ctx, s.projects, ref)
		if err != nil {
			return domain.Owner{}, err
		}
		if forWrite && p.Status == domain.ProjectCompleted {
			return domain.Owner{}, domain.InvalidTransition("project %s is completed", p.Number)
		}
		return p.Steps.Owner, nil
	case domain.OwnerChangeOrder:
		co, err := lookupChangeOrder(ctx, s.changeOrders, ref)
		if err != nil {
			return domain.Owner{}, err
		}
		if forWrite && co.Status == domain.ChangeOrderRejected {
			return domain.Owner{}, domain.InvalidTransition("change order %s is rejected", co.Number)
		}
		return co.Steps.Owner, nil
	}
	return domain.Owner{}, domain.ValidationError(fmt.Errorf("unknown owner kind %q", kind), "step owner")
}

func (s *stepService) Open(ctx context.Context, kind domain.OwnerKind, ref string) (*steptree.Store, error) {
	owner, err := s.resolveOwner(ctx, kind, ref, true)
	if err != nil {
		return nil, err
	}
	store, err := steptree.Open(ctx, s.steps, owner, &stepPersister{uow: s.uow, observer: s.observer, now: s.settings.Now},
		steptree.WithClock(s.settings.Now), steptree.WithIDs(s.settings.NewID))
	if err != nil {
		return nil, domain.PersistenceFailure(err, "opening steps")
	}
	return store, nil
}

func (s *stepService) Breakdown(ctx context.Context, kind domain.OwnerKind, ref string) (*domain.WorkBreakdown, error) {
	owner, err := s.resolveOwner(ctx, kind, ref, false)
	if err != nil {
		return nil, err
	}
	tree, err := s.steps.LoadBreakdown(ctx, owner)
	if err != nil {
		return nil, domain.PersistenceFailure(err, "loading steps")
	}
	return tree, nil
}

// stepPersister writes a steptree command and the owner's rollup in one
// transaction. The owner is re-read inside it, so a store opened before the
// project was completed or the change order rejected can no longer write.
type stepPersister struct {
	uow      db.UnitOfWork
	observer UseCaseObserver
	now      func() time.Time
}

func (p *stepPersister) Apply(ctx context.Context, cmd steptree.Command) (err error) {
	fields := map[string]any{
		"op":         cmd.Op,
		"owner":      cmd.Owner.ID,
		"owner_kind": string(cmd.Owner.Kind),
		"mutations":  len(cmd.Mutations),
		"progress":   cmd.Progress,
		"actor":      cmd.Actor.ID,
	}
	defer observe(ctx, p.observer, "steps."+cmd.Op, fields, &err)()

	return p.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		if err := guardOwnerWritable(ctx, tx, cmd.Owner); err != nil {
			return err
		}
		steps := repository.NewSQLiteStepRepo(tx)
		for _, m := range cmd.Mutations {
			if err := applyMutation(ctx, steps, cmd.Owner, m); err != nil {
				return err
			}
		}
		return updateOwnerRollup(ctx, tx, cmd, p.now())
	})
}

func applyMutation(ctx context.Context, steps repository.StepRepo, owner domain.Owner, m steptree.Mutation) error {
	switch m.Kind {
	case steptree.CreateItem:
		return steps.CreateItem(ctx, owner, m.Item)
	case steptree.CreateDescription:
		return steps.CreateDescription(ctx, owner, m.Description)
	case steptree.UpdateStep:
		return steps.UpdateFields(ctx, m.StepID, m.Fields)
	case steptree.DeleteStep:
		return steps.Delete(ctx, m.StepID)
	}
	return fmt.Errorf("unknown mutation kind %q", m.Kind)
}

func guardOwnerWritable(ctx context.Context, tx db.DBTX, owner domain.Owner) error {
	switch owner.Kind {
	case domain.OwnerProject:
		p, err := repository.NewSQLiteProjectRepo(tx).GetByID(ctx, owner.ID)
		if err != nil {
			return err
		}
		if p.Status == domain.ProjectCompleted {
			return domain.InvalidTransition("project %s is completed", p.Number)
		}
	case domain.OwnerChangeOrder:
		co, err := repository.NewSQLiteChangeOrderRepo(tx).GetByID(ctx, owner.ID)
		if err != nil {
			return err
		}
		if co.Status == domain.ChangeOrderRejected {
			return domain.InvalidTransition("change order %s is rejected", co.Number)
		}
	}
	return nil
}

// updateOwnerRollup stores the recomputed percentage on a project, or the
// completion status on a change order.
func updateOwnerRollup(ctx context.Context, tx db.DBTX, cmd steptree.Command, now time.Time) error {
	switch cmd.Owner.Kind {
	case domain.OwnerProject:
		fields, err := patch.New().
			Set("progress_percentage", cmd.Progress).
			Set("updated_at", now.Format(time.RFC3339)).
			Doc()
		if err != nil {
			return err
		}
		return repository.NewSQLiteProjectRepo(tx).UpdateFields(ctx, cmd.Owner.ID, fields)
	case domain.OwnerChangeOrder:
		repo := repository.NewSQLiteChangeOrderRepo(tx)
		co, err := repo.GetByID(ctx, cmd.Owner.ID)
		if err != nil {
			return err
		}
		if co.CompletionStatus == cmd.Completion {
			return nil
		}
		co.CompletionStatus = cmd.Completion
		co.UpdatedAt = now
		return repo.Update(ctx, co)
	}
	return fmt.Errorf("unknown owner kind %q", cmd.Owner.Kind)
}
