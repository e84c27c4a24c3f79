// Package steptree owns the in-memory work breakdown of one project or change
// order. Every operation validates, mutates memory, re-derives the affected
// parent and the overall progress, then hands a Command to a Persister.
// A failed persist is reported but memory is kept; callers Reload to reconcile.
package steptree

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/patch"
	"github.com/alexanderramin/foreman/internal/pricing"
	"github.com/alexanderramin/foreman/internal/progress"
	"github.com/google/uuid"
	"github.com/hay-kot/criterio"
)

var errRequired = errors.New("is required")

// Store is owned by one caller session. The mutex only guards against
// accidental sharing; it does not make concurrent editing meaningful.
type Store struct {
	mu        sync.Mutex
	tree      *domain.WorkBreakdown
	persister Persister
	loader    Loader
	now       func() time.Time
	newID     func() string
}

type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides the ID generator.
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLoader sets the source Reload reads from.
func WithLoader(l Loader) Option {
	return func(s *Store) { s.loader = l }
}

// New wraps an already loaded breakdown.
func New(tree *domain.WorkBreakdown, p Persister, opts ...Option) *Store {
	s := &Store{
		tree:      tree,
		persister: p,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open loads owner's breakdown through l and returns a store that reloads from l.
func Open(ctx context.Context, l Loader, owner domain.Owner, p Persister, opts ...Option) (*Store, error) {
	tree, err := l.LoadBreakdown(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("loading %s %s: %w", owner.Kind, owner.ID, err)
	}
	return New(tree, p, append([]Option{WithLoader(l)}, opts...)...), nil
}

// Snapshot returns a deep copy of the current tree.
func (s *Store) Snapshot() *domain.WorkBreakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Clone()
}

// Progress returns the current completion percentage.
func (s *Store) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return progress.Percentage(s.tree.Items)
}

// Reload discards memory and re-reads the tree.
func (s *Store) Reload(ctx context.Context) error {
	if s.loader == nil {
		return fmt.Errorf("reload: store has no loader")
	}
	s.mu.Lock()
	owner := s.tree.Owner
	s.mu.Unlock()

	tree, err := s.loader.LoadBreakdown(ctx, owner)
	if err != nil {
		return domain.PersistenceFailure(err, "reloading %s %s", owner.Kind, owner.ID)
	}
	s.mu.Lock()
	s.tree = tree
	s.mu.Unlock()
	return nil
}

// AddWorkItem appends a pending work title. A blank price is rejected; a
// malformed one counts as zero.
func (s *Store) AddWorkItem(ctx context.Context, actor domain.Actor, name, description, price string) (*Result, error) {
	var b criterio.FieldErrorsBuilder
	if strings.TrimSpace(name) == "" {
		b = b.Append("name", errRequired)
	}
	if strings.TrimSpace(price) == "" {
		b = b.Append("price", errRequired)
	}
	if err := b.ToError(); err != nil {
		return nil, domain.ValidationError(err, "add work item")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	it := &domain.WorkItem{
		ID:          s.newID(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Status:      domain.StepPending,
		Price:       pricing.ParseAmount(price),
		OrderIndex:  len(s.tree.Items),
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.tree.Items = append(s.tree.Items, it)

	cmd := s.command("add_work_item", actor, Mutation{Kind: CreateItem, StepID: it.ID, Item: copyItem(it)})
	return s.commit(ctx, cmd, it.Status)
}

// AddWorkDescription appends a pending child to parentID. A parent missing
// from the loaded tree is reported as ParentNotFound so the caller can reload.
func (s *Store) AddWorkDescription(ctx context.Context, actor domain.Actor, parentID, name, description string) (*Result, error) {
	if strings.TrimSpace(name) == "" {
		return nil, domain.ValidationError(criterio.NewFieldErrors("name", errRequired), "add work description")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	parent, _ := s.tree.Item(parentID)
	if parent == nil {
		return nil, domain.ParentNotFound(parentID)
	}

	now := s.now()
	d := &domain.WorkDescription{
		ID:          s.newID(),
		ParentID:    parent.ID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Status:      domain.StepPending,
		OrderIndex:  len(parent.Children),
		CreatedBy:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	parent.Children = append(parent.Children, d)

	cd := *d
	muts := []Mutation{{Kind: CreateDescription, StepID: d.ID, Description: &cd}}
	muts = append(muts, s.derive(parent, now)...)
	cmd := s.command("add_work_description", actor, muts...)
	return s.commit(ctx, cmd, parent.Status)
}

// MoveWorkItem reinserts a work title at toIndex among work titles and
// renumbers its siblings densely. Out of range indices are clamped.
func (s *Store) MoveWorkItem(ctx context.Context, actor domain.Actor, id string, toIndex int) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, from := s.tree.Item(id)
	if it == nil {
		return nil, domain.EntityNotFound("work item", id, nil)
	}
	s.tree.Move(from, toIndex)
	muts := s.renumber(s.now())
	cmd := s.command("move_work_item", actor, muts...)
	return s.commit(ctx, cmd, it.Status)
}

// SetStatus sets a work title's or work description's status, then
// re-derives the parent and the progress.
func (s *Store) SetStatus(ctx context.Context, actor domain.Actor, id string, status domain.StepStatus, isChild bool, parentID string) (*Result, error) {
	if !domain.ValidStepStatuses[string(status)] {
		return nil, domain.ValidationError(
			criterio.NewFieldErrors("status", fmt.Errorf("unknown status %q", status)), "set status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var parent *domain.WorkItem
	var muts []Mutation
	if isChild {
		parent, _ = s.tree.Item(parentID)
		if parent == nil {
			return nil, domain.ParentNotFound(parentID)
		}
		child, _ := parent.Child(id)
		if child == nil {
			return nil, domain.EntityNotFound("work description", id, nil)
		}
		child.Status = status
		child.UpdatedAt = now
		muts = append(muts, update(child.ID, patch.New().
			Set("status", string(status)).
			Set("updated_at", now.Format(time.RFC3339))))
	} else {
		parent, _ = s.tree.Item(id)
		if parent == nil {
			return nil, domain.EntityNotFound("work item", id, nil)
		}
		parent.Status = status
		parent.UpdatedAt = now
		muts = append(muts, update(parent.ID, patch.New().
			Set("status", string(status)).
			Set("updated_at", now.Format(time.RFC3339))))
	}
	muts = append(muts, s.derive(parent, now)...)

	cmd := s.command("set_status", actor, muts...)
	return s.commit(ctx, cmd, parent.Status)
}

// ToggleManualOverride flips a work description's checkmark. Turning it on
// finishes the child; turning it off puts it back to pending.
func (s *Store) ToggleManualOverride(ctx context.Context, actor domain.Actor, childID, parentID string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, _ := s.tree.Item(parentID)
	if parent == nil {
		return nil, domain.ParentNotFound(parentID)
	}
	child, _ := parent.Child(childID)
	if child == nil {
		return nil, domain.EntityNotFound("work description", childID, nil)
	}

	now := s.now()
	child.ManualOverride = !child.ManualOverride
	if child.ManualOverride {
		child.Status = domain.StepFinished
	} else {
		child.Status = domain.StepPending
	}
	child.UpdatedAt = now

	muts := []Mutation{update(child.ID, patch.New().
		Set("manual_override", child.ManualOverride).
		Set("status", string(child.Status)).
		Set("updated_at", now.Format(time.RFC3339)))}
	muts = append(muts, s.derive(parent, now)...)

	cmd := s.command("toggle_manual_override", actor, muts...)
	return s.commit(ctx, cmd, parent.Status)
}

// DeleteWorkItem removes a work title with its children and closes the gap
// in the sibling order.
func (s *Store) DeleteWorkItem(ctx context.Context, actor domain.Actor, id string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, idx := s.tree.Item(id)
	if it == nil {
		return nil, domain.EntityNotFound("work item", id, nil)
	}
	s.tree.Items = append(s.tree.Items[:idx:idx], s.tree.Items[idx+1:]...)

	muts := []Mutation{{Kind: DeleteStep, StepID: id}}
	muts = append(muts, s.renumber(s.now())...)
	cmd := s.command("delete_work_item", actor, muts...)
	return s.commit(ctx, cmd, "")
}

// DeleteWorkDescription removes one child, closes the gap in its siblings'
// order and re-derives its parent. A parent left without children keeps its
// last status.
func (s *Store) DeleteWorkDescription(ctx context.Context, actor domain.Actor, id, parentID string) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	parent, _ := s.tree.Item(parentID)
	if parent == nil {
		return nil, domain.ParentNotFound(parentID)
	}
	child, idx := parent.Child(id)
	if child == nil {
		return nil, domain.EntityNotFound("work description", id, nil)
	}
	parent.Children = append(parent.Children[:idx:idx], parent.Children[idx+1:]...)

	now := s.now()
	muts := []Mutation{{Kind: DeleteStep, StepID: id}}
	for _, c := range parent.RenumberChildren() {
		c.UpdatedAt = now
		muts = append(muts, update(c.ID, patch.New().
			Set("order_index", c.OrderIndex).
			Set("updated_at", now.Format(time.RFC3339))))
	}
	muts = append(muts, s.derive(parent, now)...)
	cmd := s.command("delete_work_description", actor, muts...)
	return s.commit(ctx, cmd, parent.Status)
}

// derive re-applies the derived status rule to parent and returns the
// update for it when anything changed.
func (s *Store) derive(parent *domain.WorkItem, now time.Time) []Mutation {
	if !progress.ApplyDerivedStatus(parent) {
		return nil
	}
	parent.UpdatedAt = now
	return []Mutation{update(parent.ID, patch.New().
		Set("status", string(parent.Status)).
		Set("manual_override", parent.ManualOverride).
		Set("updated_at", now.Format(time.RFC3339)))}
}

func (s *Store) renumber(now time.Time) []Mutation {
	var muts []Mutation
	for _, it := range s.tree.Renumber() {
		it.UpdatedAt = now
		muts = append(muts, update(it.ID, patch.New().
			Set("order_index", it.OrderIndex).
			Set("updated_at", now.Format(time.RFC3339))))
	}
	return muts
}

func (s *Store) command(op string, actor domain.Actor, muts ...Mutation) Command {
	return Command{
		Op:         op,
		Owner:      s.tree.Owner,
		Actor:      actor,
		Mutations:  muts,
		Progress:   progress.Percentage(s.tree.Items),
		Completion: progress.Completion(s.tree.Items),
	}
}

// commit hands cmd to the persister. Memory has already changed; on failure
// the result is still returned alongside the error. Domain errors from the
// persister pass through, anything else becomes a PersistenceFailure.
func (s *Store) commit(ctx context.Context, cmd Command, parentStatus domain.StepStatus) (*Result, error) {
	res := &Result{Command: cmd, Progress: cmd.Progress, ParentStatus: parentStatus}
	if s.persister == nil {
		return res, nil
	}
	if err := s.persister.Apply(ctx, cmd); err != nil {
		var de *domain.Error
		if errors.As(err, &de) {
			return res, err
		}
		return res, domain.PersistenceFailure(err, "%s on %s %s", cmd.Op, cmd.Owner.Kind, cmd.Owner.ID)
	}
	return res, nil
}

// update builds an UpdateStep mutation. Field names are fixed literals, so
// the builder cannot fail.
func update(id string, b *patch.Builder) Mutation {
	doc, _ := b.Doc()
	return Mutation{Kind: UpdateStep, StepID: id, Fields: doc}
}

func copyItem(it *domain.WorkItem) *domain.WorkItem {
	cp := *it
	cp.Children = nil
	return &cp
}
