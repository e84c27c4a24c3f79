package steptree

import (
	"context"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/patch"
)

type MutationKind string

const (
	CreateItem        MutationKind = "create_item"
	CreateDescription MutationKind = "create_description"
	UpdateStep        MutationKind = "update_step"
	DeleteStep        MutationKind = "delete_step"
)

// Mutation is one persistence call. Exactly one of Item, Description or
// Fields is set, depending on Kind.
type Mutation struct {
	Kind        MutationKind
	StepID      string
	Item        *domain.WorkItem
	Description *domain.WorkDescription
	Fields      patch.Doc
}

// Command is the persistence intent of one store operation: the step writes
// in order, plus the owner's recomputed progress and completion.
type Command struct {
	Op         string
	Owner      domain.Owner
	Actor      domain.Actor
	Mutations  []Mutation
	Progress   int
	Completion domain.StepStatus
}

// Result is what a store operation hands back to its caller. ParentStatus is
// the status of the work item the operation touched, if any.
type Result struct {
	Command      Command
	Progress     int
	ParentStatus domain.StepStatus
}

// Persister applies a command to durable storage.
type Persister interface {
	Apply(ctx context.Context, cmd Command) error
}

// Loader reads a breakdown from durable storage.
type Loader interface {
	LoadBreakdown(ctx context.Context, owner domain.Owner) (*domain.WorkBreakdown, error)
}

// PersisterFunc adapts a function to Persister.
type PersisterFunc func(ctx context.Context, cmd Command) error

func (f PersisterFunc) Apply(ctx context.Context, cmd Command) error {
	return f(ctx, cmd)
}
