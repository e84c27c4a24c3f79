package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepService_PersistsTreeAndProgress(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	project := paidProject(t, s)

	store, err := s.steps.Open(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	items := store.Snapshot().Items
	require.Len(t, items, 2)
	demo := items[0].ID

	// Demolition: one child finished, one in progress -> 0.75 of its half.
	res, err := store.AddWorkDescription(ctx, testutil.Staff, demo, "Remove cabinets", "")
	require.NoError(t, err)
	first := res.Command.Mutations[0].Description.ID
	res, err = store.AddWorkDescription(ctx, testutil.Staff, demo, "Remove flooring", "")
	require.NoError(t, err)
	second := res.Command.Mutations[0].Description.ID

	_, err = store.SetStatus(ctx, testutil.Staff, first, domain.StepFinished, true, demo)
	require.NoError(t, err)
	res, err = store.SetStatus(ctx, testutil.Staff, second, domain.StepInProgress, true, demo)
	require.NoError(t, err)
	assert.Equal(t, domain.StepInProgress, res.ParentStatus)
	assert.Equal(t, 38, res.Progress)

	got, err := s.projectRepo.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 38, got.ProgressPercentage)

	tree, err := s.steps.Breakdown(ctx, domain.OwnerProject, project.ID)
	require.NoError(t, err)
	require.Len(t, tree.Items[0].Children, 2)
	assert.Equal(t, domain.StepInProgress, tree.Items[0].Status)
	assert.Equal(t, domain.StepFinished, tree.Items[0].Children[0].Status)
	assert.Equal(t, domain.StepInProgress, tree.Items[0].Children[1].Status)
}

func TestStepService_OverrideFinishesParentDurably(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	project := paidProject(t, s)

	store, err := s.steps.Open(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	framing := store.Snapshot().Items[1].ID
	res, err := store.AddWorkDescription(ctx, testutil.Staff, framing, "Walls", "")
	require.NoError(t, err)
	child := res.Command.Mutations[0].Description.ID

	res, err = store.ToggleManualOverride(ctx, testutil.Staff, child, framing)
	require.NoError(t, err)
	assert.Equal(t, domain.StepFinished, res.ParentStatus)

	tree, err := s.steps.Breakdown(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	parent := tree.Items[1]
	assert.Equal(t, domain.StepFinished, parent.Status)
	assert.True(t, parent.ManualOverride)
	assert.True(t, parent.Children[0].ManualOverride)
}

func TestStepService_MoveRenumbersDurably(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	project := paidProject(t, s)

	store, err := s.steps.Open(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	_, err = store.AddWorkItem(ctx, testutil.Staff, "Paint", "", "300")
	require.NoError(t, err)
	paint := store.Snapshot().Items[2].ID

	res, err := store.MoveWorkItem(ctx, testutil.Staff, paint, 0)
	require.NoError(t, err)
	assert.Len(t, res.Command.Mutations, 3)

	tree, err := s.steps.Breakdown(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	var names []string
	for i, it := range tree.Items {
		assert.Equal(t, i, it.OrderIndex)
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"Paint", "Demolition", "Framing"}, names)
}

func TestStepService_PersistenceFailureKeepsMemoryUntilReload(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	project := paidProject(t, s)

	failUoW := &testutil.FailingUoW{
		DB:     s.db,
		FailOn: 1,
		Err:    fmt.Errorf("injected step insert failure"),
	}
	svc := NewStepService(s.stepRepo, s.projectRepo, s.changeRepo, failUoW, s.settings)

	store, err := svc.Open(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	res, err := store.AddWorkItem(ctx, testutil.Staff, "Trim", "", "200")
	assertCode(t, err, domain.ErrPersistenceFailure)
	require.NotNil(t, res)
	assert.Len(t, store.Snapshot().Items, 3, "memory keeps the optimistic change")

	tree, err := s.steps.Breakdown(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	assert.Len(t, tree.Items, 2, "nothing was written")

	require.NoError(t, store.Reload(ctx))
	assert.Len(t, store.Snapshot().Items, 2)
}

func TestStepService_UnknownOwner(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	_, err := s.steps.Open(ctx, domain.OwnerProject, "PRJ-0404")
	assertCode(t, err, domain.ErrEntityNotFound)
	_, err = s.steps.Open(ctx, domain.OwnerChangeOrder, "CO-0404")
	assertCode(t, err, domain.ErrEntityNotFound)
	_, err = s.steps.Breakdown(ctx, domain.OwnerKind("estimate"), "x")
	assertCode(t, err, domain.ErrValidation)
}

func TestStepService_CompletedProjectStaysReadable(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	project := paidProject(t, s)

	store, err := s.steps.Open(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	for _, it := range store.Snapshot().Items {
		_, err := store.DeleteWorkItem(ctx, testutil.Staff, it.ID)
		require.NoError(t, err)
	}
	_, err = s.workflow.MarkProjectComplete(ctx, testutil.Manager, project.Number)
	require.NoError(t, err)

	tree, err := s.steps.Breakdown(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	assert.Empty(t, tree.Items)
}

func TestStepService_StaleStoreCannotWriteCompletedProject(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	project := paidProject(t, s)

	store, err := s.steps.Open(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	for _, it := range store.Snapshot().Items {
		_, err := store.SetStatus(ctx, testutil.Staff, it.ID, domain.StepFinished, false, "")
		require.NoError(t, err)
	}
	_, err = s.workflow.MarkProjectComplete(ctx, testutil.Manager, project.Number)
	require.NoError(t, err)

	_, err = store.AddWorkItem(ctx, testutil.Staff, "Punch list", "", "150")
	assertCode(t, err, domain.ErrInvalidTransition)

	tree, err := s.steps.Breakdown(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	assert.Len(t, tree.Items, 2)
	got, err := s.projectRepo.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.ProgressPercentage)
}

func TestStepService_RollupUsesConfiguredClock(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	project := paidProject(t, s)

	fixed := time.Date(2031, 1, 2, 3, 4, 5, 0, time.UTC)
	settings := s.settings
	settings.Now = func() time.Time { return fixed }
	svc := NewStepService(s.stepRepo, s.projectRepo, s.changeRepo, s.uow, settings)

	store, err := svc.Open(ctx, domain.OwnerProject, project.Number)
	require.NoError(t, err)
	first := store.Snapshot().Items[0]
	_, err = store.SetStatus(ctx, testutil.Staff, first.ID, domain.StepFinished, false, "")
	require.NoError(t, err)

	got, err := s.projectRepo.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, 50, got.ProgressPercentage)
	assert.True(t, fixed.Equal(got.UpdatedAt), "updated_at = %s", got.UpdatedAt)
}
