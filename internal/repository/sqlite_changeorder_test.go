package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeOrderRepo_CreateGetUpdate(t *testing.T) {
	db := testutil.NewTestDB(t)
	projects := NewSQLiteProjectRepo(db)
	repo := NewSQLiteChangeOrderRepo(db)
	ctx := context.Background()

	proj := testutil.NewTestProject("Addition")
	require.NoError(t, projects.Create(ctx, proj))

	co := testutil.NewTestChangeOrder(proj.ID, "Extra outlet")
	require.NoError(t, repo.Create(ctx, co))

	fetched, err := repo.GetByID(ctx, co.ID)
	require.NoError(t, err)
	assert.Equal(t, "Extra outlet", fetched.Title)
	assert.Equal(t, domain.ChangeOrderPending, fetched.Status)
	assert.Nil(t, fetched.Decision)

	byNumber, err := repo.GetByID(ctx, co.Number)
	require.NoError(t, err)
	assert.Equal(t, co.ID, byNumber.ID)

	require.NoError(t, fetched.Reject(testutil.Manager, "Out of scope", time.Now().UTC()))
	require.NoError(t, repo.Update(ctx, fetched))

	again, err := repo.GetByID(ctx, co.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChangeOrderRejected, again.Status)
	assert.Equal(t, "Out of scope", again.RejectionReason)
	require.NotNil(t, again.Decision)
	assert.Equal(t, testutil.Manager.ID, again.Decision.ActorID)
}

func TestChangeOrderRepo_ListByProject(t *testing.T) {
	db := testutil.NewTestDB(t)
	projects := NewSQLiteProjectRepo(db)
	repo := NewSQLiteChangeOrderRepo(db)
	ctx := context.Background()

	p1 := testutil.NewTestProject("P1")
	p2 := testutil.NewTestProject("P2")
	require.NoError(t, projects.Create(ctx, p1))
	require.NoError(t, projects.Create(ctx, p2))

	require.NoError(t, repo.Create(ctx, testutil.NewTestChangeOrder(p1.ID, "a")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestChangeOrder(p1.ID, "b")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestChangeOrder(p2.ID, "c")))

	list, err := repo.ListByProject(ctx, p1.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
