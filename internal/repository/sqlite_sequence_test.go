package repository

import (
	"context"
	"testing"

	"github.com/alexanderramin/foreman/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceRepo_Next_StartsAtOne(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	seqRepo := NewSQLiteSequenceRepo(database)

	seq1, err := seqRepo.Next(ctx, SeqProposal)
	require.NoError(t, err)
	assert.Equal(t, 1, seq1)

	seq2, err := seqRepo.Next(ctx, SeqProposal)
	require.NoError(t, err)
	assert.Equal(t, 2, seq2)
}

func TestSequenceRepo_Next_KindsAreIndependent(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	seqRepo := NewSQLiteSequenceRepo(database)

	for i := 0; i < 3; i++ {
		_, err := seqRepo.Next(ctx, SeqInvoice)
		require.NoError(t, err)
	}

	next, err := seqRepo.Next(ctx, SeqChangeOrder)
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	next, err = seqRepo.Next(ctx, SeqInvoice)
	require.NoError(t, err)
	assert.Equal(t, 4, next)
}
