package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

var (
	manager = Actor{ID: "u-mgr", Name: "Maria", Role: RoleManager}
	client  = Actor{ID: "u-cli", Name: "Chen", Role: RoleClient}
)

func newPendingProposal() *Proposal {
	return &Proposal{
		ID:                 "p1",
		Number:             "PRO-0001",
		ManagementApproval: ManagementPending,
	}
}

func TestSendForApproval_SetsMarkerOnly(t *testing.T) {
	p := newPendingProposal()
	require.NoError(t, p.SendForApproval(manager, testNow))
	require.NotNil(t, p.SentForApproval)
	assert.Equal(t, "u-mgr", p.SentForApproval.ActorID)
	assert.Equal(t, testNow, p.SentForApproval.At)
	assert.Equal(t, ManagementPending, p.ManagementApproval)
	assert.Equal(t, ClientNotReleased, p.ClientApproval)
	assert.False(t, p.Editable())

	err := p.SendForApproval(manager, testNow)
	assert.True(t, IsCode(err, ErrInvalidTransition))
}

func TestApproveByManagement_ReleasesToClient(t *testing.T) {
	p := newPendingProposal()
	require.NoError(t, p.ApproveByManagement(manager, testNow))
	assert.Equal(t, ManagementApproved, p.ManagementApproval)
	assert.Equal(t, ClientPending, p.ClientApproval)
	require.NotNil(t, p.ManagementDecision)
	assert.Equal(t, "Maria", p.ManagementDecision.ActorName)
	assert.False(t, p.BothApproved())
}

func TestApproveByClient_RequiresManagementApproval(t *testing.T) {
	p := newPendingProposal()
	p.ClientApproval = ClientPending

	err := p.ApproveByClient(client, testNow)
	assert.True(t, IsCode(err, ErrInvalidTransition))
	assert.Equal(t, ClientPending, p.ClientApproval)

	require.NoError(t, p.ApproveByManagement(manager, testNow))
	require.NoError(t, p.ApproveByClient(client, testNow))
	assert.True(t, p.BothApproved())
	assert.Equal(t, "u-cli", p.ClientDecision.ActorID)
}

func TestApproveByClient_AfterRequestChanges(t *testing.T) {
	p := newPendingProposal()
	require.NoError(t, p.ApproveByManagement(manager, testNow))
	require.NoError(t, p.RequestChanges(client, "swap tile supplier", testNow))
	assert.Equal(t, ClientRequestChanges, p.ClientApproval)
	assert.Equal(t, "swap tile supplier", p.ClientChangeRequest)

	require.NoError(t, p.ApproveByClient(client, testNow))
	assert.Equal(t, ClientApproved, p.ClientApproval)
}

func TestReject_EmptyReasonLeavesStateUnchanged(t *testing.T) {
	p := newPendingProposal()
	err := p.RejectByManagement(manager, "   ", testNow)
	assert.True(t, IsCode(err, ErrValidation))
	assert.Equal(t, ManagementPending, p.ManagementApproval)
	assert.Nil(t, p.ManagementDecision)

	require.NoError(t, p.ApproveByManagement(manager, testNow))
	err = p.RejectByClient(client, "", testNow)
	assert.True(t, IsCode(err, ErrValidation))
	assert.Equal(t, ClientPending, p.ClientApproval)
	assert.Empty(t, p.ClientRejectionReason)
}

func TestRejected_IsTerminal(t *testing.T) {
	p := newPendingProposal()
	require.NoError(t, p.RejectByManagement(manager, "over budget", testNow))
	assert.Equal(t, "over budget", p.ManagementRejectionReason)

	ops := map[string]func() error{
		"send":      func() error { return p.SendForApproval(manager, testNow) },
		"approve":   func() error { return p.ApproveByManagement(manager, testNow) },
		"reject":    func() error { return p.RejectByManagement(manager, "again", testNow) },
		"send back": func() error { return p.SendBackForReview(manager, testNow) },
		"client ok": func() error { return p.ApproveByClient(client, testNow) },
		"client no": func() error { return p.RejectByClient(client, "no", testNow) },
		"changes":   func() error { return p.RequestChanges(client, "tweak", testNow) },

		"reject blank":    func() error { return p.RejectByManagement(manager, "", testNow) },
		"client no blank": func() error { return p.RejectByClient(client, " ", testNow) },
		"changes blank":   func() error { return p.RequestChanges(client, "", testNow) },
	}
	for name, op := range ops {
		err := op()
		assert.True(t, IsCode(err, ErrInvalidTransition), "op=%s err=%v", name, err)
		assert.Equal(t, ManagementRejected, p.ManagementApproval, "op=%s", name)
	}
}

func TestClientRejection_IsTerminal(t *testing.T) {
	p := newPendingProposal()
	require.NoError(t, p.ApproveByManagement(manager, testNow))
	require.NoError(t, p.RejectByClient(client, "too slow", testNow))

	err := p.ApproveByClient(client, testNow)
	assert.True(t, IsCode(err, ErrInvalidTransition))
	assert.Equal(t, ClientRejected, p.ClientApproval)
}

func TestSendBackForReview_ReopensForEdits(t *testing.T) {
	p := newPendingProposal()
	require.NoError(t, p.SendForApproval(manager, testNow))
	require.NoError(t, p.ApproveByManagement(manager, testNow))
	assert.False(t, p.Editable())

	later := testNow.Add(time.Hour)
	require.NoError(t, p.SendBackForReview(manager, later))
	assert.Nil(t, p.SentForApproval)
	assert.Equal(t, ManagementPending, p.ManagementApproval)
	assert.Equal(t, ClientNotReleased, p.ClientApproval)
	require.NotNil(t, p.ReturnedForReview)
	assert.Equal(t, later, p.ReturnedForReview.At)
	assert.True(t, p.Editable())
}

func TestSendBackForReview_KeepsClientApproval(t *testing.T) {
	p := newPendingProposal()
	require.NoError(t, p.ApproveByManagement(manager, testNow))
	require.NoError(t, p.ApproveByClient(client, testNow))
	require.True(t, p.BothApproved())

	require.NoError(t, p.SendBackForReview(manager, testNow))
	assert.Equal(t, ManagementPending, p.ManagementApproval)
	assert.Equal(t, ClientApproved, p.ClientApproval)
	assert.NotNil(t, p.ClientDecision)
	assert.False(t, p.BothApproved())

	require.NoError(t, p.ApproveByManagement(manager, testNow))
	assert.True(t, p.BothApproved())
}

func TestRevise_OnlyWhileEditable(t *testing.T) {
	p := newPendingProposal()
	require.NoError(t, p.Revise([]LineItem{{Name: "Demo"}}, "10", Supervision{Type: SupervisionNone}, p.Discount, testNow))
	assert.Len(t, p.LineItems, 1)
	assert.Equal(t, "10", p.GeneralConditionsPct)

	require.NoError(t, p.SendForApproval(manager, testNow))
	err := p.Revise(nil, "", Supervision{}, p.Discount, testNow)
	assert.True(t, IsCode(err, ErrInvalidTransition))
	assert.Len(t, p.LineItems, 1)
}

func TestCostSnapshot_FallsBackToTotalForUnpricedRows(t *testing.T) {
	p := newPendingProposal()
	p.TotalCost = decimal.NewFromInt(1200)
	p.Discount = decimal.NewFromInt(50)

	snap := p.CostSnapshot()
	assert.True(t, decimal.NewFromInt(1200).Equal(snap.TotalCost))
	assert.True(t, decimal.NewFromInt(50).Equal(snap.Discount))
	assert.True(t, snap.ItemsTotal.IsZero())

	priced := CostBreakdown{ItemsTotal: decimal.NewFromInt(1000), TotalCost: decimal.NewFromInt(1185)}
	p.SetCosts(priced)
	assert.Equal(t, priced, p.CostSnapshot())
	assert.True(t, p.TotalCost.Equal(priced.TotalCost))
}
