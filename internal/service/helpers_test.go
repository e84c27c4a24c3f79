package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/pricing"
	"github.com/alexanderramin/foreman/internal/repository"
	"github.com/alexanderramin/foreman/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServices struct {
	db           *sql.DB
	uow          db.UnitOfWork
	settings     Settings
	proposalRepo *repository.SQLiteProposalRepo
	invoiceRepo  *repository.SQLiteInvoiceRepo
	projectRepo  *repository.SQLiteProjectRepo
	changeRepo   *repository.SQLiteChangeOrderRepo
	stepRepo     *repository.SQLiteStepRepo

	proposals ProposalService
	approvals ApprovalService
	workflow  WorkflowCoordinator
	steps     StepService
	reports   ReportService
}

func setupServices(t *testing.T) *testServices {
	t.Helper()
	database := testutil.NewTestDB(t)
	s := &testServices{
		db:           database,
		uow:          testutil.NewTestUoW(database),
		settings:     DefaultSettings(),
		proposalRepo: repository.NewSQLiteProposalRepo(database),
		invoiceRepo:  repository.NewSQLiteInvoiceRepo(database),
		projectRepo:  repository.NewSQLiteProjectRepo(database),
		changeRepo:   repository.NewSQLiteChangeOrderRepo(database),
		stepRepo:     repository.NewSQLiteStepRepo(database),
	}
	s.proposals = NewProposalService(s.proposalRepo, s.uow, s.settings)
	s.approvals = NewApprovalService(s.uow, s.settings)
	s.workflow = NewWorkflowCoordinator(s.proposalRepo, s.invoiceRepo, s.projectRepo, s.changeRepo, s.stepRepo, s.uow, s.settings)
	s.steps = NewStepService(s.stepRepo, s.projectRepo, s.changeRepo, s.uow, s.settings)
	s.reports = NewReportService(s.projectRepo, s.invoiceRepo, s.changeRepo, s.stepRepo, s.settings)
	return s
}

// twoItemDraft prices at 2000 items, 370 general conditions, 2370 total.
func twoItemDraft() ProposalDraft {
	return ProposalDraft{
		Title:      "Kitchen remodel",
		ClientName: "Dana Ruiz",
		LineItems: []domain.LineItem{
			pricing.LineItemFromStrings("Demolition", "1", "1000"),
			pricing.LineItemFromStrings("Framing", "2", "500"),
		},
		Supervision: domain.Supervision{Type: domain.SupervisionNone},
	}
}

func createProposal(t *testing.T, s *testServices) *domain.Proposal {
	t.Helper()
	p, err := s.proposals.Create(context.Background(), testutil.Staff, twoItemDraft())
	require.NoError(t, err)
	return p
}

// approvedProposal runs a proposal through both approval tracks and returns
// the final outcome, which carries the issued invoice.
func approvedProposal(t *testing.T, s *testServices) *ApprovalOutcome {
	t.Helper()
	ctx := context.Background()
	p := createProposal(t, s)

	_, err := s.approvals.SendForApproval(ctx, testutil.Staff, p.Number)
	require.NoError(t, err)
	_, err = s.approvals.ApproveByManagement(ctx, testutil.Manager, p.Number)
	require.NoError(t, err)
	out, err := s.approvals.ApproveByClient(ctx, testutil.Client, p.Number)
	require.NoError(t, err)
	require.NotNil(t, out.Invoice)
	return out
}

// paidProject creates a project from a fully approved, paid proposal.
func paidProject(t *testing.T, s *testServices) *domain.Project {
	t.Helper()
	ctx := context.Background()
	out := approvedProposal(t, s)

	_, err := s.workflow.SetInvoiceStatus(ctx, out.Invoice.Number, domain.InvoicePaid)
	require.NoError(t, err)
	project, err := s.workflow.CreateProject(ctx, testutil.Manager, out.Proposal.Number, "")
	require.NoError(t, err)
	return project
}

func assertCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var de *domain.Error
	require.True(t, errors.As(err, &de), "expected domain error, got %T: %v", err, err)
	assert.Equal(t, code, de.Code, "error: %v", err)
}
