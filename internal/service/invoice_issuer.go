package service

import (
	"context"
	"errors"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/repository"
)

// invoiceIssuer creates the invoice snapshot for a fully approved proposal.
// Costs are copied from the proposal as priced, never re-priced.
// It runs inside the caller's transaction so the approval and the invoice
// commit together.
type invoiceIssuer struct {
	settings Settings
}

// issue returns the proposal's invoice, creating it when none exists yet.
// The bool reports whether this call created it.
func (i invoiceIssuer) issue(ctx context.Context, tx db.DBTX, p *domain.Proposal) (*domain.Invoice, bool, error) {
	if !p.BothApproved() {
		return nil, false, domain.InvalidTransition("invoice: proposal %s is not approved by management and client", p.Number)
	}
	invoices := repository.NewSQLiteInvoiceRepo(tx)

	existing, err := invoices.GetByProposalID(ctx, p.ID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, false, domain.PersistenceFailure(err, "checking invoice for %s", p.Number)
	}

	seq, err := repository.NewSQLiteSequenceRepo(tx).Next(ctx, repository.SeqInvoice)
	if err != nil {
		return nil, false, domain.PersistenceFailure(err, "numbering invoice for %s", p.Number)
	}

	now := i.settings.Now()
	inv := &domain.Invoice{
		ID:          i.settings.NewID(),
		Number:      formatNumber(i.settings.Numbering.Invoice, seq),
		ProposalID:  p.ID,
		ClientName:  p.ClientName,
		LineItems:   append([]domain.LineItem(nil), p.LineItems...),
		Supervision: p.Supervision,
		Costs:       p.CostSnapshot(),
		Status:      domain.InvoicePending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := invoices.Create(ctx, inv); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			existing, getErr := invoices.GetByProposalID(ctx, p.ID)
			if getErr != nil {
				return nil, false, domain.PersistenceFailure(getErr, "reading invoice for %s", p.Number)
			}
			return existing, false, nil
		}
		return nil, false, domain.PersistenceFailure(err, "creating invoice for %s", p.Number)
	}
	return inv, true, nil
}
