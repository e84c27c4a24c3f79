package service

import (
	"context"
	"fmt"

	"github.com/alexanderramin/foreman/internal/app"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/importer"
)

type importService struct {
	proposals ProposalService
}

// NewImportService imports proposal files through the proposal service so
// numbering and pricing match proposals entered by hand.
func NewImportService(proposals ProposalService) ImportService {
	return &importService{proposals: proposals}
}

func (s *importService) ImportProposal(ctx context.Context, actor domain.Actor, filePath string) (*app.ImportResult, error) {
	schema, err := importer.LoadImportSchema(filePath)
	if err != nil {
		return nil, fmt.Errorf("loading import file: %w", err)
	}
	return s.importSchema(ctx, actor, schema)
}

func (s *importService) ImportProposalFromSchema(ctx context.Context, actor domain.Actor, schema *importer.ImportSchema) (*app.ImportResult, error) {
	return s.importSchema(ctx, actor, schema)
}

func (s *importService) importSchema(ctx context.Context, actor domain.Actor, schema *importer.ImportSchema) (*app.ImportResult, error) {
	if errs := importer.ValidateImportSchema(schema); len(errs) > 0 {
		return nil, domain.ValidationError(formatValidationErrors(errs), "import")
	}

	draft := importer.Convert(schema, actor)
	p, err := s.proposals.Create(ctx, actor, ProposalDraft{
		Title:                draft.Title,
		ClientName:           draft.ClientName,
		LineItems:            draft.LineItems,
		GeneralConditionsPct: draft.GeneralConditionsPct,
		Supervision:          draft.Supervision,
		Discount:             draft.Discount,
	})
	if err != nil {
		return nil, fmt.Errorf("creating proposal: %w", err)
	}

	return &app.ImportResult{
		Proposal:      p,
		LineItemCount: len(p.LineItems),
	}, nil
}

func formatValidationErrors(errs []error) error {
	msg := fmt.Sprintf("import validation failed (%d errors):", len(errs))
	for _, e := range errs {
		msg += "\n  - " + e.Error()
	}
	return fmt.Errorf("%s", msg)
}
