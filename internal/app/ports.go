package app

import (
	"context"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/importer"
)

type ProjectReportUseCase interface {
	ProjectReport(ctx context.Context, req ProjectReportRequest) (*ProjectReport, error)
}

type ImportResult struct {
	Proposal      *domain.Proposal
	LineItemCount int
}

type ImportProposalUseCase interface {
	ImportProposal(ctx context.Context, actor domain.Actor, filePath string) (*ImportResult, error)
	ImportProposalFromSchema(ctx context.Context, actor domain.Actor, schema *importer.ImportSchema) (*ImportResult, error)
}
