package app

import (
	"time"

	"github.com/alexanderramin/foreman/internal/domain"
)

type ProjectReportRequest struct {
	// ProjectRef is a project id or number.
	ProjectRef          string
	IncludeSteps        bool
	IncludeChangeOrders bool
}

func NewProjectReportRequest(ref string) ProjectReportRequest {
	return ProjectReportRequest{
		ProjectRef:          ref,
		IncludeSteps:        true,
		IncludeChangeOrders: true,
	}
}

type ProjectReport struct {
	GeneratedAt  time.Time            `json:"generated_at"`
	ProjectID    string               `json:"project_id"`
	Number       string               `json:"number"`
	Name         string               `json:"name"`
	Status       domain.ProjectStatus `json:"status"`
	Progress     int                  `json:"progress"`
	CanComplete  bool                 `json:"can_complete"`
	Budget       BudgetView           `json:"budget"`
	Invoice      *InvoiceView         `json:"invoice,omitempty"`
	Steps        []StepView           `json:"steps,omitempty"`
	ChangeOrders []ChangeOrderView    `json:"change_orders,omitempty"`
	Warnings     []string             `json:"warnings,omitempty"`
}

type ReportErrorCode string

const (
	ReportErrInvalidRequest  ReportErrorCode = "INVALID_REQUEST"
	ReportErrProjectNotFound ReportErrorCode = "PROJECT_NOT_FOUND"
)

type ReportError struct {
	Code    ReportErrorCode
	Message string
}

func (e *ReportError) Error() string {
	return string(e.Code) + ": " + e.Message
}
