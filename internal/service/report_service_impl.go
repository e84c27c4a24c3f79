package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/foreman/internal/app"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/progress"
	"github.com/alexanderramin/foreman/internal/repository"
)

type reportService struct {
	projects     repository.ProjectRepo
	invoices     repository.InvoiceRepo
	changeOrders repository.ChangeOrderRepo
	steps        repository.StepRepo
	settings     Settings
	observer     UseCaseObserver
}

func NewReportService(
	projects repository.ProjectRepo,
	invoices repository.InvoiceRepo,
	changeOrders repository.ChangeOrderRepo,
	steps repository.StepRepo,
	settings Settings,
	observers ...UseCaseObserver,
) ReportService {
	return &reportService{
		projects:     projects,
		invoices:     invoices,
		changeOrders: changeOrders,
		steps:        steps,
		settings:     settings.withDefaults(),
		observer:     useCaseObserverOrNoop(observers),
	}
}

func (s *reportService) ProjectReport(ctx context.Context, req app.ProjectReportRequest) (report *app.ProjectReport, err error) {
	defer observe(ctx, s.observer, "report.project", map[string]any{"project": req.ProjectRef}, &err)()

	if strings.TrimSpace(req.ProjectRef) == "" {
		return nil, &app.ReportError{Code: app.ReportErrInvalidRequest, Message: "project reference is required"}
	}
	p, err := lookupProject(ctx, s.projects, req.ProjectRef)
	if err != nil {
		if domain.IsCode(err, domain.ErrEntityNotFound) {
			return nil, &app.ReportError{Code: app.ReportErrProjectNotFound, Message: fmt.Sprintf("project %s not found", req.ProjectRef)}
		}
		return nil, err
	}

	tree, err := s.steps.LoadBreakdown(ctx, p.Steps.Owner)
	if err != nil {
		return nil, domain.PersistenceFailure(err, "loading steps of %s", p.Number)
	}
	cos, err := s.changeOrders.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, domain.PersistenceFailure(err, "listing change orders of %s", p.Number)
	}
	extra, err := approvedChangeOrderTotal(ctx, s.steps, cos)
	if err != nil {
		return nil, err
	}

	report = &app.ProjectReport{
		GeneratedAt: s.settings.Now(),
		ProjectID:   p.ID,
		Number:      p.Number,
		Name:        p.Name,
		Status:      p.Status,
		Progress:    progress.Percentage(tree.Items),
		CanComplete: p.Status == domain.ProjectActive && progress.AllFinished(tree.Items),
		Budget: app.BudgetView{
			Base:                 p.TotalBudget,
			ApprovedChangeOrders: extra,
			Effective:            p.TotalBudget.Add(extra),
			ClientBudget:         p.ClientBudget,
		},
	}
	if report.Progress != p.ProgressPercentage {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("stored progress %d%% differs from computed %d%%", p.ProgressPercentage, report.Progress))
	}
	if p.ClientBudget != nil && report.Budget.Effective.GreaterThan(*p.ClientBudget) {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("effective budget %s exceeds client budget %s",
				report.Budget.Effective.StringFixed(2), p.ClientBudget.StringFixed(2)))
	}

	if err := s.attachInvoice(ctx, report, p); err != nil {
		return nil, err
	}
	if req.IncludeSteps {
		report.Steps = stepViews(tree)
	}
	if req.IncludeChangeOrders {
		for _, co := range cos {
			view, err := s.changeOrderView(ctx, co)
			if err != nil {
				return nil, err
			}
			report.ChangeOrders = append(report.ChangeOrders, view)
		}
	}
	return report, nil
}

func (s *reportService) attachInvoice(ctx context.Context, report *app.ProjectReport, p *domain.Project) error {
	if p.InvoiceID == "" {
		return nil
	}
	inv, err := s.invoices.GetByID(ctx, p.InvoiceID)
	if errors.Is(err, repository.ErrNotFound) {
		report.Warnings = append(report.Warnings, fmt.Sprintf("invoice %s is missing", p.InvoiceID))
		return nil
	}
	if err != nil {
		return domain.PersistenceFailure(err, "loading invoice of %s", p.Number)
	}
	report.Invoice = &app.InvoiceView{
		ID:         inv.ID,
		Number:     inv.Number,
		Status:     inv.Status,
		TotalCost:  inv.Costs.TotalCost,
		PaymentMet: inv.PaymentReceived(),
	}
	return nil
}

func (s *reportService) changeOrderView(ctx context.Context, co *domain.ChangeOrder) (app.ChangeOrderView, error) {
	tree, err := s.steps.LoadBreakdown(ctx, co.Steps.Owner)
	if err != nil {
		return app.ChangeOrderView{}, domain.PersistenceFailure(err, "loading steps of %s", co.Number)
	}
	return app.ChangeOrderView{
		ID:               co.ID,
		Number:           co.Number,
		Title:            co.Title,
		Status:           co.Status,
		CompletionStatus: co.CompletionStatus,
		ItemsTotal:       tree.ItemsTotal(),
		Progress:         progress.Percentage(tree.Items),
	}, nil
}

func stepViews(tree *domain.WorkBreakdown) []app.StepView {
	var out []app.StepView
	for _, it := range tree.Items {
		out = append(out, app.StepView{
			ID:             it.ID,
			Level:          0,
			OrderIndex:     it.OrderIndex,
			Name:           it.Name,
			Status:         it.Status,
			ManualOverride: it.ManualOverride,
			Price:          it.Price,
			Fraction:       progress.ItemFraction(it),
		})
		for _, c := range it.Children {
			var frac float64
			switch {
			case c.Done():
				frac = 1
			case c.Status == domain.StepInProgress:
				frac = 0.5
			}
			out = append(out, app.StepView{
				ID:             c.ID,
				ParentID:       it.ID,
				Level:          1,
				OrderIndex:     c.OrderIndex,
				Name:           c.Name,
				Status:         c.Status,
				ManualOverride: c.ManualOverride,
				Fraction:       frac,
			})
		}
	}
	return out
}
