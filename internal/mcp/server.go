package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexanderramin/foreman/internal/app"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/pricing"
	"github.com/alexanderramin/foreman/internal/service"
	"github.com/alexanderramin/foreman/internal/steptree"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Services are the use cases exposed as tools.
type Services struct {
	Proposals service.ProposalService
	Approvals service.ApprovalService
	Workflow  service.WorkflowCoordinator
	Steps     service.StepService
	Reports   service.ReportService
}

// NewServer creates a new MCP server. Every mutation is recorded as actor.
func NewServer(svc Services, actor domain.Actor, logger zerolog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Foreman", "0.1.0")
	h := &handlers{svc: svc, actor: actor, log: logger.With().Str("component", "mcp").Logger()}

	// Reporting
	s.AddTool(mcp.NewTool("project_report",
		mcp.WithDescription("Progress, budget, invoice state and work breakdown of a project."),
		mcp.WithString("project", mcp.Description("Project id or number (e.g. PRJ-0001)"), mcp.Required()),
		mcp.WithBoolean("include_steps", mcp.Description("Include the step rows (default true)")),
	), h.projectReport)

	// Steps
	s.AddTool(mcp.NewTool("step_add",
		mcp.WithDescription("Add a work title, or a work description when parent is given."),
		ownerKindParam(),
		mcp.WithString("owner", mcp.Description("Project or change order id or number"), mcp.Required()),
		mcp.WithString("name", mcp.Description("Step name"), mcp.Required()),
		mcp.WithString("parent", mcp.Description("Work title id; adds a description under it")),
		mcp.WithString("description", mcp.Description("Free text description")),
		mcp.WithString("price", mcp.Description("Price of a work title, e.g. \"$1,200\"")),
	), h.stepAdd)

	s.AddTool(mcp.NewTool("step_set_status",
		mcp.WithDescription("Set the status of a step and return the recomputed progress."),
		ownerKindParam(),
		mcp.WithString("owner", mcp.Description("Project or change order id or number"), mcp.Required()),
		mcp.WithString("step", mcp.Description("Step id"), mcp.Required()),
		mcp.WithString("status", mcp.Description("pending|in_progress|finished"), mcp.Required()),
		mcp.WithString("parent", mcp.Description("Work title id when the step is a description")),
	), h.stepSetStatus)

	s.AddTool(mcp.NewTool("step_toggle_override",
		mcp.WithDescription("Toggle the manual override of a work description."),
		ownerKindParam(),
		mcp.WithString("owner", mcp.Description("Project or change order id or number"), mcp.Required()),
		mcp.WithString("step", mcp.Description("Work description id"), mcp.Required()),
		mcp.WithString("parent", mcp.Description("Work title id"), mcp.Required()),
	), h.stepToggleOverride)

	// Approvals
	s.AddTool(mcp.NewTool("proposal_approve",
		mcp.WithDescription("Approve a proposal on the management or client track. Issues the invoice once both are approved."),
		mcp.WithString("proposal", mcp.Description("Proposal id or number"), mcp.Required()),
		mcp.WithString("track", mcp.Description("management|client"), mcp.Required()),
	), h.proposalApprove)

	s.AddTool(mcp.NewTool("proposal_reject",
		mcp.WithDescription("Reject a proposal on the management or client track."),
		mcp.WithString("proposal", mcp.Description("Proposal id or number"), mcp.Required()),
		mcp.WithString("track", mcp.Description("management|client"), mcp.Required()),
		mcp.WithString("reason", mcp.Description("Rejection reason"), mcp.Required()),
	), h.proposalReject)

	// Invoices and pricing
	s.AddTool(mcp.NewTool("invoice_set_status",
		mcp.WithDescription("Record invoice payment progress."),
		mcp.WithString("invoice", mcp.Description("Invoice id or number"), mcp.Required()),
		mcp.WithString("status", mcp.Description("partial_paid|paid|overdue|cancelled"), mcp.Required()),
	), h.invoiceSetStatus)

	s.AddTool(mcp.NewTool("price_quote",
		mcp.WithDescription("Price line items without saving anything."),
		mcp.WithString("line_items", mcp.Description(`JSON array of {"name","quantity","unit_price"}`), mcp.Required()),
		mcp.WithString("general_conditions_pct", mcp.Description("General conditions percentage (blank for the default)")),
		mcp.WithString("supervision_type", mcp.Description("none|part_time|full_time")),
		mcp.WithString("supervision_weeks", mcp.Description("Supervision weeks")),
		mcp.WithString("discount", mcp.Description("Discount amount")),
	), h.priceQuote)

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func ownerKindParam() mcp.ToolOption {
	return mcp.WithString("owner_kind", mcp.Description("project|change_order (default project)"))
}

type handlers struct {
	svc   Services
	actor domain.Actor
	log   zerolog.Logger
}

func (h *handlers) fail(tool string, err error) (*mcp.CallToolResult, error) {
	h.log.Warn().Err(err).Str("tool", tool).Msg("tool failed")
	return mcp.NewToolResultError(err.Error()), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *handlers) projectReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := app.NewProjectReportRequest(mcp.ParseString(request, "project", ""))
	req.IncludeSteps = mcp.ParseBoolean(request, "include_steps", true)

	report, err := h.svc.Reports.ProjectReport(ctx, req)
	if err != nil {
		return h.fail("project_report", err)
	}
	return jsonResult(report)
}

func (h *handlers) openStore(ctx context.Context, request mcp.CallToolRequest) (*steptree.Store, error) {
	kind := domain.OwnerKind(mcp.ParseString(request, "owner_kind", string(domain.OwnerProject)))
	return h.svc.Steps.Open(ctx, kind, mcp.ParseString(request, "owner", ""))
}

// createdID returns the id of the first step a command creates, if any.
func createdID(cmd steptree.Command) string {
	for _, m := range cmd.Mutations {
		switch m.Kind {
		case steptree.CreateItem:
			return m.Item.ID
		case steptree.CreateDescription:
			return m.Description.ID
		}
	}
	return ""
}

func stepResult(res *steptree.Result) (*mcp.CallToolResult, error) {
	out, _ := sjson.Set("{}", "progress", res.Progress)
	if res.ParentStatus != "" {
		out, _ = sjson.Set(out, "parent_status", string(res.ParentStatus))
	}
	if id := createdID(res.Command); id != "" {
		out, _ = sjson.Set(out, "id", id)
	}
	out, _ = sjson.Set(out, "mutations", len(res.Command.Mutations))
	return mcp.NewToolResultText(out), nil
}

func (h *handlers) stepAdd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := h.openStore(ctx, request)
	if err != nil {
		return h.fail("step_add", err)
	}
	name := mcp.ParseString(request, "name", "")
	description := mcp.ParseString(request, "description", "")

	var res *steptree.Result
	if parent := mcp.ParseString(request, "parent", ""); parent != "" {
		res, err = store.AddWorkDescription(ctx, h.actor, parent, name, description)
	} else {
		res, err = store.AddWorkItem(ctx, h.actor, name, description, mcp.ParseString(request, "price", ""))
	}
	if err != nil {
		return h.fail("step_add", err)
	}
	return stepResult(res)
}

func (h *handlers) stepSetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status := mcp.ParseString(request, "status", "")
	if !domain.ValidStepStatuses[status] {
		return mcp.NewToolResultError(fmt.Sprintf("invalid status %q (pending|in_progress|finished)", status)), nil
	}
	store, err := h.openStore(ctx, request)
	if err != nil {
		return h.fail("step_set_status", err)
	}
	parent := mcp.ParseString(request, "parent", "")
	res, err := store.SetStatus(ctx, h.actor, mcp.ParseString(request, "step", ""), domain.StepStatus(status), parent != "", parent)
	if err != nil {
		return h.fail("step_set_status", err)
	}
	return stepResult(res)
}

func (h *handlers) stepToggleOverride(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := h.openStore(ctx, request)
	if err != nil {
		return h.fail("step_toggle_override", err)
	}
	res, err := store.ToggleManualOverride(ctx, h.actor, mcp.ParseString(request, "step", ""), mcp.ParseString(request, "parent", ""))
	if err != nil {
		return h.fail("step_toggle_override", err)
	}
	return stepResult(res)
}

func approvalResult(out *service.ApprovalOutcome) (*mcp.CallToolResult, error) {
	p := out.Proposal
	res, _ := sjson.Set("{}", "proposal", p.Number)
	res, _ = sjson.Set(res, "management_approval", string(p.ManagementApproval))
	res, _ = sjson.Set(res, "client_approval", string(p.ClientApproval))
	if out.Invoice != nil {
		res, _ = sjson.Set(res, "invoice.number", out.Invoice.Number)
		res, _ = sjson.Set(res, "invoice.total_cost", out.Invoice.Costs.TotalCost.String())
		res, _ = sjson.Set(res, "invoice.created", out.InvoiceCreated)
	}
	return mcp.NewToolResultText(res), nil
}

func (h *handlers) proposalApprove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := mcp.ParseString(request, "proposal", "")
	var (
		out *service.ApprovalOutcome
		err error
	)
	switch track := strings.ToLower(mcp.ParseString(request, "track", "")); track {
	case "management":
		out, err = h.svc.Approvals.ApproveByManagement(ctx, h.actor, ref)
	case "client":
		out, err = h.svc.Approvals.ApproveByClient(ctx, h.actor, ref)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid track %q (management|client)", track)), nil
	}
	if err != nil {
		return h.fail("proposal_approve", err)
	}
	return approvalResult(out)
}

func (h *handlers) proposalReject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := mcp.ParseString(request, "proposal", "")
	reason := mcp.ParseString(request, "reason", "")
	var (
		out *service.ApprovalOutcome
		err error
	)
	switch track := strings.ToLower(mcp.ParseString(request, "track", "")); track {
	case "management":
		out, err = h.svc.Approvals.RejectByManagement(ctx, h.actor, ref, reason)
	case "client":
		out, err = h.svc.Approvals.RejectByClient(ctx, h.actor, ref, reason)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("invalid track %q (management|client)", track)), nil
	}
	if err != nil {
		return h.fail("proposal_reject", err)
	}
	return approvalResult(out)
}

func (h *handlers) invoiceSetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	inv, err := h.svc.Workflow.SetInvoiceStatus(ctx,
		mcp.ParseString(request, "invoice", ""),
		domain.InvoiceStatus(mcp.ParseString(request, "status", "")))
	if err != nil {
		return h.fail("invoice_set_status", err)
	}
	res, _ := sjson.Set("{}", "invoice", inv.Number)
	res, _ = sjson.Set(res, "status", string(inv.Status))
	res, _ = sjson.Set(res, "payment_met", inv.PaymentReceived())
	return mcp.NewToolResultText(res), nil
}

func (h *handlers) priceQuote(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := mcp.ParseString(request, "line_items", "")
	if !gjson.Valid(raw) || !gjson.Parse(raw).IsArray() {
		return mcp.NewToolResultError("line_items must be a JSON array"), nil
	}

	draft := service.ProposalDraft{
		GeneralConditionsPct: mcp.ParseString(request, "general_conditions_pct", ""),
		Supervision: domain.Supervision{
			Type:  pricing.ParseSupervisionType(mcp.ParseString(request, "supervision_type", "")),
			Weeks: pricing.ParseAmount(mcp.ParseString(request, "supervision_weeks", "")),
		},
		Discount: pricing.ParseAmount(mcp.ParseString(request, "discount", "")),
	}
	gjson.Parse(raw).ForEach(func(_, item gjson.Result) bool {
		draft.LineItems = append(draft.LineItems, pricing.LineItemFromStrings(
			item.Get("name").String(),
			item.Get("quantity").String(),
			item.Get("unit_price").String(),
		))
		return true
	})

	costs, err := h.svc.Proposals.Quote(draft)
	if err != nil {
		return h.fail("price_quote", err)
	}
	return jsonResult(costs)
}
