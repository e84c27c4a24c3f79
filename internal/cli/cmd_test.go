package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/repository"
	"github.com/alexanderramin/foreman/internal/service"
	"github.com/alexanderramin/foreman/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	db := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(db)
	settings := service.DefaultSettings()

	proposals := repository.NewSQLiteProposalRepo(db)
	invoices := repository.NewSQLiteInvoiceRepo(db)
	projects := repository.NewSQLiteProjectRepo(db)
	changeOrders := repository.NewSQLiteChangeOrderRepo(db)
	steps := repository.NewSQLiteStepRepo(db)

	proposalSvc := service.NewProposalService(proposals, uow, settings)
	return &App{
		Proposals: proposalSvc,
		Approvals: service.NewApprovalService(uow, settings),
		Workflow:  service.NewWorkflowCoordinator(proposals, invoices, projects, changeOrders, steps, uow, settings),
		Steps:     service.NewStepService(steps, projects, changeOrders, uow, settings),
		Reports:   service.NewReportService(projects, invoices, changeOrders, steps, settings),
		Import:    service.NewImportService(proposalSvc),
		Actor:     testutil.Manager,
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return stripANSI(buf.String()), err
}

func mustExecute(t *testing.T, app *App, args ...string) string {
	t.Helper()
	out, err := executeCmd(t, app, args...)
	require.NoError(t, err, "foreman %v: %s", args, out)
	return out
}

var ansi = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansi.ReplaceAllString(s, "") }

// seedInvoicedProposal creates PRO-0001 (Tile 10 x $100) and takes it
// through both approvals, which issues INV-0001.
func seedInvoicedProposal(t *testing.T, app *App) {
	t.Helper()
	mustExecute(t, app, "proposal", "create", "--title", "Bath refresh", "--client", "Kim Ode", "--item", "Tile:10:$100")
	mustExecute(t, app, "proposal", "send", "PRO-0001")
	mustExecute(t, app, "proposal", "approve", "PRO-0001")
	out := mustExecute(t, app, "proposal", "approve", "pro-0001", "--as", "client")
	require.Contains(t, out, "Issued invoice INV-0001")
}

func TestProposalCreate_WithFlags(t *testing.T) {
	app := testApp(t)

	out := mustExecute(t, app, "proposal", "create",
		"--title", "Kitchen", "--client", "Ana Ruiz",
		"--item", "Cabinets:2:$1,000", "--item", "Paint: 1 : 150",
		"--supervision", "part-time", "--weeks", "1", "--gc-pct", "10", "--discount", "$50")
	// 2150 items + 725 supervision, 10% GC = 287.50, less 50.
	assert.Contains(t, out, "Created proposal PRO-0001")
	assert.Contains(t, out, "$3,112.50")

	out = mustExecute(t, app, "proposal", "list")
	assert.Contains(t, out, "PRO-0001")
	assert.Contains(t, out, "Ana Ruiz")

	out = mustExecute(t, app, "proposal", "show", "PRO-0001")
	assert.Contains(t, out, "Cabinets")
	assert.Contains(t, out, "$287.50")
}

func TestProposalCreate_Errors(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "proposal", "create", "--client", "X", "--item", "A:1:1")
	assert.ErrorContains(t, err, "--title and --client are required")

	_, err = executeCmd(t, app, "proposal", "create", "--title", "T", "--client", "X", "--item", "no-amounts")
	assert.ErrorContains(t, err, "use name:quantity:unit_price")

	_, err = executeCmd(t, app, "proposal", "create", "--title", "T", "--client", "X", "--supervision", "weekly")
	assert.ErrorContains(t, err, "must be one of none|part_time|full_time")
}

func TestProposalLifecycle_ToCompletedProject(t *testing.T) {
	app := testApp(t)
	seedInvoicedProposal(t, app)

	_, err := executeCmd(t, app, "project", "create", "--proposal", "PRO-0001")
	assert.ErrorContains(t, err, string(domain.ErrPaymentRequired))

	out := mustExecute(t, app, "invoice", "set-status", "INV-0001", "--status", "paid")
	assert.Contains(t, out, "Payment received")

	out = mustExecute(t, app, "project", "create", "--proposal", "PRO-0001", "--name", "Ode bath")
	assert.Contains(t, out, `Created project PRJ-0001 "Ode bath", budget $1,185.00`)

	// Step 1 is seeded from the proposal line item.
	mustExecute(t, app, "step", "add", "PRJ-0001", "--name", "Grout", "--price", "200")
	mustExecute(t, app, "step", "add", "PRJ-0001", "--parent", "2", "--name", "Seal")

	out = mustExecute(t, app, "step", "status", "PRJ-0001", "2.1", "in-progress")
	assert.Contains(t, out, "In Progress")
	assert.Contains(t, out, " 25%")

	out = mustExecute(t, app, "step", "override", "PRJ-0001", "2.1")
	assert.Contains(t, out, "Finished")
	assert.Contains(t, out, " 50%")

	_, err = executeCmd(t, app, "project", "complete", "PRJ-0001")
	assert.ErrorContains(t, err, string(domain.ErrInvalidTransition))

	mustExecute(t, app, "step", "status", "PRJ-0001", "1", "finished")
	out = mustExecute(t, app, "project", "complete", "PRJ-0001")
	assert.Contains(t, out, "Project PRJ-0001 completed")

	out = mustExecute(t, app, "project", "report", "PRJ-0001")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "Grout")
}

func TestProposalReject_RequiresReasonAndIsFinal(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "proposal", "create", "--title", "Deck", "--client", "Lee", "--item", "Boards:40:25")

	_, err := executeCmd(t, app, "proposal", "reject", "PRO-0001")
	assert.ErrorContains(t, err, `required flag(s) "reason" not set`)

	_, err = executeCmd(t, app, "proposal", "approve", "PRO-0001", "--as", "board")
	assert.ErrorContains(t, err, "must be one of management|client")

	out := mustExecute(t, app, "proposal", "reject", "PRO-0001", "--reason", "over budget")
	assert.Contains(t, out, "rejected")

	_, err = executeCmd(t, app, "proposal", "approve", "PRO-0001")
	assert.ErrorContains(t, err, string(domain.ErrInvalidTransition))
}

func TestProposalRevise_OnlyChangesGivenFlags(t *testing.T) {
	app := testApp(t)
	mustExecute(t, app, "proposal", "create", "--title", "Roof", "--client", "Ito", "--item", "Shingles:10:100", "--gc-pct", "0")

	out := mustExecute(t, app, "proposal", "revise", "PRO-0001", "--discount", "100")
	assert.Contains(t, out, "total $900.00")

	out = mustExecute(t, app, "--json", "proposal", "show", "PRO-0001")
	res := gjson.Parse(out)
	assert.Equal(t, "Roof", res.Get("proposal.Title").String())
	assert.Equal(t, "Shingles", res.Get("proposal.LineItems.0.name").String())
	assert.Equal(t, "900", res.Get("costs.total_cost").String())
}

func TestProposalDelete_BlockedOnceInvoiced(t *testing.T) {
	app := testApp(t)
	seedInvoicedProposal(t, app)

	_, err := executeCmd(t, app, "proposal", "delete", "PRO-0001")
	assert.Error(t, err)

	mustExecute(t, app, "proposal", "create", "--title", "Shed", "--client", "Bo", "--item", "Kit:1:900")
	out := mustExecute(t, app, "proposal", "delete", "PRO-0002")
	assert.Contains(t, out, "Deleted proposal PRO-0002")
}

func TestActorFlags_RecordedOnMutations(t *testing.T) {
	app := testApp(t)

	mustExecute(t, app, "--actor-id", "u-77", "--actor-name", "Field Lead", "--role", "staff",
		"proposal", "create", "--title", "Porch", "--client", "Ng", "--item", "Posts:4:80")
	assert.Equal(t, "u-77", app.Actor.ID)
	assert.Equal(t, domain.RoleStaff, app.Actor.Role)

	out := mustExecute(t, app, "--json", "proposal", "list")
	assert.Equal(t, "u-77", gjson.Get(out, "0.CreatedBy").String())

	_, err := executeCmd(t, app, "--role", "owner", "proposal", "list")
	assert.ErrorContains(t, err, "must be one of admin|client|manager|staff")
}

func TestProposalImport(t *testing.T) {
	app := testApp(t)
	path := filepath.Join(t.TempDir(), "proposal.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"proposal": {"title": "Basement", "client_name": "Ruth", "general_conditions_pct": "0"},
		"line_items": [
			{"name": "Drywall", "quantity": "20", "unit_price": "$30"},
			{"name": "Egress window", "quantity": "1", "unit_price": "$1,400"}
		]
	}`), 0o644))

	out := mustExecute(t, app, "proposal", "import", path)
	assert.Contains(t, out, `Imported proposal PRO-0001 "Basement" with 2 line items, total $2,000.00`)

	_, err := executeCmd(t, app, "proposal", "import", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestChangeOrders_AddToBudget(t *testing.T) {
	app := testApp(t)
	seedInvoicedProposal(t, app)
	mustExecute(t, app, "invoice", "set-status", "INV-0001", "--status", "paid")
	mustExecute(t, app, "project", "create", "--proposal", "PRO-0001")

	out := mustExecute(t, app, "change-order", "create", "--project", "PRJ-0001", "--title", "Heated floor")
	assert.Contains(t, out, "Created change order CO-0001")

	mustExecute(t, app, "step", "add", "CO-0001", "--change-order", "--name", "Mat", "--price", "$400")
	mustExecute(t, app, "change-order", "approve", "CO-0001")

	out = mustExecute(t, app, "change-order", "list", "PRJ-0001")
	assert.Contains(t, out, "Heated floor")

	out = mustExecute(t, app, "project", "budget", "PRJ-0001", "--set-client", "$1,500")
	assert.Contains(t, out, "Effective:              $1,585.00")
	assert.Contains(t, out, "Over client budget by $85.00")

	out = mustExecute(t, app, "project", "budget", "PRJ-0001", "--clear-client")
	assert.NotContains(t, out, "Client budget")
}

func TestStepCommands_MoveAndDelete(t *testing.T) {
	app := testApp(t)
	seedInvoicedProposal(t, app)
	mustExecute(t, app, "invoice", "set-status", "INV-0001", "--status", "paid")
	mustExecute(t, app, "project", "create", "--proposal", "PRO-0001")
	mustExecute(t, app, "step", "add", "PRJ-0001", "--name", "Demo", "--price", "300")

	out := mustExecute(t, app, "step", "move", "PRJ-0001", "2", "1")
	require.Less(t, strings.Index(out, "Demo"), strings.Index(out, "Tile"))

	_, err := executeCmd(t, app, "step", "move", "PRJ-0001", "1", "0")
	assert.ErrorContains(t, err, "position must be a positive number")

	_, err = executeCmd(t, app, "step", "status", "PRJ-0001", "9", "finished")
	assert.ErrorContains(t, err, "no work title at position 9")

	_, err = executeCmd(t, app, "step", "status", "PRJ-0001", "1", "done")
	assert.ErrorContains(t, err, "invalid status")

	mustExecute(t, app, "step", "delete", "PRJ-0001", "1")
	out = mustExecute(t, app, "step", "list", "PRJ-0001")
	assert.NotContains(t, out, "Demo")
	assert.Contains(t, out, "Tile")
}

func TestPriceQuote(t *testing.T) {
	app := testApp(t)

	out := mustExecute(t, app, "price", "quote", "--item", "Tile:10:100", "--supervision", "full_time", "--weeks", "1", "--gc-pct", "10")
	assert.Contains(t, out, "$1,450.00")
	assert.Contains(t, out, "$245.00")
	assert.Contains(t, out, "$2,695.00")

	out = mustExecute(t, app, "--json", "price", "quote", "--item", "Tile:10:100")
	assert.Equal(t, "1185", gjson.Get(out, "total_cost").String())

	_, err := executeCmd(t, app, "price", "quote")
	assert.ErrorContains(t, err, "at least one --item is required")
}

func TestResolveStep(t *testing.T) {
	tree := &domain.WorkBreakdown{Items: []*domain.WorkItem{
		{ID: "a", Children: []*domain.WorkDescription{{ID: "a1", ParentID: "a"}}},
		{ID: "b"},
	}}

	tests := []struct {
		ref     string
		want    stepRef
		wantErr string
	}{
		{ref: "1", want: stepRef{ID: "a"}},
		{ref: "1.1", want: stepRef{ID: "a1", ParentID: "a"}},
		{ref: "2", want: stepRef{ID: "b"}},
		{ref: "a1", want: stepRef{ID: "a1", ParentID: "a"}},
		{ref: "b", want: stepRef{ID: "b"}},
		{ref: "3", wantErr: "no work title at position 3"},
		{ref: "2.1", wantErr: "no description at position 2.1"},
		{ref: "zz", wantErr: `step not found: "zz"`},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			got, err := resolveStep(tree, tt.ref)
			if tt.wantErr != "" {
				assert.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineItem(t *testing.T) {
	li, err := parseLineItem("Trim: kitchen:3:$1,250.50")
	require.NoError(t, err)
	assert.Equal(t, "Trim: kitchen", li.Name)
	assert.Equal(t, "3", li.Quantity.String())
	assert.Equal(t, "1250.5", li.UnitPrice.String())

	_, err = parseLineItem(":1:2")
	assert.ErrorContains(t, err, "name is required")
}
