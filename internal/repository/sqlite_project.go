package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/patch"
)

// projectColumns is the canonical SELECT column list for projects.
const projectColumns = `id, number, name, proposal_id, invoice_id, progress_percentage, total_budget,
		client_budget, status, completed_at, created_by, created_at, updated_at`

var projectPatchColumns = map[string]string{
	"name":                "name",
	"progress_percentage": "progress_percentage",
	"total_budget":        "total_budget",
	"client_budget":       "client_budget",
	"status":              "status",
	"completed_at":        "completed_at",
	"updated_at":          "updated_at",
}

// SQLiteProjectRepo implements ProjectRepo using a SQLite database.
// Steps are stored separately and are not loaded here.
type SQLiteProjectRepo struct {
	db db.DBTX
}

// NewSQLiteProjectRepo creates a new SQLiteProjectRepo.
func NewSQLiteProjectRepo(conn db.DBTX) *SQLiteProjectRepo {
	return &SQLiteProjectRepo{db: conn}
}

func (r *SQLiteProjectRepo) Create(ctx context.Context, p *domain.Project) error {
	query := `INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Number,
		p.Name,
		p.ProposalID,
		p.InvoiceID,
		p.ProgressPercentage,
		p.TotalBudget.String(),
		nullableDecimalToString(p.ClientBudget),
		string(p.Status),
		nullableTimeToString(p.CompletedAt, time.RFC3339),
		p.CreatedBy,
		p.CreatedAt.Format(time.RFC3339),
		p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("inserting project %s: %w", p.Number, ErrDuplicate)
		}
		return fmt.Errorf("inserting project: %w", err)
	}
	return nil
}

func (r *SQLiteProjectRepo) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, id)
	return r.scanProject(row)
}

func (r *SQLiteProjectRepo) GetByNumber(ctx context.Context, number string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE UPPER(number) = UPPER(?)`, number)
	return r.scanProject(row)
}

func (r *SQLiteProjectRepo) GetByProposalID(ctx context.Context, proposalID string) (*domain.Project, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE proposal_id = ?
		ORDER BY created_at LIMIT 1`, proposalID)
	return r.scanProject(row)
}

func (r *SQLiteProjectRepo) List(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY created_at, number`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		p, err := r.scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating projects: %w", err)
	}
	return projects, nil
}

func (r *SQLiteProjectRepo) UpdateFields(ctx context.Context, id string, fields patch.Doc) error {
	set, args, err := fields.SQLSet(projectPatchColumns)
	if err != nil {
		return fmt.Errorf("updating project %s: %w", id, err)
	}
	args = append(args, id)
	return execAffectingOne(ctx, r.db, "updating project", `UPDATE projects SET `+set+` WHERE id = ?`, args...)
}

// Delete removes the project, its change orders, and every step owned by either.
func (r *SQLiteProjectRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM steps WHERE owner_kind = 'change_order'
		AND owner_id IN (SELECT id FROM change_orders WHERE project_id = ?)`, id); err != nil {
		return fmt.Errorf("deleting change order steps: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM steps WHERE owner_kind = 'project' AND owner_id = ?`, id); err != nil {
		return fmt.Errorf("deleting project steps: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM change_orders WHERE project_id = ?`, id); err != nil {
		return fmt.Errorf("deleting change orders: %w", err)
	}
	return execAffectingOne(ctx, r.db, "deleting project", `DELETE FROM projects WHERE id = ?`, id)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteProjectRepo) scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var statusStr, budgetStr, createdAtStr, updatedAtStr string
	var clientBudgetStr, completedAtStr sql.NullString

	err := row.Scan(
		&p.ID, &p.Number, &p.Name, &p.ProposalID, &p.InvoiceID, &p.ProgressPercentage,
		&budgetStr, &clientBudgetStr, &statusStr, &completedAtStr, &p.CreatedBy,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("project: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	p.Status = domain.ProjectStatus(statusStr)
	p.CompletedAt = parseNullableTime(completedAtStr, time.RFC3339)
	if p.TotalBudget, err = parseDecimal(budgetStr, "total_budget"); err != nil {
		return nil, err
	}
	if p.ClientBudget, err = parseNullableDecimal(clientBudgetStr, "client_budget"); err != nil {
		return nil, err
	}
	if p.CreatedAt, p.UpdatedAt, err = parseTimes(createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}
	p.Steps = domain.WorkBreakdown{Owner: domain.Owner{Kind: domain.OwnerProject, ID: p.ID}}
	return &p, nil
}
