package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
)

const changeOrderColumns = `id, number, project_id, title, status, completion_status, rejection_reason,
		decision, created_by, created_at, updated_at`

// SQLiteChangeOrderRepo implements ChangeOrderRepo using a SQLite database.
// Steps are stored in the steps table under owner kind change_order.
type SQLiteChangeOrderRepo struct {
	db db.DBTX
}

// NewSQLiteChangeOrderRepo creates a new SQLiteChangeOrderRepo.
func NewSQLiteChangeOrderRepo(conn db.DBTX) *SQLiteChangeOrderRepo {
	return &SQLiteChangeOrderRepo{db: conn}
}

func (r *SQLiteChangeOrderRepo) Create(ctx context.Context, c *domain.ChangeOrder) error {
	query := `INSERT INTO change_orders (` + changeOrderColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Number,
		c.ProjectID,
		c.Title,
		string(c.Status),
		string(c.CompletionStatus),
		c.RejectionReason,
		stampToJSON(c.Decision),
		c.CreatedBy,
		c.CreatedAt.Format(time.RFC3339),
		c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting change order: %w", err)
	}
	return nil
}

func (r *SQLiteChangeOrderRepo) GetByID(ctx context.Context, id string) (*domain.ChangeOrder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+changeOrderColumns+` FROM change_orders WHERE id = ? OR UPPER(number) = UPPER(?)`, id, id)
	return r.scanChangeOrder(row)
}

func (r *SQLiteChangeOrderRepo) ListByProject(ctx context.Context, projectID string) ([]*domain.ChangeOrder, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+changeOrderColumns+` FROM change_orders
		WHERE project_id = ? ORDER BY created_at, number`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing change orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.ChangeOrder
	for rows.Next() {
		c, err := r.scanChangeOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating change orders: %w", err)
	}
	return out, nil
}

func (r *SQLiteChangeOrderRepo) Update(ctx context.Context, c *domain.ChangeOrder) error {
	return execAffectingOne(ctx, r.db, "updating change order",
		`UPDATE change_orders SET title = ?, status = ?, completion_status = ?, rejection_reason = ?,
		decision = ?, updated_at = ? WHERE id = ?`,
		c.Title,
		string(c.Status),
		string(c.CompletionStatus),
		c.RejectionReason,
		stampToJSON(c.Decision),
		c.UpdatedAt.Format(time.RFC3339),
		c.ID,
	)
}

// Delete removes the change order and its steps.
func (r *SQLiteChangeOrderRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM steps WHERE owner_kind = 'change_order' AND owner_id = ?`, id); err != nil {
		return fmt.Errorf("deleting change order steps: %w", err)
	}
	return execAffectingOne(ctx, r.db, "deleting change order", `DELETE FROM change_orders WHERE id = ?`, id)
}

func (r *SQLiteChangeOrderRepo) scanChangeOrder(row rowScanner) (*domain.ChangeOrder, error) {
	var c domain.ChangeOrder
	var statusStr, completionStr, createdAtStr, updatedAtStr string
	var decisionStr sql.NullString

	err := row.Scan(
		&c.ID, &c.Number, &c.ProjectID, &c.Title, &statusStr, &completionStr, &c.RejectionReason,
		&decisionStr, &c.CreatedBy, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("change order: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning change order: %w", err)
	}

	c.Status = domain.ChangeOrderStatus(statusStr)
	c.CompletionStatus = domain.StepStatus(completionStr)
	if c.Decision, err = parseStamp(decisionStr, "decision"); err != nil {
		return nil, err
	}
	if c.CreatedAt, c.UpdatedAt, err = parseTimes(createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}
	c.Steps = domain.WorkBreakdown{Owner: domain.Owner{Kind: domain.OwnerChangeOrder, ID: c.ID}}
	return &c, nil
}
