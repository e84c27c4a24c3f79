package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/patch"
	"github.com/shopspring/decimal"
)

// stepColumns is the canonical SELECT column list for steps.
const stepColumns = `id, owner_kind, owner_id, parent_id, name, description, status, price,
		order_index, manual_override, created_by, created_at, updated_at`

// stepPatchColumns whitelists the fields UpdateFields may touch.
var stepPatchColumns = map[string]string{
	"name":            "name",
	"description":     "description",
	"status":          "status",
	"price":           "price",
	"order_index":     "order_index",
	"manual_override": "manual_override",
	"updated_at":      "updated_at",
}

// SQLiteStepRepo implements StepRepo using a SQLite database.
type SQLiteStepRepo struct {
	db db.DBTX
}

// NewSQLiteStepRepo creates a new SQLiteStepRepo.
func NewSQLiteStepRepo(conn db.DBTX) *SQLiteStepRepo {
	return &SQLiteStepRepo{db: conn}
}

const insertStep = `INSERT INTO steps (id, owner_kind, owner_id, parent_id, name, description, status, price,
		order_index, manual_override, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (r *SQLiteStepRepo) CreateItem(ctx context.Context, owner domain.Owner, w *domain.WorkItem) error {
	_, err := r.db.ExecContext(ctx, insertStep,
		w.ID,
		string(owner.Kind),
		owner.ID,
		nil,
		w.Name,
		w.Description,
		string(w.Status),
		w.Price.String(),
		w.OrderIndex,
		boolToInt(w.ManualOverride),
		w.CreatedBy,
		w.CreatedAt.Format(time.RFC3339),
		w.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting work item: %w", err)
	}
	return nil
}

func (r *SQLiteStepRepo) CreateDescription(ctx context.Context, owner domain.Owner, d *domain.WorkDescription) error {
	_, err := r.db.ExecContext(ctx, insertStep,
		d.ID,
		string(owner.Kind),
		owner.ID,
		d.ParentID,
		d.Name,
		d.Description,
		string(d.Status),
		"0",
		d.OrderIndex,
		boolToInt(d.ManualOverride),
		d.CreatedBy,
		d.CreatedAt.Format(time.RFC3339),
		d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting work description: %w", err)
	}
	return nil
}

func (r *SQLiteStepRepo) UpdateFields(ctx context.Context, id string, fields patch.Doc) error {
	set, args, err := fields.SQLSet(stepPatchColumns)
	if err != nil {
		return fmt.Errorf("updating step %s: %w", id, err)
	}
	args = append(args, id)
	return execAffectingOne(ctx, r.db, "updating step", `UPDATE steps SET `+set+` WHERE id = ?`, args...)
}

// Delete removes a step and its children.
func (r *SQLiteStepRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM steps WHERE parent_id = ?`, id); err != nil {
		return fmt.Errorf("deleting child steps: %w", err)
	}
	return execAffectingOne(ctx, r.db, "deleting step", `DELETE FROM steps WHERE id = ?`, id)
}

func (r *SQLiteStepRepo) DeleteByOwner(ctx context.Context, owner domain.Owner) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM steps WHERE owner_kind = ? AND owner_id = ?`,
		string(owner.Kind), owner.ID)
	if err != nil {
		return fmt.Errorf("deleting steps for %s %s: %w", owner.Kind, owner.ID, err)
	}
	return nil
}

// LoadBreakdown assembles the two-level tree for owner. Work items come back
// in order_index order; children in their own order_index order.
func (r *SQLiteStepRepo) LoadBreakdown(ctx context.Context, owner domain.Owner) (*domain.WorkBreakdown, error) {
	query := `SELECT ` + stepColumns + ` FROM steps
		WHERE owner_kind = ? AND owner_id = ?
		ORDER BY parent_id IS NOT NULL, order_index, created_at`
	rows, err := r.db.QueryContext(ctx, query, string(owner.Kind), owner.ID)
	if err != nil {
		return nil, fmt.Errorf("loading steps: %w", err)
	}
	defer rows.Close()

	b := &domain.WorkBreakdown{Owner: owner}
	byID := make(map[string]*domain.WorkItem)
	var orphans []*domain.WorkDescription
	for rows.Next() {
		rec, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		if !rec.parentID.Valid {
			w := rec.toItem()
			byID[w.ID] = w
			b.Items = append(b.Items, w)
			continue
		}
		d := rec.toDescription()
		if parent, ok := byID[d.ParentID]; ok {
			parent.Children = append(parent.Children, d)
		} else {
			orphans = append(orphans, d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating steps: %w", err)
	}
	if len(orphans) > 0 {
		return nil, fmt.Errorf("loading steps: %d work descriptions reference a parent outside %s %s",
			len(orphans), owner.Kind, owner.ID)
	}
	return b, nil
}

type stepRecord struct {
	id, ownerKind, ownerID     string
	parentID                   sql.NullString
	name, description, status  string
	price                      decimal.Decimal
	orderIndex, manualOverride int
	createdBy                  string
	createdAt, updatedAt       time.Time
}

func scanStep(rows *sql.Rows) (*stepRecord, error) {
	var rec stepRecord
	var priceStr, createdAtStr, updatedAtStr string
	err := rows.Scan(
		&rec.id, &rec.ownerKind, &rec.ownerID, &rec.parentID, &rec.name, &rec.description,
		&rec.status, &priceStr, &rec.orderIndex, &rec.manualOverride, &rec.createdBy,
		&createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning step row: %w", err)
	}
	if rec.price, err = parseDecimal(priceStr, "price"); err != nil {
		return nil, err
	}
	rec.createdAt, rec.updatedAt, err = parseTimes(createdAtStr, updatedAtStr)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (rec *stepRecord) toItem() *domain.WorkItem {
	return &domain.WorkItem{
		ID:             rec.id,
		Name:           rec.name,
		Description:    rec.description,
		Status:         domain.StepStatus(rec.status),
		Price:          rec.price,
		OrderIndex:     rec.orderIndex,
		ManualOverride: intToBool(rec.manualOverride),
		CreatedBy:      rec.createdBy,
		CreatedAt:      rec.createdAt,
		UpdatedAt:      rec.updatedAt,
	}
}

func (rec *stepRecord) toDescription() *domain.WorkDescription {
	return &domain.WorkDescription{
		ID:             rec.id,
		ParentID:       rec.parentID.String,
		Name:           rec.name,
		Description:    rec.description,
		Status:         domain.StepStatus(rec.status),
		ManualOverride: intToBool(rec.manualOverride),
		OrderIndex:     rec.orderIndex,
		CreatedBy:      rec.createdBy,
		CreatedAt:      rec.createdAt,
		UpdatedAt:      rec.updatedAt,
	}
}
