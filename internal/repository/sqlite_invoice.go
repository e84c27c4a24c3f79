package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
)

const invoiceColumns = `id, number, proposal_id, client_name, line_items, supervision, costs,
		status, created_at, updated_at`

// SQLiteInvoiceRepo implements InvoiceRepo using a SQLite database.
type SQLiteInvoiceRepo struct {
	db db.DBTX
}

// NewSQLiteInvoiceRepo creates a new SQLiteInvoiceRepo.
func NewSQLiteInvoiceRepo(conn db.DBTX) *SQLiteInvoiceRepo {
	return &SQLiteInvoiceRepo{db: conn}
}

// Create inserts the invoice. A second invoice for the same proposal fails
// with ErrDuplicate.
func (r *SQLiteInvoiceRepo) Create(ctx context.Context, inv *domain.Invoice) error {
	items, err := lineItemsToJSON(inv.LineItems)
	if err != nil {
		return err
	}
	sup, err := json.Marshal(inv.Supervision)
	if err != nil {
		return fmt.Errorf("encoding supervision: %w", err)
	}
	costs, err := json.Marshal(inv.Costs)
	if err != nil {
		return fmt.Errorf("encoding costs: %w", err)
	}

	query := `INSERT INTO invoices (` + invoiceColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		inv.ID,
		inv.Number,
		inv.ProposalID,
		inv.ClientName,
		items,
		string(sup),
		string(costs),
		string(inv.Status),
		inv.CreatedAt.Format(time.RFC3339),
		inv.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("inserting invoice for proposal %s: %w", inv.ProposalID, ErrDuplicate)
		}
		return fmt.Errorf("inserting invoice: %w", err)
	}
	return nil
}

func (r *SQLiteInvoiceRepo) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = ?`, id)
	return r.scanInvoice(row)
}

func (r *SQLiteInvoiceRepo) GetByNumber(ctx context.Context, number string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE UPPER(number) = UPPER(?)`, number)
	return r.scanInvoice(row)
}

func (r *SQLiteInvoiceRepo) GetByProposalID(ctx context.Context, proposalID string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE proposal_id = ?`, proposalID)
	return r.scanInvoice(row)
}

func (r *SQLiteInvoiceRepo) List(ctx context.Context) ([]*domain.Invoice, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+invoiceColumns+` FROM invoices ORDER BY created_at, number`)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	defer rows.Close()

	var out []*domain.Invoice
	for rows.Next() {
		inv, err := r.scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating invoices: %w", err)
	}
	return out, nil
}

// UpdateStatus writes only the payment status; the rest of an invoice is immutable.
func (r *SQLiteInvoiceRepo) UpdateStatus(ctx context.Context, inv *domain.Invoice) error {
	return execAffectingOne(ctx, r.db, "updating invoice status",
		`UPDATE invoices SET status = ?, updated_at = ? WHERE id = ?`,
		string(inv.Status), inv.UpdatedAt.Format(time.RFC3339), inv.ID)
}

func (r *SQLiteInvoiceRepo) scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	var itemsStr, supStr, costsStr, statusStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&inv.ID, &inv.Number, &inv.ProposalID, &inv.ClientName, &itemsStr, &supStr, &costsStr,
		&statusStr, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("invoice: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning invoice: %w", err)
	}

	if inv.LineItems, err = parseLineItems(itemsStr); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(supStr), &inv.Supervision); err != nil {
		return nil, fmt.Errorf("parsing supervision: %w", err)
	}
	if err := json.Unmarshal([]byte(costsStr), &inv.Costs); err != nil {
		return nil, fmt.Errorf("parsing costs: %w", err)
	}
	inv.Status = domain.InvoiceStatus(statusStr)
	if inv.CreatedAt, inv.UpdatedAt, err = parseTimes(createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}
	return &inv, nil
}
