package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
)

const proposalColumns = `id, number, title, client_name, line_items, general_conditions_pct,
		supervision_type, supervision_weeks, discount, total_cost, costs,
		management_approval, client_approval, management_rejection_reason,
		client_rejection_reason, client_change_request,
		sent_for_approval, management_decision, client_decision, returned_for_review,
		created_by, created_at, updated_at`

// SQLiteProposalRepo implements ProposalRepo using a SQLite database.
type SQLiteProposalRepo struct {
	db db.DBTX
}

// NewSQLiteProposalRepo creates a new SQLiteProposalRepo.
func NewSQLiteProposalRepo(conn db.DBTX) *SQLiteProposalRepo {
	return &SQLiteProposalRepo{db: conn}
}

func (r *SQLiteProposalRepo) Create(ctx context.Context, p *domain.Proposal) error {
	items, err := lineItemsToJSON(p.LineItems)
	if err != nil {
		return err
	}
	costs, err := costsToJSON(p.Costs)
	if err != nil {
		return err
	}
	query := `INSERT INTO proposals (` + proposalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		p.ID,
		p.Number,
		p.Title,
		p.ClientName,
		items,
		p.GeneralConditionsPct,
		string(p.Supervision.Type),
		p.Supervision.Weeks.String(),
		p.Discount.String(),
		p.TotalCost.String(),
		costs,
		string(p.ManagementApproval),
		string(p.ClientApproval),
		p.ManagementRejectionReason,
		p.ClientRejectionReason,
		p.ClientChangeRequest,
		stampToJSON(p.SentForApproval),
		stampToJSON(p.ManagementDecision),
		stampToJSON(p.ClientDecision),
		stampToJSON(p.ReturnedForReview),
		p.CreatedBy,
		p.CreatedAt.Format(time.RFC3339),
		p.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("inserting proposal %s: %w", p.Number, ErrDuplicate)
		}
		return fmt.Errorf("inserting proposal: %w", err)
	}
	return nil
}

func (r *SQLiteProposalRepo) GetByID(ctx context.Context, id string) (*domain.Proposal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE id = ?`, id)
	return r.scanProposal(row)
}

func (r *SQLiteProposalRepo) GetByNumber(ctx context.Context, number string) (*domain.Proposal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+proposalColumns+` FROM proposals WHERE UPPER(number) = UPPER(?)`, number)
	return r.scanProposal(row)
}

func (r *SQLiteProposalRepo) List(ctx context.Context) ([]*domain.Proposal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+proposalColumns+` FROM proposals ORDER BY created_at, number`)
	if err != nil {
		return nil, fmt.Errorf("listing proposals: %w", err)
	}
	defer rows.Close()

	var out []*domain.Proposal
	for rows.Next() {
		p, err := r.scanProposal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating proposals: %w", err)
	}
	return out, nil
}

// Update writes the full proposal. Proposals are small and every transition
// touches several columns, so there is no partial variant.
func (r *SQLiteProposalRepo) Update(ctx context.Context, p *domain.Proposal) error {
	items, err := lineItemsToJSON(p.LineItems)
	if err != nil {
		return err
	}
	costs, err := costsToJSON(p.Costs)
	if err != nil {
		return err
	}
	query := `UPDATE proposals SET title = ?, client_name = ?, line_items = ?, general_conditions_pct = ?,
		supervision_type = ?, supervision_weeks = ?, discount = ?, total_cost = ?, costs = ?,
		management_approval = ?, client_approval = ?, management_rejection_reason = ?,
		client_rejection_reason = ?, client_change_request = ?,
		sent_for_approval = ?, management_decision = ?, client_decision = ?, returned_for_review = ?,
		updated_at = ?
		WHERE id = ?`
	return execAffectingOne(ctx, r.db, "updating proposal", query,
		p.Title,
		p.ClientName,
		items,
		p.GeneralConditionsPct,
		string(p.Supervision.Type),
		p.Supervision.Weeks.String(),
		p.Discount.String(),
		p.TotalCost.String(),
		costs,
		string(p.ManagementApproval),
		string(p.ClientApproval),
		p.ManagementRejectionReason,
		p.ClientRejectionReason,
		p.ClientChangeRequest,
		stampToJSON(p.SentForApproval),
		stampToJSON(p.ManagementDecision),
		stampToJSON(p.ClientDecision),
		stampToJSON(p.ReturnedForReview),
		p.UpdatedAt.Format(time.RFC3339),
		p.ID,
	)
}

func (r *SQLiteProposalRepo) Delete(ctx context.Context, id string) error {
	return execAffectingOne(ctx, r.db, "deleting proposal", `DELETE FROM proposals WHERE id = ?`, id)
}

func (r *SQLiteProposalRepo) scanProposal(row rowScanner) (*domain.Proposal, error) {
	var p domain.Proposal
	var itemsStr, supTypeStr, weeksStr, discountStr, totalStr, costsStr string
	var mgmtStr, clientStr, createdAtStr, updatedAtStr string
	var sentStr, mgmtDecStr, clientDecStr, returnedStr sql.NullString

	err := row.Scan(
		&p.ID, &p.Number, &p.Title, &p.ClientName, &itemsStr, &p.GeneralConditionsPct,
		&supTypeStr, &weeksStr, &discountStr, &totalStr, &costsStr,
		&mgmtStr, &clientStr, &p.ManagementRejectionReason,
		&p.ClientRejectionReason, &p.ClientChangeRequest,
		&sentStr, &mgmtDecStr, &clientDecStr, &returnedStr,
		&p.CreatedBy, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("proposal: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning proposal: %w", err)
	}
	if p.Costs, err = parseCosts(costsStr); err != nil {
		return nil, err
	}
	return populateProposal(&p, itemsStr, supTypeStr, weeksStr, discountStr, totalStr,
		mgmtStr, clientStr, sentStr, mgmtDecStr, clientDecStr, returnedStr, createdAtStr, updatedAtStr)
}

func populateProposal(p *domain.Proposal, itemsStr, supTypeStr, weeksStr, discountStr, totalStr,
	mgmtStr, clientStr string, sentStr, mgmtDecStr, clientDecStr, returnedStr sql.NullString,
	createdAtStr, updatedAtStr string) (*domain.Proposal, error) {
	var err error
	if p.LineItems, err = parseLineItems(itemsStr); err != nil {
		return nil, err
	}
	p.Supervision.Type = domain.SupervisionType(supTypeStr)
	if p.Supervision.Weeks, err = parseDecimal(weeksStr, "supervision_weeks"); err != nil {
		return nil, err
	}
	if p.Discount, err = parseDecimal(discountStr, "discount"); err != nil {
		return nil, err
	}
	if p.TotalCost, err = parseDecimal(totalStr, "total_cost"); err != nil {
		return nil, err
	}
	p.ManagementApproval = domain.ManagementApproval(mgmtStr)
	p.ClientApproval = domain.ClientApproval(clientStr)
	if p.SentForApproval, err = parseStamp(sentStr, "sent_for_approval"); err != nil {
		return nil, err
	}
	if p.ManagementDecision, err = parseStamp(mgmtDecStr, "management_decision"); err != nil {
		return nil, err
	}
	if p.ClientDecision, err = parseStamp(clientDecStr, "client_decision"); err != nil {
		return nil, err
	}
	if p.ReturnedForReview, err = parseStamp(returnedStr, "returned_for_review"); err != nil {
		return nil, err
	}
	if p.CreatedAt, p.UpdatedAt, err = parseTimes(createdAtStr, updatedAtStr); err != nil {
		return nil, err
	}
	return p, nil
}
