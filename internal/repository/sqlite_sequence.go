package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/foreman/internal/db"
)

// SQLiteSequenceRepo allocates document numbers atomically using the
// document_sequences table. Each kind is an independent series starting at 1.
type SQLiteSequenceRepo struct {
	db db.DBTX
}

// NewSQLiteSequenceRepo creates a new SQLiteSequenceRepo.
func NewSQLiteSequenceRepo(conn db.DBTX) *SQLiteSequenceRepo {
	return &SQLiteSequenceRepo{db: conn}
}

// Next returns the next value in the series for kind.
func (r *SQLiteSequenceRepo) Next(ctx context.Context, kind SequenceKind) (int, error) {
	if _, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO document_sequences (kind, next_seq) VALUES (?, 1)`, string(kind)); err != nil {
		return 0, fmt.Errorf("seeding %s sequence: %w", kind, err)
	}

	var next int
	allocQuery := `UPDATE document_sequences
		SET next_seq = next_seq + 1
		WHERE kind = ?
		RETURNING next_seq - 1`
	if err := r.db.QueryRowContext(ctx, allocQuery, string(kind)).Scan(&next); err != nil {
		return 0, fmt.Errorf("allocating next %s number: %w", kind, err)
	}
	return next, nil
}
