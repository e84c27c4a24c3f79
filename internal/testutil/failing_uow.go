package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/alexanderramin/foreman/internal/db"
)

// FailingUoW injects Err into one write of a transaction so tests can check
// that a step command or approval transition leaves nothing half persisted.
//
// The failing write is the first ExecContext whose SQL contains FailWhen, or
// the FailOn-th ExecContext (counted from 1) when FailWhen is empty. Reads
// pass through. Statements records every write attempted, across calls.
type FailingUoW struct {
	DB       *sql.DB
	FailWhen string
	FailOn   int
	Err      error

	mu         sync.Mutex
	statements []string
}

func (u *FailingUoW) WithinTx(ctx context.Context, fn func(ctx context.Context, tx db.DBTX) error) error {
	tx, err := u.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(ctx, &failingTx{DBTX: tx, uow: u}); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Statements returns the SQL of every write attempted so far.
func (u *FailingUoW) Statements() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.statements...)
}

func (u *FailingUoW) record(query string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.statements = append(u.statements, query)
	if u.FailWhen != "" {
		return strings.Contains(query, u.FailWhen)
	}
	return len(u.statements) == u.FailOn
}

type failingTx struct {
	db.DBTX
	uow *FailingUoW
}

func (f *failingTx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if f.uow.record(query) {
		return nil, f.uow.Err
	}
	return f.DBTX.ExecContext(ctx, query, args...)
}
