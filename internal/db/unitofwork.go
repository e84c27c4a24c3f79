package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// UnitOfWork runs a callback inside one transaction. Every persisted step
// command and every approval transition goes through exactly one WithinTx.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error
}

// SQLiteUnitOfWork implements UnitOfWork on database/sql. A transaction that
// fails with SQLITE_BUSY is rolled back and run again from the start, so fn
// must not leave side effects outside tx.
type SQLiteUnitOfWork struct {
	db       *sql.DB
	attempts int
	backoff  time.Duration
	logger   zerolog.Logger
}

// UoWOption configures a SQLiteUnitOfWork.
type UoWOption func(*SQLiteUnitOfWork)

// WithBusyRetry sets how many times a busy transaction is attempted and the
// base delay between attempts. attempts < 1 is treated as 1.
func WithBusyRetry(attempts int, backoff time.Duration) UoWOption {
	return func(u *SQLiteUnitOfWork) {
		if attempts < 1 {
			attempts = 1
		}
		u.attempts = attempts
		u.backoff = backoff
	}
}

// WithLogger logs busy retries.
func WithLogger(logger zerolog.Logger) UoWOption {
	return func(u *SQLiteUnitOfWork) { u.logger = logger }
}

func NewSQLiteUnitOfWork(db *sql.DB, opts ...UoWOption) *SQLiteUnitOfWork {
	u := &SQLiteUnitOfWork{
		db:       db,
		attempts: 3,
		backoff:  25 * time.Millisecond,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

func (u *SQLiteUnitOfWork) WithinTx(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	var err error
	for attempt := 1; attempt <= u.attempts; attempt++ {
		err = u.runOnce(ctx, fn)
		if err == nil || !IsBusyError(err) || attempt == u.attempts {
			return err
		}

		wait := u.backoff * time.Duration(attempt)
		u.logger.Debug().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("database busy, retrying transaction")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

func (u *SQLiteUnitOfWork) runOnce(ctx context.Context, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
