package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const memoryPath = ":memory:"

type openConfig struct {
	busyTimeout time.Duration
}

// OpenOption configures OpenDB.
type OpenOption func(*openConfig)

// WithBusyTimeout sets how long a connection waits on a locked file before
// returning SQLITE_BUSY. It has no effect on ":memory:".
func WithBusyTimeout(d time.Duration) OpenOption {
	return func(c *openConfig) { c.busyTimeout = d }
}

// OpenDB opens the SQLite database at path, or a private in-memory one for
// ":memory:", and migrates it. File databases run in WAL mode with foreign
// keys on for every pooled connection.
func OpenDB(path string, opts ...OpenOption) (*sql.DB, error) {
	cfg := openConfig{busyTimeout: 5 * time.Second}
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := path
	if path != memoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)",
			path, cfg.busyTimeout.Milliseconds())
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}
