package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/shopspring/decimal"
)

// parseNullableTime parses a sql.NullString into a *time.Time using the given layout.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString, layout string) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(layout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTimeToString converts a *time.Time to a value suitable for SQLite storage.
// Returns nil (SQL NULL) if the pointer is nil, otherwise returns the formatted string.
func nullableTimeToString(t *time.Time, layout string) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(layout)
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

// nowUTC returns the current UTC time formatted as RFC3339.
func nowUTC() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// parseTimes parses the created_at/updated_at pair every table carries.
func parseTimes(createdAtStr, updatedAtStr string) (time.Time, time.Time, error) {
	createdAt, err := time.Parse(time.RFC3339, createdAtStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339, updatedAtStr)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return createdAt, updatedAt, nil
}

// parseDecimal reads a TEXT money column. Amounts are always written by this
// package, so a parse failure means corruption and is reported.
func parseDecimal(s, column string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", column, err)
	}
	return d, nil
}

// nullableDecimalToString converts an optional amount for storage.
func nullableDecimalToString(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseNullableDecimal(s sql.NullString, column string) (*decimal.Decimal, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := parseDecimal(s.String, column)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// stampToJSON stores an actor stamp as a JSON object, or NULL.
func stampToJSON(s *domain.Stamp) interface{} {
	if s == nil {
		return nil
	}
	b, _ := json.Marshal(stampRecord{ActorID: s.ActorID, ActorName: s.ActorName, At: s.At.UTC().Format(time.RFC3339)})
	return string(b)
}

type stampRecord struct {
	ActorID   string `json:"actor_id"`
	ActorName string `json:"actor_name"`
	At        string `json:"at"`
}

func parseStamp(s sql.NullString, column string) (*domain.Stamp, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var rec stampRecord
	if err := json.Unmarshal([]byte(s.String), &rec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", column, err)
	}
	at, err := time.Parse(time.RFC3339, rec.At)
	if err != nil {
		return nil, fmt.Errorf("parsing %s time: %w", column, err)
	}
	return &domain.Stamp{ActorID: rec.ActorID, ActorName: rec.ActorName, At: at}, nil
}

func lineItemsToJSON(items []domain.LineItem) (string, error) {
	if items == nil {
		items = []domain.LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encoding line items: %w", err)
	}
	return string(b), nil
}

func parseLineItems(s string) ([]domain.LineItem, error) {
	var items []domain.LineItem
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, fmt.Errorf("parsing line items: %w", err)
	}
	return items, nil
}

// execAffectingOne runs an UPDATE or DELETE and maps zero affected rows to ErrNotFound.
func execAffectingOne(ctx context.Context, conn db.DBTX, what, query string, args ...any) error {
	res, err := conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return nil
}

func costsToJSON(c domain.CostBreakdown) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding costs: %w", err)
	}
	return string(b), nil
}

func parseCosts(s string) (domain.CostBreakdown, error) {
	var c domain.CostBreakdown
	if s == "" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return c, fmt.Errorf("parsing costs: %w", err)
	}
	return c, nil
}
