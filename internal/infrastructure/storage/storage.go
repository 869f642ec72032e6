// Package storage persists itemized records, sync state, claims, the
// category cache and run history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charliesneath/ynab-toolkit/internal/domain/splitter"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

const (
	defaultListLimit = 50
	dateLayout       = "2006-01-02"
)

// Storage provides SQLite database access.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens the database at dbPath and runs all pending migrations.
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// One connection keeps the pragmas in effect; other processes sharing the
	// file wait on locks instead of failing.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &Storage{db: db}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an open database without migrating it.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRecord inserts or replaces the record with the same import id.
func (s *Storage) SaveRecord(ctx context.Context, record *splitter.Record) error {
	if record.ImportID == "" {
		return fmt.Errorf("record has no import id")
	}
	if record.UpdatedAt.IsZero() {
		record.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", record.ImportID, err)
	}

	query := `
	INSERT INTO itemized_records
	(import_id, order_id, date, amount, payee, flag, status, low_confidence, record_json, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(import_id) DO UPDATE SET
		order_id = excluded.order_id,
		date = excluded.date,
		amount = excluded.amount,
		payee = excluded.payee,
		flag = excluded.flag,
		status = excluded.status,
		low_confidence = excluded.low_confidence,
		record_json = excluded.record_json,
		updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		record.ImportID,
		record.OrderID,
		record.Date.Format(dateLayout),
		record.Amount.String(),
		record.Payee,
		string(record.Flag),
		string(record.Status),
		record.LowConfidence,
		string(data),
		record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", record.ImportID, err)
	}
	return nil
}

// GetRecord retrieves a record by import id.
func (s *Storage) GetRecord(ctx context.Context, importID string) (*splitter.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT record_json FROM itemized_records WHERE import_id = ?`, importID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("record %s: %w", importID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record %s: %w", importID, err)
	}
	return decodeRecord(data)
}

// HasSettledRecord reports whether a record with the import id is stored
// and needs no further processing.
func (s *Storage) HasSettledRecord(ctx context.Context, importID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM itemized_records WHERE import_id = ? AND status <> ?`,
		importID, string(splitter.StatusPendingCategories)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check record %s: %w", importID, err)
	}
	return count > 0, nil
}

// ListRecords returns records matching the filters, newest first.
func (s *Storage) ListRecords(ctx context.Context, filters RecordFilters) (*RecordList, error) {
	var where []string
	var args []any
	if filters.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filters.Status)
	}
	if filters.OrderID != "" {
		where = append(where, "order_id = ?")
		args = append(args, filters.OrderID)
	}
	if !filters.Since.IsZero() {
		where = append(where, "date >= ?")
		args = append(args, filters.Since.Format(dateLayout))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	result := &RecordList{Limit: filters.Limit, Offset: filters.Offset, Records: []*splitter.Record{}}
	if result.Limit == 0 {
		result.Limit = defaultListLimit
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM itemized_records`+clause, args...).Scan(&result.TotalCount); err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}

	query := `SELECT record_json FROM itemized_records` + clause + ` ORDER BY date DESC, import_id LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, result.Limit, result.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		record, err := decodeRecord(data)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, record)
	}
	return result, rows.Err()
}

// GetStats returns aggregate statistics over all stored records.
func (s *Storage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[string]int)}

	rows, err := s.db.QueryContext(ctx, `SELECT status, flag, low_confidence, amount FROM itemized_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	total := decimal.Zero
	for rows.Next() {
		var status, flag, amount string
		var lowConfidence bool
		if err := rows.Scan(&status, &flag, &lowConfidence, &amount); err != nil {
			return nil, err
		}
		stats.TotalRecords++
		stats.ByStatus[status]++
		if lowConfidence {
			stats.LowConfidence++
		}
		if flag != string(splitter.FlagYellow) {
			stats.NeedsAttention++
		}
		if d, err := decimal.NewFromString(amount); err == nil {
			total = total.Add(d)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats.TotalAmount = total.StringFixed(2)

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM synced_imports`).Scan(&stats.Synced); err != nil {
		return nil, fmt.Errorf("failed to count synced imports: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM category_cache`).Scan(&stats.CacheEntries); err != nil {
		return nil, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return stats, nil
}

func decodeRecord(data string) (*splitter.Record, error) {
	var record splitter.Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &record, nil
}
