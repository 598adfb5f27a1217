package datastore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/lepinkainen/storefront/internal/view"

	_ "modernc.org/sqlite"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrNotConnected is returned when the store is used before Connect.
var ErrNotConnected = errors.New("datastore: not connected")

// SQLiteStore implements the Store interface for local SQLite storage
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
		now:    time.Now,
	}
}

// Connect opens a connection to the SQLite database
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return errors.Join(fmt.Errorf("failed to open database: %w", err), db.Close())
	}
	s.db = db
	return nil
}

// CreateTable creates a new table with the given schema if it doesn't exist
func (s *SQLiteStore) CreateTable(schema string) error {
	if s.db == nil {
		return ErrNotConnected
	}
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (s *SQLiteStore) withTx(fn func(tx *sql.Tx) error) error {
	if s.db == nil {
		return ErrNotConnected
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after commit is a no-op
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// insertRows inserts records into table. Every record must have the columns
// of the first one.
func insertRows(tx *sql.Tx, table string, records []map[string]any) error {
	if len(records) == 0 {
		return nil
	}
	if !identifierPattern.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}

	columns := make([]string, 0, len(records[0]))
	for col := range records[0] {
		if !identifierPattern.MatchString(col) {
			return fmt.Errorf("invalid column name %q", col)
		}
		columns = append(columns, col)
	}
	// Map iteration order is random; sort for a stable statement.
	slices.Sort(columns)

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		placeholders,
	)

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, record := range records {
		if len(record) != len(columns) {
			return fmt.Errorf("record %d has %d columns, want %d", i, len(record), len(columns))
		}
		values := make([]any, len(columns))
		for j, col := range columns {
			v, ok := record[col]
			if !ok {
				return fmt.Errorf("record %d is missing column %q", i, col)
			}
			values[j] = v
		}

		if _, err := stmt.Exec(values...); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}
	return nil
}

// ReplaceSnapshot creates the stores table if needed and replaces its rows
// with records, keeping record order in the position column. It returns the
// number of rows written.
func (s *SQLiteStore) ReplaceSnapshot(records []view.DisplayRecord) (int, error) {
	if err := s.CreateTable(StoresSchema); err != nil {
		return 0, err
	}

	exportedAt := s.now().UTC()
	rows := make([]map[string]any, 0, len(records))
	for i, rec := range records {
		row, err := recordRow(i, rec, exportedAt)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	err := s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM " + StoresTable); err != nil {
			return fmt.Errorf("failed to clear %s: %w", StoresTable, err)
		}
		return insertRows(tx, StoresTable, rows)
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func recordRow(position int, rec view.DisplayRecord, exportedAt time.Time) (map[string]any, error) {
	books := rec.Books
	if books == nil {
		books = []view.BookLine{}
	}
	booksJSON, err := json.Marshal(books)
	if err != nil {
		return nil, fmt.Errorf("encode books of store %s: %w", rec.StoreID, err)
	}

	return map[string]any{
		"position":     position,
		"store_id":     rec.StoreID,
		"name":         rec.Name,
		"image":        rec.Image,
		"country_code": rec.CountryCode,
		"flag_url":     nullable(rec.FlagURL),
		"rating":       rec.Rating,
		"established":  rec.Established,
		"website":      nullable(rec.Website),
		"books":        string(booksJSON),
		"exported_at":  exportedAt,
	}, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
