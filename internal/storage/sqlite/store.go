// Package sqlite implements storage.Store on SQLite via database/sql.
// Upserts use INSERT ... ON CONFLICT DO UPDATE inside a transaction; SQLite
// has no bulk-load API, but transactions keep performance acceptable for the
// volumes this pipeline handles. It is the default backend for local runs
// and tests.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // driver

	"invoicefacts/internal/storage"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return Open(ctx, cfg.DSN)
	})
	storage.RegisterDDL("sqlite", ensureSchema)
}

// Store is a SQLite-backed storage.Store.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database. The DSN is passed straight to database/sql,
// e.g. "facts.db" or "file:facts.db?cache=shared".
func Open(ctx context.Context, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection keeps in-memory databases and write transactions
	// well-behaved.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Upsert inserts or updates rows by keyColumns in one transaction, using
// INSERT ... ON CONFLICT DO UPDATE with all non-key columns overwritten.
func (s *Store) Upsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("sqlite: upsert %s: columns must not be empty", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) %s",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		conflictClause(columns, keyColumns),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, stmtSQL)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("sqlite: prepare upsert: %w", err)
	}
	defer stmt.Close()

	var written int64
	for _, row := range rows {
		if len(row) != len(columns) {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: upsert %s: row length %d != columns length %d", table, len(row), len(columns))
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("sqlite: upsert %s: %w", table, err)
		}
		written++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return written, nil
}

// conflictClause builds the ON CONFLICT target and SET list. When every
// column is part of the key there is nothing to update.
func conflictClause(columns, keyColumns []string) string {
	if len(keyColumns) == 0 {
		return ""
	}
	key := map[string]bool{}
	for _, k := range keyColumns {
		key[k] = true
	}
	var sets []string
	for _, c := range columns {
		if !key[c] {
			sets = append(sets, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}
	target := strings.Join(keyColumns, ", ")
	if len(sets) == 0 {
		return fmt.Sprintf("ON CONFLICT(%s) DO NOTHING", target)
	}
	return fmt.Sprintf("ON CONFLICT(%s) DO UPDATE SET %s", target, strings.Join(sets, ", "))
}

// Clear removes all rows from the table.
func (s *Store) Clear(ctx context.Context, table string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("sqlite: clear %s: %w", table, err)
	}
	return nil
}

// Query returns the requested columns for every row in the table.
func (s *Store) Query(ctx context.Context, table string, columns []string) ([][]any, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlite: scan %s: %w", table, err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: query %s: %w", table, err)
	}
	return out, nil
}

// Exec runs an arbitrary statement, typically DDL.
func (s *Store) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: exec: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() { _ = s.db.Close() }

func ensureSchema(ctx context.Context, store storage.Store) error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS clients (
			client_id   TEXT PRIMARY KEY,
			client_name TEXT,
			status      TEXT NOT NULL DEFAULT 'UNKNOWN',
			tier        TEXT DEFAULT 'UNKNOWN',
			created_at  TEXT,
			currency    TEXT DEFAULT 'USD',
			row_hash    TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			invoice_id    TEXT PRIMARY KEY,
			client_id     TEXT,
			client_name   TEXT,
			invoice_date  TEXT,
			amount        REAL,
			currency      TEXT DEFAULT 'USD',
			shipment_type TEXT,
			row_hash      TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS invoice_facts (
			client_id       TEXT,
			client_name     TEXT,
			client_status   TEXT,
			client_tier     TEXT,
			invoice_id      TEXT NOT NULL,
			invoice_date    TEXT,
			invoice_amount  REAL,
			currency        TEXT,
			shipment_type   TEXT,
			rate_per_unit   REAL,
			calculated_cost REAL,
			PRIMARY KEY (client_id, invoice_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_client_id ON invoices(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_shipment_type ON invoice_facts(shipment_type)`,
	} {
		if err := store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: ensure schema: %w", err)
		}
	}
	return nil
}
