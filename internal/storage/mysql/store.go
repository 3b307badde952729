// Package mysql implements storage.Store on MySQL via database/sql. Upserts
// are multi-row INSERT ... ON DUPLICATE KEY UPDATE statements executed in
// chunks inside one transaction.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql" // driver

	"invoicefacts/internal/storage"
)

// chunkRows caps the number of rows per INSERT so the statement stays well
// under MySQL's max_allowed_packet.
const chunkRows = 500

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return Open(ctx, cfg.DSN)
	})
	storage.RegisterDDL("mysql", ensureSchema)
}

// Store is a MySQL-backed storage.Store.
type Store struct {
	db *sql.DB
}

// Open opens a MySQL connection pool, e.g. "user:pass@tcp(host:3306)/facts".
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql: open: %w", err)
	}
	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(4)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Upsert inserts or updates rows with ON DUPLICATE KEY UPDATE, chunked, in
// one transaction. keyColumns are informational here: MySQL resolves the
// conflict against the table's primary key, which the registered DDL keeps
// aligned with them.
func (s *Store) Upsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: upsert %s: columns must not be empty", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for _, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("mysql: upsert %s: row length %d != columns length %d", table, len(row), len(columns))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}

	var written int64
	for start := 0; start < len(rows); start += chunkRows {
		end := start + chunkRows
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		stmt, args := buildUpsert(table, columns, keyColumns, chunk)
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("mysql: upsert %s: %w", table, err)
		}
		written += int64(len(chunk))
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	return written, nil
}

func buildUpsert(table string, columns, keyColumns []string, rows [][]any) (string, []any) {
	rowPH := "(" + strings.Repeat("?,", len(columns)-1) + "?)"
	tuples := make([]string, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		tuples[i] = rowPH
		args = append(args, row...)
	}

	key := map[string]bool{}
	for _, k := range keyColumns {
		key[k] = true
	}
	var sets []string
	for _, c := range columns {
		if !key[c] {
			sets = append(sets, fmt.Sprintf("%s = VALUES(%s)", c, c))
		}
	}
	if len(sets) == 0 {
		// Touching a key column with itself makes the statement a no-op
		// update instead of a duplicate-key error.
		k := keyColumns[0]
		sets = []string{fmt.Sprintf("%s = %s", k, k)}
	}

	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON DUPLICATE KEY UPDATE %s",
		table,
		strings.Join(columns, ", "),
		strings.Join(tuples, ","),
		strings.Join(sets, ", "),
	)
	return stmt, args
}

// Clear truncates the table.
func (s *Store) Clear(ctx context.Context, table string) error {
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+table); err != nil {
		return fmt.Errorf("mysql: clear %s: %w", table, err)
	}
	return nil
}

// Query returns the requested columns for every row in the table. Values
// come back as []byte for text columns; callers normalize via fmt.Sprint or
// records.Record helpers.
func (s *Store) Query(ctx context.Context, table string, columns []string) ([][]any, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("mysql: query %s: %w", table, err)
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
			return nil, fmt.Errorf("mysql: scan %s: %w", table, err)
		}
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				vals[i] = string(b)
			}
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mysql: query %s: %w", table, err)
	}
	return out, nil
}

// Exec runs an arbitrary statement, typically DDL.
func (s *Store) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("mysql: exec: %w", err)
	}
	return nil
}

// Close closes the underlying pool.
func (s *Store) Close() { _ = s.db.Close() }

func ensureSchema(ctx context.Context, store storage.Store) error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS clients (
			client_id   VARCHAR(64) PRIMARY KEY,
			client_name VARCHAR(255),
			status      VARCHAR(16) NOT NULL DEFAULT 'UNKNOWN',
			tier        VARCHAR(32) DEFAULT 'UNKNOWN',
			created_at  DATE,
			currency    VARCHAR(8) DEFAULT 'USD',
			row_hash    CHAR(64)
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			invoice_id    VARCHAR(64) PRIMARY KEY,
			client_id     VARCHAR(64),
			client_name   VARCHAR(255),
			invoice_date  DATE,
			amount        DOUBLE,
			currency      VARCHAR(8) DEFAULT 'USD',
			shipment_type VARCHAR(32),
			row_hash      CHAR(64),
			KEY idx_invoices_client_id (client_id)
		)`,
		`CREATE TABLE IF NOT EXISTS invoice_facts (
			client_id       VARCHAR(64),
			client_name     VARCHAR(255),
			client_status   VARCHAR(16),
			client_tier     VARCHAR(32),
			invoice_id      VARCHAR(64) NOT NULL,
			invoice_date    DATE,
			invoice_amount  DOUBLE,
			currency        VARCHAR(8),
			shipment_type   VARCHAR(32),
			rate_per_unit   DOUBLE,
			calculated_cost DOUBLE,
			PRIMARY KEY (client_id, invoice_id),
			KEY idx_facts_shipment_type (shipment_type)
		)`,
	} {
		if err := store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("mysql: ensure schema: %w", err)
		}
	}
	return nil
}
