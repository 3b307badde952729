// Package postgres implements storage.Store on PostgreSQL using pgx v5.
// Upserts COPY the rows into a temporary staging table and then merge them
// into the target with INSERT ... ON CONFLICT, all inside one transaction.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"invoicefacts/internal/storage"
)

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Store, error) {
		return Open(ctx, cfg.DSN)
	})
	storage.RegisterDDL("postgres", ensureSchema)
}

// Store is a Postgres-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects a pgx pool using the given DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Upsert stages the rows with COPY into a temp table, then merges them into
// the target table with ON CONFLICT on keyColumns. One transaction per call.
func (s *Store) Upsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: upsert %s: columns must not be empty", table)
	}
	if len(rows) == 0 {
		return 0, nil
	}
	for _, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("postgres: upsert %s: row length %d != columns length %d", table, len(row), len(columns))
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tmp := "staging_" + strings.ReplaceAll(table, ".", "_")
	create := fmt.Sprintf(
		"CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgIdent(tmp), pgFQN(table),
	)
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("postgres: create staging table: %w", err)
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{tmp}, columns, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("postgres: copy into staging: %s (%s)", pgErr.Detail, pgErr.SQLState())
		}
		return 0, fmt.Errorf("postgres: copy into staging: %w", err)
	}

	merge := fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM %s %s",
		pgFQN(table),
		strings.Join(mapIdent(columns), ","),
		strings.Join(mapIdent(columns), ","),
		pgIdent(tmp),
		conflictClause(columns, keyColumns),
	)
	if _, err := tx.Exec(ctx, merge); err != nil {
		return 0, fmt.Errorf("postgres: merge into %s: %w", table, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return n, nil
}

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
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", pgIdent(c), pgIdent(c)))
		}
	}
	target := strings.Join(mapIdent(keyColumns), ",")
	if len(sets) == 0 {
		return fmt.Sprintf("ON CONFLICT (%s) DO NOTHING", target)
	}
	return fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s", target, strings.Join(sets, ", "))
}

// Clear truncates the table.
func (s *Store) Clear(ctx context.Context, table string) error {
	if _, err := s.pool.Exec(ctx, "TRUNCATE TABLE "+pgFQN(table)); err != nil {
		return fmt.Errorf("postgres: clear %s: %w", table, err)
	}
	return nil
}

// Query returns the requested columns for every row in the table.
func (s *Store) Query(ctx context.Context, table string, columns []string) ([][]any, error) {
	q := fmt.Sprintf("SELECT %s FROM %s", strings.Join(mapIdent(columns), ","), pgFQN(table))
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres: query %s: %w", table, err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("postgres: scan %s: %w", table, err)
		}
		out = append(out, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: query %s: %w", table, err)
	}
	return out, nil
}

// Exec runs an arbitrary statement, typically DDL.
func (s *Store) Exec(ctx context.Context, stmt string) error {
	if strings.TrimSpace(stmt) == "" {
		return nil
	}
	if _, err := s.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("postgres: exec: %w", err)
	}
	return nil
}

// Close releases the pool.
func (s *Store) Close() { s.pool.Close() }

// pgIdent quotes a single identifier segment.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// pgFQN quotes a possibly schema-qualified name like "public.invoices".
func pgFQN(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = pgIdent(p)
	}
	return strings.Join(parts, ".")
}

func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}

func ensureSchema(ctx context.Context, store storage.Store) error {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS clients (
			client_id   TEXT PRIMARY KEY,
			client_name TEXT,
			status      TEXT NOT NULL DEFAULT 'UNKNOWN',
			tier        TEXT DEFAULT 'UNKNOWN',
			created_at  DATE,
			currency    TEXT DEFAULT 'USD',
			row_hash    TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			invoice_id    TEXT PRIMARY KEY,
			client_id     TEXT,
			client_name   TEXT,
			invoice_date  DATE,
			amount        DOUBLE PRECISION,
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
			invoice_date    DATE,
			invoice_amount  DOUBLE PRECISION,
			currency        TEXT,
			shipment_type   TEXT,
			rate_per_unit   DOUBLE PRECISION,
			calculated_cost DOUBLE PRECISION,
			PRIMARY KEY (client_id, invoice_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_invoices_client_id ON invoices(client_id)`,
		`CREATE INDEX IF NOT EXISTS idx_facts_shipment_type ON invoice_facts(shipment_type)`,
	} {
		if err := store.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure schema: %w", err)
		}
	}
	return nil
}
