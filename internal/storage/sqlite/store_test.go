package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"invoicefacts/internal/storage"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "facts.db"))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, storage.EnsureSchema(context.Background(), "sqlite", s))
	return s
}

func TestOpenEmptyDSN(t *testing.T) {
	_, err := Open(context.Background(), "  ")
	require.Error(t, err)
}

func TestUpsertInsertsAndUpdates(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	n, err := s.Upsert(ctx, storage.TableClients, storage.ClientColumns, storage.ClientKeyColumns, [][]any{
		{"C00001", "ACME", "ACTIVE", "GOLD", "2024-01-15", "USD", "h1"},
		{"C00002", "BLUE HARBOR", "INACTIVE", "SILVER", nil, "USD", "h2"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	// Upserting the same key overwrites the non-key columns.
	n, err = s.Upsert(ctx, storage.TableClients, storage.ClientColumns, storage.ClientKeyColumns, [][]any{
		{"C00001", "ACME LOGISTICS", "ACTIVE", "GOLD", "2024-01-15", "USD", "h3"},
	})
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	rows, err := s.Query(ctx, storage.TableClients, []string{"client_id", "client_name", "row_hash"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[string][]any{}
	for _, r := range rows {
		byID[r[0].(string)] = r
	}
	require.Equal(t, "ACME LOGISTICS", byID["C00001"][1])
	require.Equal(t, "h3", byID["C00001"][2])
	require.Equal(t, "BLUE HARBOR", byID["C00002"][1])
}

func TestUpsertRowLengthMismatch(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Upsert(context.Background(), storage.TableClients, storage.ClientColumns, storage.ClientKeyColumns, [][]any{
		{"C00001", "ACME"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "row length")
}

func TestUpsertEmptyRows(t *testing.T) {
	s := openTestStore(t)
	n, err := s.Upsert(context.Background(), storage.TableClients, storage.ClientColumns, storage.ClientKeyColumns, nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestClear(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, storage.TableFacts, storage.FactColumns, storage.FactKeyColumns, [][]any{
		{"C00001", "ACME", "ACTIVE", "GOLD", "INV-1", "2024-01-20", 100.0, "USD", "GROUND", 1.0, 100.0},
	})
	require.NoError(t, err)
	require.NoError(t, s.Clear(ctx, storage.TableFacts))

	rows, err := s.Query(ctx, storage.TableFacts, []string{"invoice_id"})
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestQueryPreservesNulls(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, storage.TableFacts, storage.FactColumns, storage.FactKeyColumns, [][]any{
		{"C00001", "ACME", "ACTIVE", "GOLD", "INV-1", nil, 100.0, "USD", "UNKNOWN", nil, nil},
	})
	require.NoError(t, err)

	rows, err := s.Query(ctx, storage.TableFacts, []string{"invoice_date", "rate_per_unit", "calculated_cost"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	for i, v := range rows[0] {
		require.Nil(t, v, "column %d", i)
	}
}

func TestConflictClauseAllKeyColumns(t *testing.T) {
	got := conflictClause([]string{"a", "b"}, []string{"a", "b"})
	require.Equal(t, "ON CONFLICT(a, b) DO NOTHING", got)
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, storage.EnsureSchema(context.Background(), "sqlite", s))
}
