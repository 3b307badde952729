// Package storage defines the backend-agnostic persistence contract for the
// canonical entity tables and the derived fact table.
//
// The contract is deliberately narrow: an idempotent key-column upsert, a
// table clear, a plain column query, and raw Exec for schema bootstrap.
// Concrete backends (sqlite, postgres, mysql) register factories here at
// init time; callers select one by kind and stay backend-agnostic. Every
// mutating call must execute as a single transaction so a crash mid-run
// leaves the table in its last committed state.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Config selects and configures a storage backend.
type Config struct {
	// Kind selects the registered backend ("sqlite", "postgres", "mysql").
	Kind string

	// DSN is the backend connection string (file path or URL).
	DSN string
}

// Store is the persistence contract used by the reconcilers, fact
// derivation, and analytics loading.
type Store interface {
	// Upsert inserts rows or updates existing ones matching keyColumns,
	// overwriting all non-key columns. rows are aligned to columns order.
	// The whole call is one transaction.
	Upsert(ctx context.Context, table string, columns, keyColumns []string, rows [][]any) (int64, error)

	// Clear removes all rows from the table in one transaction.
	Clear(ctx context.Context, table string) error

	// Query returns the requested columns for every row in the table.
	Query(ctx context.Context, table string, columns []string) ([][]any, error)

	// Exec runs an arbitrary statement (typically DDL).
	Exec(ctx context.Context, sql string) error

	// Close releases the underlying connections.
	Close()
}

// Factory constructs a Store from a Config.
type Factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs (or replaces) the factory for a backend kind. Called
// from backend packages' init functions.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Store of the configured kind.
func New(ctx context.Context, cfg Config) (Store, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unsupported kind %q (registered: %v)", cfg.Kind, ListKinds())
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered backend kinds, sorted.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
