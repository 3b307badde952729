package storage

import (
	"context"
	"fmt"
	"sync"
)

// DDLBootstrapper creates the three fixed tables for one backend dialect.
// Backends register their implementation for their kind at init time, next
// to their Store factory.
type DDLBootstrapper func(ctx context.Context, store Store) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the schema bootstrapper for a backend
// kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureSchema creates the canonical and fact tables for the given backend
// kind if they do not already exist.
func EnsureSchema(ctx context.Context, kind string, store Store) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("storage: no DDL bootstrapper registered for kind %q", kind)
	}
	return fn(ctx, store)
}
