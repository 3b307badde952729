package storage

import (
	"context"
	"strings"
	"testing"
)

type stubStore struct{ Store }

func TestNewUnknownKind(t *testing.T) {
	_, err := New(context.Background(), Config{Kind: "no-such-backend"})
	if err == nil {
		t.Fatal("expected error for unregistered kind")
	}
	if !strings.Contains(err.Error(), "no-such-backend") {
		t.Fatalf("error should name the kind: %v", err)
	}
}

func TestRegisterAndNew(t *testing.T) {
	Register("store-test-kind", func(ctx context.Context, cfg Config) (Store, error) {
		return stubStore{}, nil
	})

	s, err := New(context.Background(), Config{Kind: "store-test-kind", DSN: "unused"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s == nil {
		t.Fatal("New returned nil store")
	}

	found := false
	for _, k := range ListKinds() {
		if k == "store-test-kind" {
			found = true
		}
	}
	if !found {
		t.Fatalf("ListKinds() = %v, want it to include store-test-kind", ListKinds())
	}
}

func TestEnsureSchemaUnknownKind(t *testing.T) {
	err := EnsureSchema(context.Background(), "no-such-backend", stubStore{})
	if err == nil {
		t.Fatal("expected error for missing DDL bootstrapper")
	}
}

func TestRegisterDDL(t *testing.T) {
	called := false
	RegisterDDL("ddl-test-kind", func(ctx context.Context, store Store) error {
		called = true
		return nil
	})
	if err := EnsureSchema(context.Background(), "ddl-test-kind", stubStore{}); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	if !called {
		t.Fatal("bootstrapper was not invoked")
	}
}
