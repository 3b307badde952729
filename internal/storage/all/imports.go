// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories and DDL bootstrappers with the
// storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "sqlite"   (invoicefacts/internal/storage/sqlite)
//   - "postgres" (invoicefacts/internal/storage/postgres)
//   - "mysql"    (invoicefacts/internal/storage/mysql)
//
// Typical usage (in cmd/pipeline/main.go or a similar wiring layer):
//
//	import (
//	    _ "invoicefacts/internal/storage/all" // enable all built-in backends
//
//	    "invoicefacts/internal/storage"
//	)
//
//	store, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
//
// This pattern keeps backend-specific wiring in a single, small package and
// allows the rest of the application (pipeline, analytics, CLI) to depend
// only on the storage abstraction rather than individual backends.
//
// Note: if you want a binary that supports only a subset of backends, you can
// define an alternative wiring package that imports only the backends you
// need instead of this one.
package all

import (
	_ "invoicefacts/internal/storage/mysql"
	_ "invoicefacts/internal/storage/postgres"
	_ "invoicefacts/internal/storage/sqlite"
)
