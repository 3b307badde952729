// Package datasource abstracts where raw client and invoice exports come
// from. A Source yields a byte stream; parsers turn that stream into
// records.
package datasource

import (
	"context"
	"io"
)

type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
