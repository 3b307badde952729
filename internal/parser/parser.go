// Package parser defines the contract for turning a raw export stream into
// records. Parse returns the rows it could read plus the number of rows it
// skipped as malformed; a non-nil error means the stream itself was
// unusable.
package parser

import (
	"io"

	"invoicefacts/pkg/records"
)

type Parser interface {
	Parse(r io.Reader) ([]records.Record, int, error)
}
