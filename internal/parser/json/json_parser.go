// Package json implements a JSON parser that turns JSON objects into
// records.Record maps.
//
// It is deliberately simple and conservative:
//
//   - Supports newline-delimited JSON objects:
//     {"inv_no":"INV-1","total":100}
//     {"inv_no":"INV-2","total":250}
//   - Also supports multiple JSON objects in a stream (same as NDJSON).
//   - A top-level array of objects is accepted when AllowArrays is set,
//     which is how the v2 invoice exports arrive.
//
// Numbers decode as json.Number so the normalization layer decides how to
// interpret them instead of losing precision to float64 here.
package json

import (
	"encoding/json"
	"fmt"
	"io"
	"log"

	"invoicefacts/pkg/records"
)

// Options configures the JSON parser.
type Options struct {
	// AllowArrays accepts a top-level JSON array of objects.
	AllowArrays bool
}

// Parser parses NDJSON or array-of-object input into records. It mirrors
// the csv.Parser shape so callers can treat formats uniformly.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads all objects from r. Non-object top-level values inside an
// NDJSON stream are skipped and counted; a top-level value that is neither
// an object nor an allowed array is a stream error.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var out []records.Record
	var skipped int

	first := true
	for {
		var raw any
		if err := dec.Decode(&raw); err != nil {
			if err == io.EOF {
				return out, skipped, nil
			}
			return nil, skipped, fmt.Errorf("json parser: decode: %w", err)
		}

		switch v := raw.(type) {
		case map[string]any:
			out = append(out, records.Record(v))

		case []any:
			if !p.opt.AllowArrays || !first {
				return nil, skipped, fmt.Errorf("json parser: unexpected top-level array")
			}
			for i, elem := range v {
				obj, ok := elem.(map[string]any)
				if !ok {
					log.Printf("Skipping array element %d: not an object", i)
					skipped++
					continue
				}
				out = append(out, records.Record(obj))
			}

		default:
			// Junk line in an NDJSON stream; soft-fail like the CSV parser.
			skipped++
		}
		first = false
	}
}
