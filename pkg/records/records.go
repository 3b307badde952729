// Package records defines the loosely-typed record model that flows between
// parsers, the schema mapper, and the reconcilers. A Record is a bag of named
// fields whose values are strings, numbers, or nil; typing is resolved by the
// normalization layer, not here.
package records

import "fmt"

// Record is a single loosely-typed row keyed by field name.
type Record map[string]any

// String returns the field as a string. Nil or absent values yield "".
// Non-string values are rendered with fmt.Sprint so callers never have to
// type-switch on parser output.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether the field is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
