// Package fingerprint produces deterministic content hashes over canonical
// record fields.
//
// Two hash shapes are exposed: Hex is the persisted row_hash, a SHA-256 hex
// digest used for change detection across runs; Key is a fast 64-bit xxh3
// digest used only for in-memory dedup grouping within a single run.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"
)

// Hex returns the SHA-256 hex digest over the given canonical fields,
// serialized as "field=value" pairs joined by "|" and sorted by field name
// for order independence. Nil or absent values serialize as the empty
// string, so a missing field and an explicitly empty one hash identically.
func Hex(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(fields[name])
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// Key returns a fast 64-bit digest over the parts, joined with an unlikely
// separator so ("ab","c") and ("a","bc") key differently. Suitable only for
// in-memory map keys, never persisted.
func Key(parts ...string) uint64 {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		b.WriteString(p)
	}
	return xxh3.HashString(b.String())
}
