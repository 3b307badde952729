package report

import (
	"reflect"
	"strings"
	"testing"

	"invoicefacts/pkg/records"
)

func TestParseStatementText(t *testing.T) {
	input := `
Client Statement

C00001
Acme Corp
ACTIVE
2023-01-15

Page 1 of 2

C00002
Globex
inactive
2022-11-03
`

	recs, skipped, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped=%d want 0", skipped)
	}

	want := []records.Record{
		{
			"client_id":   "C00001",
			"client_name": "Acme Corp",
			"status":      "ACTIVE",
			"created_at":  "2023-01-15",
			"tier":        nil,
			"currency":    "USD",
		},
		{
			"client_id":   "C00002",
			"client_name": "Globex",
			"status":      "inactive",
			"created_at":  "2022-11-03",
			"tier":        nil,
			"currency":    "USD",
		},
	}
	if !reflect.DeepEqual(recs, want) {
		t.Fatalf("records mismatch:\n got: %#v\nwant: %#v", recs, want)
	}
}

func TestParseTruncatedAnchorSkipped(t *testing.T) {
	// Anchor at the end of the stream without its three value lines.
	input := "C00001\nAcme Corp\nACTIVE\n2023-01-15\nC00002\nGlobex\n"

	recs, skipped, err := NewParser().Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if got, want := len(recs), 1; got != want {
		t.Fatalf("len(recs)=%d want %d", got, want)
	}
	if skipped != 1 {
		t.Fatalf("skipped=%d want 1", skipped)
	}
}

func TestParseNoAnchors(t *testing.T) {
	recs, skipped, err := NewParser().Parse(strings.NewReader("just\nsome\nnoise\n"))
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if recs != nil || skipped != 0 {
		t.Fatalf("got (%#v, %d), want (nil, 0)", recs, skipped)
	}
}
