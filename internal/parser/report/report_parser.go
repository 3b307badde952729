// Package report implements a line-oriented parser for client statements
// that arrive as text extracted from PDFs. The extraction step upstream
// flattens each statement into one value per line; this parser recovers the
// client records from that stream.
//
// A record is anchored by a line that is exactly a client id (C followed by
// five digits). The three lines after the anchor carry the client name,
// status, and creation date. Anchors too close to the end of the stream are
// skipped. Tier is never present in statements, and currency is always USD.
package report

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"invoicefacts/pkg/records"
)

var anchorRe = regexp.MustCompile(`^C\d{5}$`)

// Parser parses extracted statement text. The zero value is ready to use.
type Parser struct{}

// NewParser constructs a Parser.
func NewParser() *Parser { return &Parser{} }

// Parse scans r for client-id anchor lines and assembles one record per
// complete anchor block. Blank lines are dropped before scanning, matching
// the upstream text extraction. The skipped count is the number of anchors
// without enough following lines to complete a record.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("scan statement text: %w", err)
	}

	var out []records.Record
	var skipped int
	for i := 0; i < len(lines); {
		if !anchorRe.MatchString(lines[i]) {
			i++
			continue
		}
		if i+3 >= len(lines) {
			skipped++
			i++
			continue
		}
		out = append(out, records.Record{
			"client_id":   lines[i],
			"client_name": lines[i+1],
			"status":      lines[i+2],
			"created_at":  lines[i+3],
			"tier":        nil,
			"currency":    "USD",
		})
		i += 4
	}
	return out, skipped, nil
}
