// Package normalize contains the field-level normalizers applied to raw
// client and invoice values before reconciliation.
//
// Every function here is total: malformed input degrades to a sentinel value
// (nil, "UNKNOWN", 0.0) with a logged warning, never an error. That contract
// is a business rule, not an accident - downstream dedup and cost math rely
// on garbage collapsing into well-known defaults instead of aborting a run.
package normalize

import (
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Canonical status values.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
	StatusUnknown  = "UNKNOWN"
)

// ShipmentUnknown is the sentinel for shipment types outside the rate sheet.
const ShipmentUnknown = "UNKNOWN"

var titleCaser = cases.Title(language.English)

// Name collapses internal whitespace and title-cases each token, preserving
// short all-uppercase tokens (<=3 chars) as acronyms: "acme corp LLC" becomes
// "Acme Corp LLC". Blank input yields "".
func Name(v any) string {
	s := asString(v)
	if strings.TrimSpace(s) == "" {
		return ""
	}
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		if isAcronym(tok) {
			continue
		}
		tokens[i] = titleCaser.String(tok)
	}
	return strings.Join(tokens, " ")
}

// isAcronym reports whether tok is an all-uppercase token of at most three
// characters containing at least one letter ("LLC", "USA", "IT").
func isAcronym(tok string) bool {
	if len(tok) > 3 {
		return false
	}
	hasLetter := false
	for _, r := range tok {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

var (
	activeSynonyms   = map[string]bool{"active": true, "act": true, "y": true, "yes": true, "true": true, "1": true}
	inactiveSynonyms = map[string]bool{"inactive": true, "inact": true, "n": true, "no": true, "false": true, "0": true}
)

// Status maps the fixed synonym set to ACTIVE/INACTIVE, falls back to a
// prefix match, and degrades to UNKNOWN for everything else.
func Status(v any) string {
	s := strings.ToLower(strings.TrimSpace(asString(v)))
	switch {
	case s == "":
		return StatusUnknown
	case activeSynonyms[s]:
		return StatusActive
	case inactiveSynonyms[s]:
		return StatusInactive
	case strings.HasPrefix(s, "active"):
		return StatusActive
	case strings.HasPrefix(s, "inact"):
		return StatusInactive
	}
	return StatusUnknown
}

// shipmentSynonyms maps upper-cased source variants to canonical codes.
var shipmentSynonyms = map[string]string{
	"2 DAY": "2DAY", "TWO DAY": "2DAY", "2-DAY": "2DAY",
	"GND": "GROUND", "STANDARD": "GROUND", "REGULAR": "GROUND",
	"EXP": "EXPRESS", "NEXT DAY": "EXPRESS", "OVERNIGHT": "EXPRESS",
	"FRT": "FREIGHT", "CARGO": "FREIGHT", "HEAVY": "FREIGHT",
}

// ShipmentType upper-cases and trims the value, resolves the fixed synonym
// table, and accepts any code already present in the rate sheet. Anything
// else is UNKNOWN.
func ShipmentType(v any, rates map[string]float64) string {
	s := strings.ToUpper(strings.TrimSpace(asString(v)))
	if s == "" {
		return ShipmentUnknown
	}
	if canon, ok := shipmentSynonyms[s]; ok {
		return canon
	}
	if _, ok := rates[s]; ok {
		return s
	}
	return ShipmentUnknown
}

// dateLayouts covers the formats seen across the source schemas, most
// specific first. Timestamps are truncated to calendar dates.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"20060102",
}

// Fuzzy fallbacks pull an ISO-ish date out of surrounding noise, e.g.
// "opened 2024-03-05 (verified)". Year-first and month-first orderings with
// -, / or . separators are recognized.
var (
	fuzzyYMD = regexp.MustCompile(`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})`)
	fuzzyMDY = regexp.MustCompile(`(\d{1,2})[-/.](\d{1,2})[-/.](\d{4})`)
)

// Date parses a calendar date from v. Already-typed time.Time values pass
// through. Unparsable or blank input yields nil with a logged warning.
func Date(v any) *time.Time {
	if v == nil {
		return nil
	}
	if t, ok := v.(time.Time); ok {
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return &d
	}
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &d
		}
	}
	if t, ok := fuzzyParse(s); ok {
		return &t
	}
	log.Printf("normalize: could not parse date %q", s)
	return nil
}

func fuzzyParse(s string) (time.Time, bool) {
	if m := fuzzyYMD.FindStringSubmatch(s); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := fuzzyMDY.FindStringSubmatch(s); m != nil {
		return buildDate(m[3], m[1], m[2])
	}
	return time.Time{}, false
}

func buildDate(y, mo, d string) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(mo)
	day, _ := strconv.Atoi(d)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// Reject calendar rollover, e.g. Feb 30 -> Mar 2.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// Amount parses a monetary amount. Numeric values cast straight to float64;
// strings are stripped of everything but digits, '.' and '-' before parsing.
// Unparsable input yields 0.0 with a logged warning - garbage amounts are
// deliberately treated as zero rather than as an error.
func Amount(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0.0
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	s := strings.TrimSpace(asString(v))
	if s == "" {
		return 0.0
	}
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	f, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		log.Printf("normalize: could not parse amount %q", s)
		return 0.0
	}
	return f
}

// asString renders a scalar field value as a string. Floats print without a
// forced exponent so "1234.56" round-trips through numeric parser output.
func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
