// Package schema detects which known source schema a record batch uses and
// renames its columns to the canonical field layout.
//
// Detection is a closed, ordered list of Variant descriptors per entity type.
// Each variant carries the column signature that identifies it and the rename
// table applied on a match; the first matching variant wins, and the last
// entry in each list is the identity ("v1") fallback. Column matching is
// case-insensitive and treats spaces as underscores, so "Inv No" and
// "INV_NO" both key as "inv_no".
package schema

import (
	"strings"

	"invoicefacts/pkg/records"
)

// Canonical client field names.
const (
	FieldClientID   = "client_id"
	FieldClientName = "client_name"
	FieldStatus     = "status"
	FieldTier       = "tier"
	FieldCreatedAt  = "created_at"
	FieldCurrency   = "currency"
)

// Canonical invoice field names.
const (
	FieldInvoiceID    = "invoice_id"
	FieldInvoiceDate  = "invoice_date"
	FieldAmount       = "amount"
	FieldShipmentType = "shipment_type"
)

// Rule renames one canonicalized source column to a canonical field name.
type Rule struct {
	From string
	To   string
}

// Variant describes one known source schema: the columns whose joint
// presence identifies it and the source-to-canonical rename rules.
type Variant struct {
	// Name labels the variant in logs ("v1", "v2", "v3").
	Name string

	// Signature lists the canonicalized column keys that must all be present
	// for the variant to match. Empty means unconditional (the fallback).
	Signature []string

	// Rules are applied in order; when two rules target the same canonical
	// field (e.g. v2's total and subtotal both feed amount), the first rule
	// whose source column is present wins.
	Rules []Rule
}

// ClientVariants returns the known client schemas in detection priority order.
func ClientVariants() []Variant {
	return []Variant{
		{
			Name:      "v2",
			Signature: []string{"id", "tier"},
			Rules: []Rule{
				{"id", FieldClientID},
				{"name", FieldClientName},
				{"tier", FieldTier},
				{"acct_open_date", FieldCreatedAt},
			},
		},
		{
			Name:      "v3",
			Signature: []string{"customer_key", "display_name"},
			Rules: []Rule{
				{"customer_key", FieldClientID},
				{"display_name", FieldClientName},
				{"active_flag", FieldStatus},
				{"signup_ts", FieldCreatedAt},
				{"currency", FieldCurrency},
			},
		},
		{
			Name: "v1",
			Rules: []Rule{
				{"client_id", FieldClientID},
				{"client_name", FieldClientName},
				{"status", FieldStatus},
				{"created_at", FieldCreatedAt},
				{"tier", FieldTier},
				{"currency", FieldCurrency},
			},
		},
	}
}

// InvoiceVariants returns the known invoice schemas in detection priority
// order. Note that v3 supplies a client name, not a client id.
func InvoiceVariants() []Variant {
	return []Variant{
		{
			Name:      "v2",
			Signature: []string{"inv_no", "customer_key"},
			Rules: []Rule{
				{"inv_no", FieldInvoiceID},
				{"customer_key", FieldClientID},
				{"inv_dt", FieldInvoiceDate},
				{"total", FieldAmount},
				{"subtotal", FieldAmount},
				{"curr", FieldCurrency},
				{"ship_type", FieldShipmentType},
			},
		},
		{
			Name:      "v3",
			Signature: []string{"invoice_uid", "client_ref"},
			Rules: []Rule{
				{"invoice_uid", FieldInvoiceID},
				{"client_ref", FieldClientName},
				{"issued_on", FieldInvoiceDate},
				{"amount_usd", FieldAmount},
				{"shipment_category", FieldShipmentType},
			},
		},
		{
			Name: "v1",
			Rules: []Rule{
				{"invoice_id", FieldInvoiceID},
				{"client_id", FieldClientID},
				{"invoice_date", FieldInvoiceDate},
				{"amount", FieldAmount},
				{"currency", FieldCurrency},
				{"shipment_type", FieldShipmentType},
			},
		},
	}
}

// Key canonicalizes a source column name for matching: lower-cased, trimmed,
// spaces replaced with underscores.
func Key(col string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(col)), " ", "_")
}

// Detect returns the first variant whose signature columns are all present
// in the batch. The column set is the union of keys across all records, so a
// sparse first row cannot mis-detect the schema.
func Detect(variants []Variant, batch []records.Record) Variant {
	cols := map[string]bool{}
	for _, rec := range batch {
		for k := range rec {
			cols[Key(k)] = true
		}
	}
	for _, v := range variants {
		matched := true
		for _, sig := range v.Signature {
			if !cols[sig] {
				matched = false
				break
			}
		}
		if matched {
			return v
		}
	}
	// Lists always end with an unconditional fallback; unreachable with the
	// built-in variant sets.
	return variants[len(variants)-1]
}

// Apply renames each record's columns to canonical field names according to
// the variant. Rules run in declared order and the first present source
// column claims its canonical field. Unmapped columns pass through under
// their canonicalized key; absent columns stay absent so downstream
// normalization can fill type-appropriate defaults.
func Apply(v Variant, batch []records.Record) []records.Record {
	out := make([]records.Record, len(batch))
	for i, rec := range batch {
		// Index the record by canonicalized key.
		byKey := make(records.Record, len(rec))
		for col, val := range rec {
			byKey[Key(col)] = val
		}

		mapped := make(records.Record, len(byKey))
		claimed := map[string]bool{}
		for _, rule := range v.Rules {
			val, ok := byKey[rule.From]
			if !ok || claimed[rule.To] {
				continue
			}
			mapped[rule.To] = val
			claimed[rule.To] = true
			delete(byKey, rule.From)
		}
		for key, val := range byKey {
			if _, exists := mapped[key]; !exists {
				mapped[key] = val
			}
		}
		out[i] = mapped
	}
	return out
}
