package reconcile

import (
	"strconv"
	"strings"

	"invoicefacts/internal/fingerprint"
	"invoicefacts/internal/normalize"
	"invoicefacts/internal/schema"
	"invoicefacts/pkg/records"
)

// Invoices reconciles all invoice source batches into one canonical invoice
// per invoice id. Dedup is keep-first under the batches' natural order: the
// first file's first occurrence wins and later duplicates are silently
// dropped. Unlike clients there is no merge or backfill - invoices are
// immutable transactional records.
func Invoices(batches [][]records.Record, rates map[string]float64) []Invoice {
	var all []Invoice
	for _, batch := range batches {
		if len(batch) == 0 {
			continue
		}
		variant := schema.Detect(schema.InvoiceVariants(), batch)
		mapped := schema.Apply(variant, batch)
		rows := normalizeInvoiceBatch(mapped, rates)
		all = append(all, keepFirstByID(rows)...)
	}
	// Re-apply across all batches combined; the first batch that produced an
	// id keeps it.
	return keepFirstByID(all)
}

func normalizeInvoiceBatch(batch []records.Record, rates map[string]float64) []Invoice {
	out := make([]Invoice, 0, len(batch))
	for _, rec := range batch {
		currency := strings.ToUpper(strings.TrimSpace(rec.String(schema.FieldCurrency)))
		if currency == "" {
			currency = "USD"
		}
		date := normalize.Date(rec[schema.FieldInvoiceDate])

		inv := Invoice{
			ID:           strings.ToUpper(strings.TrimSpace(rec.String(schema.FieldInvoiceID))),
			ClientID:     strings.ToUpper(strings.TrimSpace(rec.String(schema.FieldClientID))),
			ClientName:   strings.ToUpper(normalize.Name(rec[schema.FieldClientName])),
			Date:         date,
			Amount:       normalize.Amount(rec[schema.FieldAmount]),
			Currency:     currency,
			ShipmentType: normalize.ShipmentType(rec[schema.FieldShipmentType], rates),
		}
		inv.RowHash = invoiceHash(inv)
		out = append(out, inv)
	}
	return out
}

// invoiceHash fingerprints the canonical invoice fields.
func invoiceHash(inv Invoice) string {
	return fingerprint.Hex(map[string]string{
		schema.FieldInvoiceID:    inv.ID,
		schema.FieldClientID:     inv.ClientID,
		schema.FieldClientName:   inv.ClientName,
		schema.FieldInvoiceDate:  formatDate(inv.Date),
		schema.FieldAmount:       strconv.FormatFloat(inv.Amount, 'f', -1, 64),
		schema.FieldCurrency:     inv.Currency,
		schema.FieldShipmentType: inv.ShipmentType,
	})
}

// keepFirstByID drops every invoice whose id has already been seen, in input
// order. Rows without an id cannot be keyed and pass through; fact
// derivation skips them later.
func keepFirstByID(rows []Invoice) []Invoice {
	out := make([]Invoice, 0, len(rows))
	seen := map[uint64]bool{}
	for _, inv := range rows {
		if inv.ID == "" {
			out = append(out, inv)
			continue
		}
		key := fingerprint.Key(inv.ID)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, inv)
	}
	return out
}
