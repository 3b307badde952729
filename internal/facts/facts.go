// Package facts derives the denormalized invoice fact table from the
// canonical client and invoice sets.
//
// The fact table is a materialized view: every derivation run clears the
// store and repopulates it from scratch, so reruns are idempotent by
// construction rather than by upsert bookkeeping.
package facts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"invoicefacts/internal/reconcile"
	"invoicefacts/internal/storage"
)

// Fact is one derived invoice fact row, keyed by (ClientID, InvoiceID).
// Client attributes are denormalized at derivation time. RatePerUnit and
// CalculatedCost are nil when the shipment type has no rate.
type Fact struct {
	ClientID     string
	ClientName   string
	ClientStatus string
	ClientTier   string

	InvoiceID    string
	InvoiceDate  *time.Time
	Amount       float64
	Currency     string
	ShipmentType string

	RatePerUnit    *float64
	CalculatedCost *float64
}

// Derive joins every invoice to its client and computes the billed cost.
//
// Client matching: client_id equality first; when the invoice has no id
// match, case-insensitive client_name equality. If several clients share the
// name, the lowest client_id wins so the join stays deterministic. Invoices
// without an invoice id are skipped.
func Derive(clients []reconcile.Client, invoices []reconcile.Invoice, rates map[string]float64) []Fact {
	byID := make(map[string]*reconcile.Client, len(clients))
	byName := make(map[string][]*reconcile.Client)
	for i := range clients {
		c := &clients[i]
		if c.ID != "" {
			byID[c.ID] = c
		}
		if c.Name != "" {
			key := strings.ToUpper(c.Name)
			byName[key] = append(byName[key], c)
		}
	}
	for _, cands := range byName {
		sort.Slice(cands, func(i, j int) bool { return cands[i].ID < cands[j].ID })
	}

	out := make([]Fact, 0, len(invoices))
	for _, inv := range invoices {
		if inv.ID == "" {
			continue
		}
		client := matchClient(inv, byID, byName)

		fact := Fact{
			ClientID:     inv.ClientID,
			ClientName:   inv.ClientName,
			InvoiceID:    inv.ID,
			InvoiceDate:  inv.Date,
			Amount:       inv.Amount,
			Currency:     inv.Currency,
			ShipmentType: inv.ShipmentType,
		}
		if client != nil {
			fact.ClientID = client.ID
			fact.ClientName = client.Name
			fact.ClientStatus = client.Status
			fact.ClientTier = client.Tier
		}
		if rate, ok := rates[inv.ShipmentType]; ok {
			cost := inv.Amount * rate
			fact.RatePerUnit = &rate
			fact.CalculatedCost = &cost
		}
		out = append(out, fact)
	}
	return out
}

func matchClient(inv reconcile.Invoice, byID map[string]*reconcile.Client, byName map[string][]*reconcile.Client) *reconcile.Client {
	if inv.ClientID != "" {
		if c, ok := byID[inv.ClientID]; ok {
			return c
		}
	}
	if inv.ClientName != "" {
		if cands := byName[strings.ToUpper(inv.ClientName)]; len(cands) > 0 {
			return cands[0]
		}
	}
	return nil
}

// Rebuild clears the fact table and upserts the derived rows in one pass,
// keyed on (client_id, invoice_id).
func Rebuild(ctx context.Context, store storage.Store, fs []Fact) error {
	if err := store.Clear(ctx, storage.TableFacts); err != nil {
		return fmt.Errorf("clear %s: %w", storage.TableFacts, err)
	}
	rows := make([][]any, 0, len(fs))
	for _, f := range fs {
		rows = append(rows, f.Row())
	}
	if _, err := store.Upsert(ctx, storage.TableFacts, storage.FactColumns, storage.FactKeyColumns, rows); err != nil {
		return fmt.Errorf("upsert %s: %w", storage.TableFacts, err)
	}
	return nil
}

// Row serializes the fact in storage.FactColumns order.
func (f Fact) Row() []any {
	return []any{
		f.ClientID,
		f.ClientName,
		f.ClientStatus,
		f.ClientTier,
		f.InvoiceID,
		dateValue(f.InvoiceDate),
		f.Amount,
		f.Currency,
		f.ShipmentType,
		floatValue(f.RatePerUnit),
		floatValue(f.CalculatedCost),
	}
}

func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(reconcile.DateLayout)
}

func floatValue(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
