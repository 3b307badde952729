// Package reconcile turns heterogeneous source batches into exactly one
// canonical record per entity key.
//
// Clients and invoices deliberately reconcile differently: clients are
// evolving entities, so cross-source duplicates merge with field-level
// backfill; invoices are immutable transactions, so the first-encountered
// row wins and later duplicates are dropped outright.
package reconcile

import "time"

// Client is a canonical, merged client record.
type Client struct {
	ID        string
	Name      string
	Status    string
	Tier      string
	CreatedAt *time.Time
	Currency  string
	RowHash   string
}

// Invoice is a canonical invoice record. ClientID and ClientName may each be
// empty depending on which source schema supplied the row; fact derivation
// resolves the client either way.
type Invoice struct {
	ID           string
	ClientID     string
	ClientName   string
	Date         *time.Time
	Amount       float64
	Currency     string
	ShipmentType string
	RowHash      string
}

// DateLayout is the canonical calendar-date serialization used in row
// hashes and persisted columns.
const DateLayout = "2006-01-02"

// Row serializes the client in storage.ClientColumns order.
func (c Client) Row() []any {
	return []any{c.ID, c.Name, c.Status, c.Tier, dateValue(c.CreatedAt), c.Currency, c.RowHash}
}

// Row serializes the invoice in storage.InvoiceColumns order.
func (i Invoice) Row() []any {
	return []any{i.ID, i.ClientID, i.ClientName, dateValue(i.Date), i.Amount, i.Currency, i.ShipmentType, i.RowHash}
}

func dateValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(DateLayout)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}

func parseCanonicalDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
