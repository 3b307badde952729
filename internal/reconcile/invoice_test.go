package reconcile

import (
	"testing"

	"invoicefacts/pkg/records"
)

var testRates = map[string]float64{"GROUND": 1, "2DAY": 5, "EXPRESS": 10, "FREIGHT": 20}

func TestInvoicesKeepFirstAcrossBatches(t *testing.T) {
	first := []records.Record{
		{"invoice_id": "INV-1001", "client_id": "C00001", "invoice_date": "2024-01-20", "amount": "100", "shipment_type": "ground"},
	}
	second := []records.Record{
		{"invoice_id": "INV-1001", "client_id": "C00001", "invoice_date": "2024-01-20", "amount": "999", "shipment_type": "ground"},
		{"invoice_id": "INV-1002", "client_id": "C00001", "invoice_date": "2024-02-03", "amount": "50", "shipment_type": "express"},
	}

	got := Invoices([][]records.Record{first, second}, testRates)
	if len(got) != 2 {
		t.Fatalf("got %d invoices, want 2", len(got))
	}
	if got[0].ID != "INV-1001" || got[0].Amount != 100 {
		t.Fatalf("first occurrence must win: %+v", got[0])
	}
	if got[1].ID != "INV-1002" {
		t.Fatalf("got %+v, want INV-1002", got[1])
	}
}

func TestInvoicesNormalization(t *testing.T) {
	batch := []records.Record{
		{"invoice_id": "inv-2001", "client_id": "c00002", "invoice_date": "02/03/2024", "amount": "$1,250.50", "shipment_type": "overnight"},
	}
	got := Invoices([][]records.Record{batch}, testRates)
	if len(got) != 1 {
		t.Fatalf("got %d invoices, want 1", len(got))
	}
	inv := got[0]
	if inv.ID != "INV-2001" || inv.ClientID != "C00002" {
		t.Fatalf("ids not upper-cased: %+v", inv)
	}
	if inv.Amount != 1250.50 {
		t.Fatalf("amount = %v, want 1250.50", inv.Amount)
	}
	if inv.ShipmentType != "EXPRESS" {
		t.Fatalf("shipment_type = %q, want EXPRESS via synonym", inv.ShipmentType)
	}
	if inv.Currency != "USD" {
		t.Fatalf("currency = %q, want USD default", inv.Currency)
	}
	if inv.Date == nil || inv.Date.Format(DateLayout) != "2024-02-03" {
		t.Fatalf("date = %v, want 2024-02-03", inv.Date)
	}
	if inv.RowHash == "" {
		t.Fatal("row hash must be set")
	}
}

func TestInvoicesRowsWithoutIDPassThrough(t *testing.T) {
	batch := []records.Record{
		{"invoice_id": "", "client_id": "C00001", "amount": "10", "shipment_type": "ground"},
		{"invoice_id": "", "client_id": "C00001", "amount": "20", "shipment_type": "ground"},
	}
	got := Invoices([][]records.Record{batch}, testRates)
	if len(got) != 2 {
		t.Fatalf("got %d invoices, want 2 (unkeyed rows are never deduped)", len(got))
	}
}

func TestInvoicesSchemaVariants(t *testing.T) {
	v2 := []records.Record{
		{"inv_no": "INV-3001", "customer_key": "C00003", "inv_dt": "2024-03-01", "total": "75", "curr": "eur", "ship_type": "frt"},
	}
	v3 := []records.Record{
		{"invoice_uid": "INV-3002", "client_ref": "acme logistics", "issued_on": "2024-03-05", "amount_usd": "40", "shipment_category": "2 day"},
	}

	got := Invoices([][]records.Record{v2, v3}, testRates)
	if len(got) != 2 {
		t.Fatalf("got %d invoices, want 2", len(got))
	}
	if got[0].ClientID != "C00003" || got[0].Currency != "EUR" || got[0].ShipmentType != "FREIGHT" {
		t.Fatalf("v2 row mis-mapped: %+v", got[0])
	}
	if got[1].ClientID != "" || got[1].ClientName != "ACME LOGISTICS" || got[1].ShipmentType != "2DAY" {
		t.Fatalf("v3 row mis-mapped: %+v", got[1])
	}
}

func TestInvoiceHashDistinguishesRows(t *testing.T) {
	batch := []records.Record{
		{"invoice_id": "INV-1", "client_id": "C00001", "amount": "10", "shipment_type": "ground"},
		{"invoice_id": "INV-2", "client_id": "C00001", "amount": "10", "shipment_type": "ground"},
	}
	got := Invoices([][]records.Record{batch}, testRates)
	if got[0].RowHash == got[1].RowHash {
		t.Fatal("different invoices must hash differently")
	}
}

func TestInvoiceRowSerialization(t *testing.T) {
	inv := Invoice{ID: "INV-1", ClientID: "C00001", Date: date(2024, 1, 20), Amount: 100, Currency: "USD", ShipmentType: "GROUND", RowHash: "abc"}
	row := inv.Row()
	if len(row) != 8 {
		t.Fatalf("row has %d columns, want 8", len(row))
	}
	if row[3] != "2024-01-20" {
		t.Fatalf("invoice_date column = %v", row[3])
	}

	inv.Date = nil
	if got := inv.Row()[3]; got != nil {
		t.Fatalf("nil date should serialize as nil, got %v", got)
	}
}
