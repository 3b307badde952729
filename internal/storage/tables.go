package storage

// Table names for the canonical entities and the derived fact table.
const (
	TableClients  = "clients"
	TableInvoices = "invoices"
	TableFacts    = "invoice_facts"
)

// Column orders used for upserts and queries. Backends build their
// parameter lists from these, so order matters and must match the DDL each
// backend registers.
var (
	ClientColumns = []string{
		"client_id", "client_name", "status", "tier", "created_at", "currency", "row_hash",
	}
	ClientKeyColumns = []string{"client_id"}

	InvoiceColumns = []string{
		"invoice_id", "client_id", "client_name", "invoice_date", "amount", "currency", "shipment_type", "row_hash",
	}
	InvoiceKeyColumns = []string{"invoice_id"}

	FactColumns = []string{
		"client_id", "client_name", "client_status", "client_tier",
		"invoice_id", "invoice_date", "invoice_amount", "currency", "shipment_type",
		"rate_per_unit", "calculated_cost",
	}
	FactKeyColumns = []string{"client_id", "invoice_id"}
)
