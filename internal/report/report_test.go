package report

import (
	"strings"
	"testing"
	"time"

	"invoicefacts/internal/analytics"
	"invoicefacts/internal/facts"
)

func TestRenderSections(t *testing.T) {
	cost := 1000.0
	express := 2000.0
	date := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	fs := []facts.Fact{
		{ClientID: "C00001", ClientName: "ACME CORP", InvoiceID: "INV-1", InvoiceDate: &date, ShipmentType: "GROUND", CalculatedCost: &cost},
		{ClientID: "C00001", ClientName: "ACME CORP", InvoiceID: "INV-2", InvoiceDate: &date, ShipmentType: "EXPRESS", CalculatedCost: &express},
	}
	res := analytics.Run(fs, analytics.Config{
		TopN:                5,
		GrowthFrom:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		GrowthTo:            time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Discounts:           map[string]float64{"GROUND": 0.20},
		Rates:               map[string]float64{"GROUND": 1.0, "EXPRESS": 10.0},
		SavingsPctThreshold: 50,
		SavingsAbsThreshold: 500000,
	})

	out := Render(res)

	for _, want := range []string{
		"SUMMARY STATISTICS",
		"QUERY 1: TOP CLIENTS BY COSTS",
		"1. ACME CORP (C00001) - $3,000.00 (2 invoices)",
		"QUERY 2: MONTH-OVER-MONTH GROWTH ANALYSIS",
		"No month-over-month growth data available",
		"QUERY 3: DISCOUNT SCENARIO - NEW TOP SPENDERS",
		"QUERY 4: EXPRESS TO GROUND RECLASSIFICATION SAVINGS",
		"Total potential savings: $1,800.00",
		"SHIPMENT TYPE BREAKDOWN",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}
