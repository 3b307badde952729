// Package report renders analytics results as the fixed plain-text analysis
// report printed at the end of a pipeline run.
package report

import (
	"fmt"
	"strings"

	"invoicefacts/internal/analytics"
)

const rule = "--------------------------------------------------"

// Render builds the full analysis report. Insight strings from the
// aggregations are included unchanged.
func Render(res analytics.Results) string {
	var b strings.Builder

	bar := strings.Repeat("=", 80)
	fmt.Fprintf(&b, "\n%s\n", bar)
	fmt.Fprintln(&b, "INVOICE RECONCILIATION PIPELINE - ANALYSIS REPORT")
	fmt.Fprintln(&b, bar)

	fmt.Fprintln(&b, "\nSUMMARY STATISTICS")
	fmt.Fprintln(&b, rule)
	for _, insight := range res.Summary.Insights {
		fmt.Fprintf(&b, "* %s\n", insight)
	}

	fmt.Fprintln(&b, "\nQUERY 1: TOP CLIENTS BY COSTS")
	fmt.Fprintln(&b, rule)
	for i, row := range res.TopClients.Clients {
		fmt.Fprintf(&b, "%d. %s (%s) - %s (%d invoices)\n",
			i+1, row.ClientName, row.ClientID, analytics.Dollars(row.TotalCost), row.InvoiceCount)
	}

	fmt.Fprintln(&b, "\nQUERY 2: MONTH-OVER-MONTH GROWTH ANALYSIS")
	fmt.Fprintln(&b, rule)
	if len(res.Growth.Rows) == 0 {
		fmt.Fprintln(&b, "No month-over-month growth data available")
	} else {
		for _, insight := range res.Growth.Insights {
			fmt.Fprintf(&b, "* %s\n", insight)
		}
		fmt.Fprintln(&b, "\nSample Growth Periods (first 10):")
		shown := 0
		for _, row := range res.Growth.Rows {
			if shown == 10 {
				break
			}
			if row.GrowthPct == nil {
				continue
			}
			fmt.Fprintf(&b, "  %s - %s: %s (%+.1f%% vs prev month)\n",
				row.ClientName, row.Month.Format("2006-01"), analytics.Dollars(row.MonthlyCost), *row.GrowthPct)
			shown++
		}
	}

	fmt.Fprintln(&b, "\nQUERY 3: DISCOUNT SCENARIO - NEW TOP SPENDERS")
	fmt.Fprintln(&b, rule)
	for i, row := range res.Discount.Rows {
		fmt.Fprintf(&b, "%d. %s - %s after discounts (saved %s, %.1f%%)\n",
			i+1, row.ClientName, analytics.Dollars(row.DiscountedCost), analytics.Dollars(row.Savings), row.SavingsPct)
	}

	fmt.Fprintln(&b, "\nQUERY 4: EXPRESS TO GROUND RECLASSIFICATION SAVINGS")
	fmt.Fprintln(&b, rule)
	rc := res.Reclassification
	fmt.Fprintf(&b, "Total potential savings: %s\n", analytics.Dollars(rc.TotalSavings))
	fmt.Fprintf(&b, "Clients with savings over the percentage threshold: %d\n", len(rc.ClientsOverPct))
	fmt.Fprintf(&b, "Clients with savings over the dollar threshold: %d\n", len(rc.ClientsOverAbs))
	if len(rc.ClientsOverAbs) > 0 {
		fmt.Fprintln(&b, "\nClients with large dollar savings opportunity:")
		for i, client := range rc.ClientsOverAbs {
			if i == 10 {
				break
			}
			fmt.Fprintf(&b, "  * %s\n", client)
		}
	}

	fmt.Fprintln(&b, "\nSHIPMENT TYPE BREAKDOWN")
	fmt.Fprintln(&b, rule)
	for _, st := range res.Summary.ShipmentBreakdown {
		fmt.Fprintf(&b, "%s: %s shipments, %s total (avg: %s)\n",
			st.ShipmentType, analytics.Count(st.Count), analytics.Dollars(st.TotalCost), analytics.Dollars(st.AvgCost))
	}

	fmt.Fprintf(&b, "\n%s\n", bar)
	return b.String()
}
