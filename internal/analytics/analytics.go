// Package analytics implements the fixed read-only aggregations over the
// derived fact set: top clients by cost, month-over-month growth, the
// discount scenario, the EXPRESS reclassification scenario, and overall
// summary statistics.
//
// All aggregations are pure functions over a fact slice plus an explicit
// Config; they never touch the store. Facts without a calculated cost
// contribute nothing to cost sums but still count as shipments, matching
// how SQL aggregates treat NULL. Ordering ties break on client id so
// results are deterministic.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"invoicefacts/internal/facts"
)

// Config carries the injectable tables and windows for the aggregations.
type Config struct {
	// TopN bounds the top-clients ranking.
	TopN int

	// GrowthFrom (inclusive) and GrowthTo (exclusive) window the
	// month-over-month analysis by invoice date.
	GrowthFrom time.Time
	GrowthTo   time.Time

	// Discounts maps shipment type to the discount fraction applied in the
	// discount scenario; types absent from the map are unchanged.
	Discounts map[string]float64

	// Rates is the rate sheet; the reclassification scenario reprices
	// EXPRESS shipments at the GROUND/EXPRESS rate ratio.
	Rates map[string]float64

	// SavingsPctThreshold and SavingsAbsThreshold flag reclassification
	// opportunities ("over 50%", "over $500k").
	SavingsPctThreshold float64
	SavingsAbsThreshold float64
}

// Results bundles the output of every aggregation for one run.
type Results struct {
	TopClients       TopClientsResult
	Growth           GrowthResult
	Discount         DiscountResult
	Reclassification ReclassResult
	Summary          SummaryResult
}

// Run executes all aggregations over the fact slice.
func Run(fs []facts.Fact, cfg Config) Results {
	return Results{
		TopClients:       TopClients(fs, cfg.TopN),
		Growth:           MonthOverMonthGrowth(fs, cfg.GrowthFrom, cfg.GrowthTo),
		Discount:         DiscountScenario(fs, cfg.Discounts, cfg.TopN),
		Reclassification: ReclassificationScenario(fs, cfg),
		Summary:          SummaryStats(fs),
	}
}

// money formats amounts with thousands separators, e.g. 1,234.56.
var money = message.NewPrinter(language.English)

// Dollars formats a dollar amount for insight strings and the rendered
// report, e.g. $1,234.56.
func Dollars(v float64) string { return money.Sprintf("$%.2f", v) }

// Count formats an integer with thousands separators.
func Count(n int) string { return money.Sprintf("%d", n) }

// TopClient is one row of the top-clients ranking.
type TopClient struct {
	ClientID     string
	ClientName   string
	ClientStatus string
	TotalCost    float64
	InvoiceCount int
	AvgCost      float64
}

// TopClientsResult is the ranking plus derived insight lines.
type TopClientsResult struct {
	Clients  []TopClient
	Insights []string
}

// TopClients ranks clients by summed calculated cost, descending, keeping
// the first n. Facts without a client id are excluded.
func TopClients(fs []facts.Fact, n int) TopClientsResult {
	type agg struct {
		row      TopClient
		costed   int
		costTot  float64
	}
	byClient := map[string]*agg{}
	for _, f := range fs {
		if f.ClientID == "" {
			continue
		}
		a := byClient[f.ClientID]
		if a == nil {
			a = &agg{row: TopClient{ClientID: f.ClientID, ClientName: f.ClientName, ClientStatus: f.ClientStatus}}
			byClient[f.ClientID] = a
		}
		a.row.InvoiceCount++
		if f.CalculatedCost != nil {
			a.costTot += *f.CalculatedCost
			a.costed++
		}
	}

	rows := make([]TopClient, 0, len(byClient))
	for _, a := range byClient {
		a.row.TotalCost = a.costTot
		if a.costed > 0 {
			a.row.AvgCost = a.costTot / float64(a.costed)
		}
		rows = append(rows, a.row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalCost != rows[j].TotalCost {
			return rows[i].TotalCost > rows[j].TotalCost
		}
		return rows[i].ClientID < rows[j].ClientID
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}

	res := TopClientsResult{Clients: rows}
	if len(rows) > 0 {
		var totalTop float64
		var invoices int
		for _, r := range rows {
			totalTop += r.TotalCost
			invoices += r.InvoiceCount
		}
		res.Insights = []string{
			fmt.Sprintf("Top client: %s with %s in costs", rows[0].ClientName, Dollars(rows[0].TotalCost)),
			fmt.Sprintf("Total costs from top %d: %s", len(rows), Dollars(totalTop)),
			fmt.Sprintf("Average invoices per top client: %.1f", float64(invoices)/float64(len(rows))),
		}
	}
	return res
}

// GrowthRow is one client-month with its immediately preceding calendar
// month. GrowthPct is nil when the previous month's total is zero.
type GrowthRow struct {
	ClientID          string
	ClientName        string
	Month             time.Time
	MonthlyCost       float64
	PrevMonthCost     float64
	MonthlyInvoices   int
	PrevMonthInvoices int
	GrowthPct         *float64
}

// GrowthResult is the growth rows plus derived insight lines.
type GrowthResult struct {
	Rows     []GrowthRow
	Insights []string
}

// growthRowLimit matches the fixed cap on reported growth periods.
const growthRowLimit = 20

// MonthOverMonthGrowth computes per-client monthly cost totals within
// [from, to) and compares each month against the immediately preceding
// calendar month. A row is emitted only when that previous month has data.
// Rows are ordered by client id then month and capped at 20.
func MonthOverMonthGrowth(fs []facts.Fact, from, to time.Time) GrowthResult {
	type month struct {
		name     string
		cost     float64
		invoices int
	}
	type clientKey struct {
		id string
		ym string
	}
	months := map[clientKey]*month{}
	for _, f := range fs {
		if f.ClientID == "" || f.InvoiceDate == nil {
			continue
		}
		d := *f.InvoiceDate
		if d.Before(from) || !d.Before(to) {
			continue
		}
		k := clientKey{id: f.ClientID, ym: d.Format("2006-01")}
		m := months[k]
		if m == nil {
			m = &month{name: f.ClientName}
			months[k] = m
		}
		m.invoices++
		if f.CalculatedCost != nil {
			m.cost += *f.CalculatedCost
		}
	}

	var rows []GrowthRow
	for k, m := range months {
		cur, err := time.Parse("2006-01", k.ym)
		if err != nil {
			continue
		}
		prevKey := clientKey{id: k.id, ym: cur.AddDate(0, -1, 0).Format("2006-01")}
		prev, ok := months[prevKey]
		if !ok {
			continue
		}
		row := GrowthRow{
			ClientID:          k.id,
			ClientName:        m.name,
			Month:             cur,
			MonthlyCost:       m.cost,
			PrevMonthCost:     prev.cost,
			MonthlyInvoices:   m.invoices,
			PrevMonthInvoices: prev.invoices,
		}
		if prev.cost != 0 {
			pct := (m.cost - prev.cost) / prev.cost * 100
			row.GrowthPct = &pct
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ClientID != rows[j].ClientID {
			return rows[i].ClientID < rows[j].ClientID
		}
		return rows[i].Month.Before(rows[j].Month)
	})
	if len(rows) > growthRowLimit {
		rows = rows[:growthRowLimit]
	}

	res := GrowthResult{Rows: rows}
	if len(rows) > 0 {
		var positive, negative int
		var minPct, maxPct float64
		seen := false
		for _, r := range rows {
			if r.GrowthPct == nil {
				continue
			}
			p := *r.GrowthPct
			if p > 0 {
				positive++
			}
			if p < 0 {
				negative++
			}
			if !seen || p < minPct {
				minPct = p
			}
			if !seen || p > maxPct {
				maxPct = p
			}
			seen = true
		}
		res.Insights = []string{
			fmt.Sprintf("Periods with positive growth: %d", positive),
			fmt.Sprintf("Periods with negative growth: %d", negative),
		}
		if seen {
			res.Insights = append(res.Insights,
				fmt.Sprintf("Growth rate range: %.1f%% to %.1f%%", minPct, maxPct))
		}
	}
	return res
}

// DiscountRow is one client's position after applying the discount table.
type DiscountRow struct {
	ClientID       string
	ClientName     string
	OriginalCost   float64
	DiscountedCost float64
	Savings        float64
	SavingsPct     float64
	Shipments      int
}

// DiscountResult holds the re-ranked top spenders. Rows is the new top-N
// after discounts; the insight lines aggregate over the wider ranking the
// scenario examined (twice N).
type DiscountResult struct {
	Rows     []DiscountRow
	Insights []string
}

// DiscountScenario applies per-shipment-type percentage discounts and
// re-ranks clients by post-discount spend, descending.
func DiscountScenario(fs []facts.Fact, discounts map[string]float64, topN int) DiscountResult {
	byClient := map[string]*DiscountRow{}
	for _, f := range fs {
		if f.ClientID == "" {
			continue
		}
		r := byClient[f.ClientID]
		if r == nil {
			r = &DiscountRow{ClientID: f.ClientID, ClientName: f.ClientName}
			byClient[f.ClientID] = r
		}
		r.Shipments++
		if f.CalculatedCost == nil {
			continue
		}
		cost := *f.CalculatedCost
		r.OriginalCost += cost
		if d, ok := discounts[f.ShipmentType]; ok {
			cost *= 1 - d
		}
		r.DiscountedCost += cost
	}

	rows := make([]DiscountRow, 0, len(byClient))
	for _, r := range byClient {
		r.Savings = r.OriginalCost - r.DiscountedCost
		if r.OriginalCost != 0 {
			r.SavingsPct = r.Savings / r.OriginalCost * 100
		}
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].DiscountedCost != rows[j].DiscountedCost {
			return rows[i].DiscountedCost > rows[j].DiscountedCost
		}
		return rows[i].ClientID < rows[j].ClientID
	})

	examined := rows
	if limit := topN * 2; limit > 0 && len(examined) > limit {
		examined = examined[:limit]
	}

	res := DiscountResult{}
	if len(examined) > 0 {
		var totalSavings, totalOriginal float64
		for _, r := range examined {
			totalSavings += r.Savings
			totalOriginal += r.OriginalCost
		}
		avgPct := 0.0
		if totalOriginal != 0 {
			avgPct = totalSavings / totalOriginal * 100
		}
		res.Insights = []string{
			fmt.Sprintf("Total savings for top %d clients: %s", len(examined), Dollars(totalSavings)),
			fmt.Sprintf("Average savings percentage: %.1f%%", avgPct),
			fmt.Sprintf("New #1 spender after discounts: %s (%s)", examined[0].ClientName, Dollars(examined[0].DiscountedCost)),
		}
	}
	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}
	res.Rows = rows
	return res
}

// ReclassRow is one client's EXPRESS to GROUND repricing opportunity.
type ReclassRow struct {
	ClientID         string
	ClientName       string
	ExpressShipments int
	ExpressCost      float64
	GroundEquivalent float64
	Savings          float64
	SavingsPct       float64
	OverPctThreshold bool
	OverAbsThreshold bool
	TotalCost        float64
}

// ReclassResult holds the reclassification rows (clients with at least one
// EXPRESS shipment, ordered by savings descending) and roll-up answers.
type ReclassResult struct {
	Rows     []ReclassRow
	Insights []string

	ClientsOverPct []string
	ClientsOverAbs []string
	TotalSavings   float64
}

// ReclassificationScenario reprices every EXPRESS shipment at the
// GROUND/EXPRESS rate ratio and reports the savings per client, flagged
// against the configured percentage and absolute thresholds.
func ReclassificationScenario(fs []facts.Fact, cfg Config) ReclassResult {
	factor := 0.0
	if e := cfg.Rates["EXPRESS"]; e != 0 {
		factor = cfg.Rates["GROUND"] / e
	}

	byClient := map[string]*ReclassRow{}
	for _, f := range fs {
		if f.ClientID == "" {
			continue
		}
		r := byClient[f.ClientID]
		if r == nil {
			r = &ReclassRow{ClientID: f.ClientID, ClientName: f.ClientName}
			byClient[f.ClientID] = r
		}
		if f.ShipmentType == "EXPRESS" {
			r.ExpressShipments++
		}
		if f.CalculatedCost == nil {
			continue
		}
		cost := *f.CalculatedCost
		r.TotalCost += cost
		if f.ShipmentType == "EXPRESS" {
			r.ExpressCost += cost
			r.GroundEquivalent += cost * factor
		}
	}

	res := ReclassResult{}
	rows := make([]ReclassRow, 0, len(byClient))
	for _, r := range byClient {
		if r.ExpressShipments == 0 {
			continue
		}
		r.Savings = r.ExpressCost - r.GroundEquivalent
		if r.TotalCost != 0 {
			r.SavingsPct = r.Savings / r.TotalCost * 100
		}
		r.OverPctThreshold = r.SavingsPct > cfg.SavingsPctThreshold
		r.OverAbsThreshold = r.Savings > cfg.SavingsAbsThreshold
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Savings != rows[j].Savings {
			return rows[i].Savings > rows[j].Savings
		}
		return rows[i].ClientID < rows[j].ClientID
	})

	for _, r := range rows {
		res.TotalSavings += r.Savings
		if r.OverPctThreshold {
			res.ClientsOverPct = append(res.ClientsOverPct, r.ClientName)
		}
		if r.OverAbsThreshold {
			res.ClientsOverAbs = append(res.ClientsOverAbs, r.ClientName)
		}
	}
	if len(rows) > 0 {
		res.Insights = []string{
			fmt.Sprintf("Total potential savings across all clients: %s", Dollars(res.TotalSavings)),
			fmt.Sprintf("Clients with >%.0f%% savings: %d clients", cfg.SavingsPctThreshold, len(res.ClientsOverPct)),
			fmt.Sprintf("Clients with >%s savings: %d clients", Dollars(cfg.SavingsAbsThreshold), len(res.ClientsOverAbs)),
			fmt.Sprintf("Biggest savings opportunity: %s (%s)", rows[0].ClientName, Dollars(rows[0].Savings)),
		}
	}
	if len(rows) > 10 {
		rows = rows[:10]
	}
	res.Rows = rows
	return res
}

// ShipmentStat is the per-shipment-type cost breakdown.
type ShipmentStat struct {
	ShipmentType string
	Count        int
	TotalCost    float64
	AvgCost      float64
}

// SummaryResult is the overall dataset roll-up.
type SummaryResult struct {
	UniqueClients     int
	UniqueInvoices    int
	TotalCost         float64
	AvgInvoiceCost    float64
	EarliestInvoice   *time.Time
	LatestInvoice     *time.Time
	ShipmentTypes     int
	ShipmentBreakdown []ShipmentStat
	Insights          []string
}

// SummaryStats computes the overall counts, cost totals, and per-shipment
// breakdown.
func SummaryStats(fs []facts.Fact) SummaryResult {
	clients := map[string]bool{}
	invoices := map[string]bool{}
	byType := map[string]*ShipmentStat{}

	var res SummaryResult
	var costed int
	typeCosted := map[string]int{}
	for _, f := range fs {
		if f.ClientID != "" {
			clients[f.ClientID] = true
		}
		invoices[f.InvoiceID] = true

		st := byType[f.ShipmentType]
		if st == nil {
			st = &ShipmentStat{ShipmentType: f.ShipmentType}
			byType[f.ShipmentType] = st
		}
		st.Count++

		if f.CalculatedCost != nil {
			res.TotalCost += *f.CalculatedCost
			st.TotalCost += *f.CalculatedCost
			costed++
			typeCosted[f.ShipmentType]++
		}
		if f.InvoiceDate != nil {
			d := *f.InvoiceDate
			if res.EarliestInvoice == nil || d.Before(*res.EarliestInvoice) {
				t := d
				res.EarliestInvoice = &t
			}
			if res.LatestInvoice == nil || d.After(*res.LatestInvoice) {
				t := d
				res.LatestInvoice = &t
			}
		}
	}

	res.UniqueClients = len(clients)
	res.UniqueInvoices = len(invoices)
	res.ShipmentTypes = len(byType)
	if costed > 0 {
		res.AvgInvoiceCost = res.TotalCost / float64(costed)
	}

	for ty, st := range byType {
		if n := typeCosted[ty]; n > 0 {
			st.AvgCost = st.TotalCost / float64(n)
		}
		res.ShipmentBreakdown = append(res.ShipmentBreakdown, *st)
	}
	sort.Slice(res.ShipmentBreakdown, func(i, j int) bool {
		a, b := res.ShipmentBreakdown[i], res.ShipmentBreakdown[j]
		if a.TotalCost != b.TotalCost {
			return a.TotalCost > b.TotalCost
		}
		return a.ShipmentType < b.ShipmentType
	})

	res.Insights = []string{
		fmt.Sprintf("Data covers %d unique clients and %d invoices", res.UniqueClients, res.UniqueInvoices),
		fmt.Sprintf("Total calculated costs processed: %s", Dollars(res.TotalCost)),
		fmt.Sprintf("Average invoice cost: %s", Dollars(res.AvgInvoiceCost)),
	}
	if len(res.ShipmentBreakdown) > 0 {
		top := res.ShipmentBreakdown[0]
		res.Insights = append(res.Insights,
			fmt.Sprintf("Most valuable shipment type: %s (%s)", top.ShipmentType, Dollars(top.TotalCost)))
	}
	return res
}
