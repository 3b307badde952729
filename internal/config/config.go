// Package config defines the canonical, JSON-serializable configuration model
// for the reconciliation pipeline. It is intentionally small, explicit, and
// dependency-free so that runs can be loaded from disk (or other sources) and
// passed through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: Changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: Field names in Go mirror the JSON structure used in run files.
//  3. Minimalism: No third-party config libraries; decoding is performed by
//     the standard library over a fully-populated default.
//
// Example (trimmed):
//
//	{
//	  "job": "monthly-run",
//	  "data_dir": "data",
//	  "patterns": { "clients": ["clients*.csv"], "invoices": ["invoices*.csv"] },
//	  "storage": { "kind": "sqlite", "dsn": "facts.db" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config describes one full pipeline run. Zero values are filled from
// Default by Load, so a config file only needs the fields it overrides.
type Config struct {
	// Job names the run; it is used for metrics labeling and log context.
	Job string `json:"job"`

	// DataDir is the directory holding the raw export drops.
	DataDir string `json:"data_dir"`

	// Patterns are the glob patterns, relative to DataDir, that discover
	// client and invoice files.
	Patterns Patterns `json:"patterns"`

	// Storage selects and configures the persistence backend.
	Storage Storage `json:"storage"`

	// Rates maps shipment type to the per-unit billing rate.
	Rates map[string]float64 `json:"rates"`

	// Discounts maps shipment type to the discount fraction used by the
	// discount scenario.
	Discounts map[string]float64 `json:"discounts"`

	// Analytics tunes the aggregation queries.
	Analytics Analytics `json:"analytics"`
}

// Patterns holds the file discovery globs per entity type.
type Patterns struct {
	Clients  []string `json:"clients"`
	Invoices []string `json:"invoices"`
}

// Storage selects the persistence backend.
type Storage struct {
	// Kind selects the registered backend: "sqlite", "postgres", "mysql".
	Kind string `json:"kind"`

	// DSN is the backend connection string (file path or URL).
	DSN string `json:"dsn"`
}

// Analytics tunes the fixed aggregation queries.
type Analytics struct {
	// TopN bounds the client rankings.
	TopN int `json:"top_n"`

	// GrowthFrom (inclusive) and GrowthTo (exclusive) window the
	// month-over-month growth query; ISO dates.
	GrowthFrom string `json:"growth_from"`
	GrowthTo   string `json:"growth_to"`

	// SavingsPctThreshold and SavingsAbsThreshold flag reclassification
	// opportunities.
	SavingsPctThreshold float64 `json:"savings_pct_threshold"`
	SavingsAbsThreshold float64 `json:"savings_abs_threshold"`
}

// Default returns the built-in configuration: sqlite storage, the standard
// rate sheet and discount table, and the 2024-2025 growth window.
func Default() Config {
	return Config{
		Job:     "invoicefacts",
		DataDir: "data",
		Patterns: Patterns{
			Clients:  []string{"clients*.csv", "clients*.txt"},
			Invoices: []string{"invoices*.csv", "invoices*.ndjson"},
		},
		Storage: Storage{
			Kind: "sqlite",
			DSN:  "invoicefacts.db",
		},
		Rates: map[string]float64{
			"GROUND":  1.0,
			"2DAY":    5.0,
			"EXPRESS": 10.0,
			"FREIGHT": 20.0,
		},
		Discounts: map[string]float64{
			"GROUND":  0.20,
			"FREIGHT": 0.30,
			"2DAY":    0.50,
		},
		Analytics: Analytics{
			TopN:                5,
			GrowthFrom:          "2024-01-01",
			GrowthTo:            "2026-01-01",
			SavingsPctThreshold: 50,
			SavingsAbsThreshold: 500000,
		},
	}
}

// Load reads a JSON config file over the defaults. Fields absent from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// GrowthWindow parses the analytics growth window dates.
func (a Analytics) GrowthWindow() (from, to time.Time, err error) {
	from, err = time.Parse("2006-01-02", a.GrowthFrom)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse growth_from %q: %w", a.GrowthFrom, err)
	}
	to, err = time.Parse("2006-01-02", a.GrowthTo)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse growth_to %q: %w", a.GrowthTo, err)
	}
	return from, to, nil
}
