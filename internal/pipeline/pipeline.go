// Package pipeline orchestrates one full reconciliation run: discover the
// raw export drops, parse them concurrently, reconcile the batches into
// canonical clients and invoices, persist both tables, rebuild the derived
// fact table, and run the fixed analytics over the result.
//
// Parsing soft-fails per file: an unreadable or unparsable file is logged
// and contributes an empty batch, and the run continues. Storage errors are
// fatal - a half-persisted run is worse than a failed one, and the upserts
// make the retry idempotent.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"invoicefacts/internal/analytics"
	"invoicefacts/internal/config"
	"invoicefacts/internal/datasource/file"
	"invoicefacts/internal/facts"
	"invoicefacts/internal/metrics"
	"invoicefacts/internal/parser"
	csvparser "invoicefacts/internal/parser/csv"
	jsonparser "invoicefacts/internal/parser/json"
	reportparser "invoicefacts/internal/parser/report"
	"invoicefacts/internal/reconcile"
	"invoicefacts/internal/storage"
	"invoicefacts/pkg/records"
)

// parseWorkers bounds the per-file parse fan-out.
const parseWorkers = 4

// Results summarizes one run for the caller: counts for logging plus the
// analytics output for rendering.
type Results struct {
	ClientFiles  int
	InvoiceFiles int
	SkippedRows  int

	Clients  int
	Invoices int
	Facts    int

	Analytics analytics.Results
}

// Run executes the whole pipeline against the configured store. The
// returned Results are valid only when err is nil.
func Run(ctx context.Context, cfg config.Config) (Results, error) {
	var res Results

	store, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		return res, fmt.Errorf("open storage %q: %w", cfg.Storage.Kind, err)
	}
	defer store.Close()

	if err := timed(cfg.Job, "ensure_schema", func() error {
		return storage.EnsureSchema(ctx, cfg.Storage.Kind, store)
	}); err != nil {
		return res, fmt.Errorf("ensure schema: %w", err)
	}

	clientFiles, err := file.Glob(cfg.DataDir, cfg.Patterns.Clients)
	if err != nil {
		return res, fmt.Errorf("discover client files: %w", err)
	}
	invoiceFiles, err := file.Glob(cfg.DataDir, cfg.Patterns.Invoices)
	if err != nil {
		return res, fmt.Errorf("discover invoice files: %w", err)
	}
	res.ClientFiles = len(clientFiles)
	res.InvoiceFiles = len(invoiceFiles)
	metrics.RecordFiles(cfg.Job, int64(len(clientFiles)+len(invoiceFiles)))
	log.Printf("pipeline: discovered %d client file(s), %d invoice file(s) under %s",
		len(clientFiles), len(invoiceFiles), cfg.DataDir)

	var clientBatches, invoiceBatches [][]records.Record
	var clientSkipped, invoiceSkipped int
	if err := timed(cfg.Job, "parse", func() error {
		clientBatches, clientSkipped = parseBatches(ctx, clientFiles)
		invoiceBatches, invoiceSkipped = parseBatches(ctx, invoiceFiles)
		return ctx.Err()
	}); err != nil {
		return res, fmt.Errorf("parse: %w", err)
	}
	res.SkippedRows = clientSkipped + invoiceSkipped

	var clients []reconcile.Client
	var invoices []reconcile.Invoice
	if err := timed(cfg.Job, "reconcile", func() error {
		clients = reconcile.Clients(clientBatches)
		invoices = reconcile.Invoices(invoiceBatches, cfg.Rates)
		return nil
	}); err != nil {
		return res, err
	}
	res.Clients = len(clients)
	res.Invoices = len(invoices)
	metrics.RecordRows(cfg.Job, "clients", int64(len(clients)))
	metrics.RecordRows(cfg.Job, "invoices", int64(len(invoices)))

	if err := timed(cfg.Job, "persist", func() error {
		clientRows := make([][]any, 0, len(clients))
		for _, c := range clients {
			clientRows = append(clientRows, c.Row())
		}
		if _, err := store.Upsert(ctx, storage.TableClients, storage.ClientColumns, storage.ClientKeyColumns, clientRows); err != nil {
			return fmt.Errorf("upsert %s: %w", storage.TableClients, err)
		}
		invoiceRows := make([][]any, 0, len(invoices))
		for _, inv := range invoices {
			invoiceRows = append(invoiceRows, inv.Row())
		}
		if _, err := store.Upsert(ctx, storage.TableInvoices, storage.InvoiceColumns, storage.InvoiceKeyColumns, invoiceRows); err != nil {
			return fmt.Errorf("upsert %s: %w", storage.TableInvoices, err)
		}
		return nil
	}); err != nil {
		return res, fmt.Errorf("persist: %w", err)
	}

	var fs []facts.Fact
	if err := timed(cfg.Job, "derive_facts", func() error {
		fs = facts.Derive(clients, invoices, cfg.Rates)
		return facts.Rebuild(ctx, store, fs)
	}); err != nil {
		return res, fmt.Errorf("derive facts: %w", err)
	}
	res.Facts = len(fs)
	metrics.RecordRows(cfg.Job, "facts", int64(len(fs)))

	if err := timed(cfg.Job, "analytics", func() error {
		from, to, err := cfg.Analytics.GrowthWindow()
		if err != nil {
			return err
		}
		res.Analytics = analytics.Run(fs, analytics.Config{
			TopN:                cfg.Analytics.TopN,
			GrowthFrom:          from,
			GrowthTo:            to,
			Discounts:           cfg.Discounts,
			Rates:               cfg.Rates,
			SavingsPctThreshold: cfg.Analytics.SavingsPctThreshold,
			SavingsAbsThreshold: cfg.Analytics.SavingsAbsThreshold,
		})
		return nil
	}); err != nil {
		return res, fmt.Errorf("analytics: %w", err)
	}

	log.Printf("pipeline: %d clients, %d invoices, %d facts (%d source rows skipped)",
		res.Clients, res.Invoices, res.Facts, res.SkippedRows)
	return res, nil
}

// timed runs one named step and records its outcome and duration.
func timed(job, step string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStep(job, step, err, time.Since(start))
	return err
}

// parseBatches parses every source concurrently and returns one batch per
// source, index-aligned so the batches keep the sources' sorted order. A
// file that cannot be opened or parsed yields an empty batch and a log
// line; only context cancellation stops the fan-out early.
func parseBatches(ctx context.Context, sources []*file.Local) ([][]records.Record, int) {
	batches := make([][]records.Record, len(sources))
	skips := make([]int, len(sources))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parseWorkers)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			p := parserFor(src.Path())
			if p == nil {
				log.Printf("parse: %s: unsupported extension, skipping file", src.Path())
				return nil
			}
			r, err := src.Open(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Printf("parse: open %s: %v", src.Path(), err)
				return nil
			}
			defer r.Close()

			recs, skipped, err := p.Parse(r)
			if err != nil {
				log.Printf("parse: %s: %v", src.Path(), err)
				return nil
			}
			if skipped > 0 {
				log.Printf("parse: %s: %d malformed row(s) skipped", src.Path(), skipped)
			}
			batches[i] = recs
			skips[i] = skipped
			return nil
		})
	}
	// Goroutines only fail on cancellation; soft errors were already logged.
	_ = g.Wait()

	var skipped int
	for _, s := range skips {
		skipped += s
	}
	return batches, skipped
}

// parserFor picks a parser by file extension: CSV exports, NDJSON/JSON
// dumps, and the fixed-layout text statements. Unknown extensions get nil.
func parserFor(path string) parser.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return csvparser.NewParser(csvparser.Options{HasHeader: true, TrimSpace: true})
	case ".json", ".ndjson":
		return jsonparser.NewParser(jsonparser.Options{AllowArrays: true})
	case ".txt":
		return reportparser.NewParser()
	}
	return nil
}
