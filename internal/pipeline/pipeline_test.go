package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"invoicefacts/internal/config"
	"invoicefacts/internal/storage"
	_ "invoicefacts/internal/storage/sqlite"
)

// writeFixtures lays out a data directory covering all three parsers plus
// one unreadable invoice file that the run must survive.
func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"clients_v1.csv": "client_id,client_name,status,tier,created_at,currency\n" +
			"C00001,acme logistics,active,gold,2024-01-15,usd\n" +
			"C00002,blue harbor shipping,inactive,silver,2023-06-01,usd\n" +
			"C00001,acme logistics,active,gold,2024-01-15,usd\n",
		"clients_statement.txt": "MONTHLY CLIENT STATEMENT\n\n" +
			"C00003\nCrestline Freight\nActive\n2024-03-02\n",
		"invoices_2024.ndjson": `{"invoice_id":"INV-1001","client_id":"C00001","invoice_date":"2024-01-20","amount":100,"currency":"USD","shipment_type":"ground"}` + "\n" +
			`{"invoice_id":"INV-1002","client_id":"C00002","invoice_date":"2024-02-11","amount":50,"currency":"USD","shipment_type":"express"}` + "\n" +
			`{"invoice_id":"INV-1001","client_id":"C00001","invoice_date":"2024-01-20","amount":100,"currency":"USD","shipment_type":"ground"}` + "\n",
		"invoices_broken.ndjson": "this is not a json stream\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
	}
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dataDir := t.TempDir()
	writeFixtures(t, dataDir)

	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.Storage.DSN = filepath.Join(t.TempDir(), "facts.db")
	return cfg
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Equal(t, 2, res.ClientFiles)
	require.Equal(t, 2, res.InvoiceFiles)

	// Three clients: two from the CSV (the duplicate C00001 collapses) and
	// one from the statement text.
	require.Equal(t, 3, res.Clients)
	// Two invoices: the duplicate INV-1001 is dropped, the broken file
	// contributes nothing.
	require.Equal(t, 2, res.Invoices)
	require.Equal(t, 2, res.Facts)

	// GROUND 100 * 1.0 + EXPRESS 50 * 10.0 under the default rate sheet.
	require.InDelta(t, 600.0, res.Analytics.Summary.TotalCost, 1e-9)
	require.Equal(t, 2, res.Analytics.Summary.UniqueClients)
	require.Equal(t, 2, res.Analytics.Summary.UniqueInvoices)
	require.Len(t, res.Analytics.TopClients.Clients, 2)
	require.Equal(t, "C00002", res.Analytics.TopClients.Clients[0].ClientID)
}

func TestRunIsIdempotent(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()

	first, err := Run(ctx, cfg)
	require.NoError(t, err)
	second, err := Run(ctx, cfg)
	require.NoError(t, err)
	require.Equal(t, first, second)

	store, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	require.NoError(t, err)
	defer store.Close()

	counts := []struct {
		table  string
		column string
		want   int
	}{
		{storage.TableClients, "client_id", 3},
		{storage.TableInvoices, "invoice_id", 2},
		{storage.TableFacts, "invoice_id", 2},
	}
	for _, tc := range counts {
		rows, err := store.Query(ctx, tc.table, []string{tc.column})
		require.NoError(t, err, tc.table)
		require.Len(t, rows, tc.want, tc.table)
	}
}

func TestRunUnknownStorageKind(t *testing.T) {
	cfg := testConfig(t)
	cfg.Storage.Kind = "papyrus"
	_, err := Run(context.Background(), cfg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "papyrus")
}

func TestRunEmptyDataDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.DataDir = t.TempDir()

	res, err := Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Zero(t, res.Clients)
	require.Zero(t, res.Invoices)
	require.Zero(t, res.Facts)
}

func TestParserForExtensions(t *testing.T) {
	require.NotNil(t, parserFor("drops/clients_v2.CSV"))
	require.NotNil(t, parserFor("drops/invoices.ndjson"))
	require.NotNil(t, parserFor("drops/invoices.json"))
	require.NotNil(t, parserFor("drops/clients_statement.txt"))
	require.Nil(t, parserFor("drops/clients.parquet"))
}
