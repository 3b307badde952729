package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"invoicefacts/internal/config"
	"invoicefacts/internal/metrics"
	"invoicefacts/internal/metrics/prompush"
	"invoicefacts/internal/pipeline"
	"invoicefacts/internal/report"

	// register all storage backends with the factory.
	// config selects which to use but we build in support for all of them.
	_ "invoicefacts/internal/storage/all"
)

// main is the entry point for the reconciliation binary. It loads the run
// config, optionally initializes a metrics backend, executes the pipeline,
// and prints the analysis report to stdout.
func main() {
	var (
		cfgPath           string
		dataDir           string
		metricsBackendFlg string
		pushGatewayURLFlg string
		validate          bool
	)

	flag.StringVar(&cfgPath, "config", "", "run config JSON path (empty = built-in defaults)")
	flag.StringVar(&dataDir, "data-dir", "", "override the configured data directory")
	flag.StringVar(&metricsBackendFlg, "metrics-backend", "", "metrics backend to use (e.g. pushgateway, none)")
	flag.StringVar(&pushGatewayURLFlg, "pushgateway-url", "", "Pushgateway base URL (overrides env PUSHGATEWAY_URL)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable verbose logs")

	flag.Parse()

	cfg := config.Default()
	if cfgPath != "" {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			fatalf("load config: %v", err)
		}
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(os.Stderr, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if config.HasErrors(issues) {
		log.Printf("configuration is invalid: %v", configSource(cfgPath))
		os.Exit(1)
	}

	// If validate flag is set, only validate the configuration and exit
	if validate {
		log.Printf("configuration is valid: %v", configSource(cfgPath))
		os.Exit(0)
	}

	// Decide metrics backend: flag → env → default.
	backendName := metricsBackendFlg
	if backendName == "" {
		backendName = os.Getenv("METRICS_BACKEND")
	}
	switch backendName {
	case "pushgateway":
		// Decide Pushgateway URL: flag → env → default.
		gwURL := pushGatewayURLFlg
		if gwURL == "" {
			gwURL = os.Getenv("PUSHGATEWAY_URL")
		}
		if gwURL == "" {
			gwURL = "http://localhost:9091"
		}

		b, err := prompush.NewBackend(cfg.Job, gwURL)
		if err != nil {
			log.Printf("metrics: failed to init prom push backend: %v; using nop", err)
		} else {
			log.Printf("metrics: url=%v, backend=%v, job_name=%v", gwURL, backendName, cfg.Job)
			metrics.SetBackend(b)
			defer func() {
				if err := metrics.Flush(); err != nil {
					log.Printf("metrics: flush error: %v", err)
				}
			}()
		}

	case "", "none":
		// metrics disabled; nop backend remains
		if *verbose {
			log.Printf("metrics: disabled (backend=%q)", backendName)
		}

	default:
		log.Printf("metrics: unknown backend %q; metrics disabled", backendName)
	}

	ctx := context.Background()
	start := time.Now()

	if *verbose {
		log.Printf("run: job=%s data_dir=%s storage=%s", cfg.Job, cfg.DataDir, cfg.Storage.Kind)
	}

	res, err := pipeline.Run(ctx, cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Print(report.Render(res.Analytics))

	if *verbose {
		log.Printf("completed in %s: %d clients, %d invoices, %d facts",
			time.Since(start).Truncate(time.Millisecond), res.Clients, res.Invoices, res.Facts)
	}
}

// configSource names where the config came from for log messages.
func configSource(path string) string {
	if path == "" {
		return "built-in defaults"
	}
	return path
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
