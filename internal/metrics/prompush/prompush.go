// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package.
//
// This package adapts the generic metrics.Backend interface to Prometheus by:
//
//   - Using client_golang counter and summary collectors.
//   - Mapping the common pipeline labels (job, step, status) onto Prometheus
//     labels.
//   - Pushing collected metrics to a Prometheus Pushgateway instance instead
//     of exposing an HTTP scrape endpoint, which fits a batch pipeline that
//     exits when the run completes.
//
// The package intentionally contains all Prometheus-specific dependencies so
// that the rest of the project remains decoupled from Prometheus and can swap
// to alternative backends without changes to the core pipeline.
package prompush

import (
	"fmt"

	"invoicefacts/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	// Step-level metrics
	stepCounter  *prometheus.CounterVec // "pipeline_step_total"
	stepDuration *prometheus.SummaryVec // "pipeline_step_duration_seconds"

	// Record- and file-level metrics
	recordCounter *prometheus.CounterVec // "pipeline_records_total"
	fileCounter   prometheus.Counter     // "pipeline_files_total"
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (often same as pipeline job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "invoicefacts"
	}

	reg := prometheus.NewRegistry()

	// job is the Pushgateway grouping key; step and status stay dynamic.
	stepCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_step_total",
			Help: "Total number of pipeline step executions, partitioned by step and status.",
		},
		[]string{"step", "status"},
	)
	stepDuration := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "pipeline_step_duration_seconds",
			Help:       "Duration of pipeline steps in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		},
		[]string{"step", "status"},
	)

	recordCounter := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_records_total",
			Help: "Record-level counts per kind (client_rows, invoice_rows, facts_derived, etc.).",
		},
		[]string{"kind"},
	)

	fileCounter := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pipeline_files_total",
			Help: "Total number of source files processed for this pipeline job.",
		},
	)

	if err := reg.Register(stepCounter); err != nil {
		return nil, fmt.Errorf("prompush: register step counter: %w", err)
	}
	if err := reg.Register(stepDuration); err != nil {
		return nil, fmt.Errorf("prompush: register step summary: %w", err)
	}
	if err := reg.Register(recordCounter); err != nil {
		return nil, fmt.Errorf("prompush: register record counter: %w", err)
	}
	if err := reg.Register(fileCounter); err != nil {
		return nil, fmt.Errorf("prompush: register file counter: %w", err)
	}

	return &Backend{
		gatewayURL:    gatewayURL,
		jobName:       jobName,
		reg:           reg,
		stepCounter:   stepCounter,
		stepDuration:  stepDuration,
		recordCounter: recordCounter,
		fileCounter:   fileCounter,
	}, nil
}

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "pipeline_step_total":
		if b.stepCounter == nil {
			return
		}
		step := labels["step"]
		status := labels["status"]
		b.stepCounter.WithLabelValues(step, status).Add(delta)

	case "pipeline_records_total":
		if b.recordCounter == nil {
			return
		}
		kind := labels["kind"]
		b.recordCounter.WithLabelValues(kind).Add(delta)

	case "pipeline_files_total":
		if b.fileCounter == nil {
			return
		}
		b.fileCounter.Add(delta)

	default:
		// unknown metric name: ignore
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "pipeline_step_duration_seconds" || b.stepDuration == nil {
		return
	}
	step := labels["step"]
	status := labels["status"]
	b.stepDuration.WithLabelValues(step, status).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
