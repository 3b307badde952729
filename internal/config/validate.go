// This file adds a lightweight linter/validator for Config values. It
// performs static checks over a decoded Config and returns a list of issues
// (errors and warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation/lint finding for a Config.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "analytics.growth_from"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue in the slice is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation / linting of a Config.
//
// It does not mutate the config. Instead it returns a slice of Issue values.
// Callers may decide whether to treat warnings as fatal or not.
func Validate(c Config) []Issue {
	var issues []Issue

	if strings.TrimSpace(c.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	if strings.TrimSpace(c.DataDir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "data_dir",
			Message:  "data_dir must not be empty",
		})
	}
	if len(c.Patterns.Clients) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "patterns.clients",
			Message:  "no client patterns configured; the canonical client set will be empty",
		})
	}
	if len(c.Patterns.Invoices) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "patterns.invoices",
			Message:  "no invoice patterns configured; the fact table will be empty",
		})
	}

	issues = append(issues, validateStorage(c.Storage)...)
	issues = append(issues, validateRates(c)...)
	issues = append(issues, validateAnalytics(c.Analytics)...)

	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
		return issues
	}

	// Known storage kinds. Unknown kinds are warnings (for forward
	// compatibility with externally registered backends).
	known := map[string]struct{}{
		"sqlite":   {},
		"postgres": {},
		"mysql":    {},
	}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}

	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}
	return issues
}

func validateRates(c Config) []Issue {
	var issues []Issue

	if len(c.Rates) == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "rates",
			Message:  "rate sheet must not be empty; every calculated cost depends on it",
		})
	}
	for ty, rate := range c.Rates {
		if rate <= 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("rates.%s", ty),
				Message:  fmt.Sprintf("rate must be positive, got %v", rate),
			})
		}
	}
	for ty, d := range c.Discounts {
		if d < 0 || d > 1 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("discounts.%s", ty),
				Message:  fmt.Sprintf("discount must be a fraction in [0, 1], got %v", d),
			})
		}
		if _, ok := c.Rates[ty]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("discounts.%s", ty),
				Message:  "discount configured for a shipment type with no rate; it will never apply",
			})
		}
	}
	return issues
}

func validateAnalytics(a Analytics) []Issue {
	var issues []Issue

	if a.TopN <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "analytics.top_n",
			Message:  fmt.Sprintf("top_n must be positive, got %d", a.TopN),
		})
	}
	from, to, err := a.GrowthWindow()
	if err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "analytics.growth_from",
			Message:  err.Error(),
		})
		return issues
	}
	if !from.Before(to) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "analytics.growth_to",
			Message:  fmt.Sprintf("growth window is empty: %s is not before %s", a.GrowthFrom, a.GrowthTo),
		})
	}
	return issues
}
