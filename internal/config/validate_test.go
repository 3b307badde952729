package config

import (
	"strings"
	"testing"
)

// findIssue returns the first issue whose path matches, or nil.
func findIssue(issues []Issue, path string) *Issue {
	for i := range issues {
		if issues[i].Path == path {
			return &issues[i]
		}
	}
	return nil
}

func TestValidateRequiredFields(t *testing.T) {
	cfg := Default()
	cfg.Job = ""
	cfg.DataDir = "  "
	cfg.Storage.DSN = ""

	issues := Validate(cfg)
	for _, path := range []string{"job", "data_dir", "storage.dsn"} {
		iss := findIssue(issues, path)
		if iss == nil {
			t.Fatalf("expected issue at %s, got %v", path, issues)
		}
		if iss.Severity != SeverityError {
			t.Fatalf("issue at %s should be an error, got %s", path, iss.Severity)
		}
	}
	if !HasErrors(issues) {
		t.Fatal("HasErrors should report true")
	}
}

func TestValidateStorageKind(t *testing.T) {
	tests := []struct {
		name         string
		kind         string
		wantPath     string
		wantSeverity IssueSeverity
	}{
		{name: "empty kind is an error", kind: "", wantPath: "storage.kind", wantSeverity: SeverityError},
		{name: "unknown kind is a warning", kind: "oracle", wantPath: "storage.kind", wantSeverity: SeverityWarning},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			cfg.Storage.Kind = tc.kind
			iss := findIssue(Validate(cfg), tc.wantPath)
			if iss == nil {
				t.Fatalf("expected issue at %s", tc.wantPath)
			}
			if iss.Severity != tc.wantSeverity {
				t.Fatalf("severity = %s, want %s", iss.Severity, tc.wantSeverity)
			}
		})
	}
}

func TestValidateRatesAndDiscounts(t *testing.T) {
	cfg := Default()
	cfg.Rates = map[string]float64{"GROUND": -1}
	cfg.Discounts = map[string]float64{"GROUND": 1.5, "BICYCLE": 0.1}

	issues := Validate(cfg)

	if iss := findIssue(issues, "rates.GROUND"); iss == nil || iss.Severity != SeverityError {
		t.Fatalf("expected error for negative rate, got %v", issues)
	}
	if iss := findIssue(issues, "discounts.GROUND"); iss == nil || iss.Severity != SeverityError {
		t.Fatalf("expected error for discount > 1, got %v", issues)
	}
	iss := findIssue(issues, "discounts.BICYCLE")
	if iss == nil || iss.Severity != SeverityWarning {
		t.Fatalf("expected warning for unrated discount type, got %v", issues)
	}
	if !strings.Contains(iss.Message, "no rate") {
		t.Fatalf("warning message should mention missing rate: %q", iss.Message)
	}
}

func TestValidateEmptyRateSheet(t *testing.T) {
	cfg := Default()
	cfg.Rates = nil
	if iss := findIssue(Validate(cfg), "rates"); iss == nil || iss.Severity != SeverityError {
		t.Fatal("expected error for empty rate sheet")
	}
}

func TestValidateAnalytics(t *testing.T) {
	cfg := Default()
	cfg.Analytics.TopN = 0
	cfg.Analytics.GrowthFrom = "garbage"

	issues := Validate(cfg)
	if iss := findIssue(issues, "analytics.top_n"); iss == nil || iss.Severity != SeverityError {
		t.Fatalf("expected error for non-positive top_n, got %v", issues)
	}
	if iss := findIssue(issues, "analytics.growth_from"); iss == nil || iss.Severity != SeverityError {
		t.Fatalf("expected error for unparsable growth_from, got %v", issues)
	}

	cfg = Default()
	cfg.Analytics.GrowthFrom = "2026-01-01"
	cfg.Analytics.GrowthTo = "2024-01-01"
	if iss := findIssue(Validate(cfg), "analytics.growth_to"); iss == nil || iss.Severity != SeverityError {
		t.Fatal("expected error for inverted growth window")
	}
}

func TestIssueError(t *testing.T) {
	iss := Issue{Severity: SeverityError, Path: "storage.dsn", Message: "must not be empty"}
	got := iss.Error()
	if !strings.Contains(got, "storage.dsn") || !strings.Contains(got, "error") {
		t.Fatalf("Issue.Error() = %q", got)
	}
}
