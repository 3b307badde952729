package normalize

import (
	"testing"
	"time"
)

func TestName(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"acme logistics", "Acme Logistics"},
		{"  acme   corp   LLC ", "Acme Corp LLC"},
		{"ACME CORP", "Acme Corp"},
		{"usa freight CO", "Usa Freight CO"},
		{"", ""},
		{"   ", ""},
		{nil, ""},
	}
	for _, tc := range tests {
		if got := Name(tc.in); got != tc.want {
			t.Errorf("Name(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestStatus(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"active", StatusActive},
		{"Y", StatusActive},
		{"true", StatusActive},
		{"1", StatusActive},
		{"ACTIVE (verified)", StatusActive},
		{"inactive", StatusInactive},
		{"no", StatusInactive},
		{"0", StatusInactive},
		{"inactivated", StatusInactive},
		{"suspended", StatusUnknown},
		{"", StatusUnknown},
		{nil, StatusUnknown},
	}
	for _, tc := range tests {
		if got := Status(tc.in); got != tc.want {
			t.Errorf("Status(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestShipmentType(t *testing.T) {
	rates := map[string]float64{"GROUND": 1, "2DAY": 5, "EXPRESS": 10, "FREIGHT": 20}
	tests := []struct {
		in   any
		want string
	}{
		{"ground", "GROUND"},
		{"GND", "GROUND"},
		{"standard", "GROUND"},
		{"2 day", "2DAY"},
		{"two day", "2DAY"},
		{"overnight", "EXPRESS"},
		{"cargo", "FREIGHT"},
		{"EXPRESS", "EXPRESS"},
		{"pigeon", ShipmentUnknown},
		{"", ShipmentUnknown},
		{nil, ShipmentUnknown},
	}
	for _, tc := range tests {
		if got := ShipmentType(tc.in, rates); got != tc.want {
			t.Errorf("ShipmentType(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		in   any
	}{
		{"iso", "2024-03-05"},
		{"iso timestamp", "2024-03-05 14:30:00"},
		{"rfc3339", "2024-03-05T14:30:00Z"},
		{"slash ymd", "2024/03/05"},
		{"slash mdy", "03/05/2024"},
		{"short mdy", "3/5/2024"},
		{"month name", "Mar 5, 2024"},
		{"compact", "20240305"},
		{"fuzzy ymd", "opened 2024-03-05 (verified)"},
		{"fuzzy mdy", "as of 03.05.2024"},
		{"typed", time.Date(2024, 3, 5, 23, 59, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Date(tc.in)
			if got == nil || !got.Equal(want) {
				t.Fatalf("Date(%v) = %v, want %v", tc.in, got, want)
			}
		})
	}
}

func TestDateUnparsable(t *testing.T) {
	for _, in := range []any{nil, "", "   ", "not a date", "2024-02-30", "13/32/2024"} {
		if got := Date(in); got != nil {
			t.Errorf("Date(%v) = %v, want nil", in, got)
		}
	}
}

func TestAmount(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{1234.56, 1234.56},
		{int(42), 42},
		{int64(42), 42},
		{"1234.56", 1234.56},
		{"$1,234.56", 1234.56},
		{"  -99.5 ", -99.5},
		{"USD 250", 250},
		{"garbage", 0},
		{"", 0},
		{nil, 0},
	}
	for _, tc := range tests {
		if got := Amount(tc.in); got != tc.want {
			t.Errorf("Amount(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
