package common

import (
	"testing"
	"time"
)

func TestApplyDateTemplate(t *testing.T) {
	date := time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		template string
		want     string
	}{
		{
			"https://a/EQUITIES/{YYYY}/{MMM}/cm{DD}{MMM}{YYYY}bhav.csv.zip",
			"https://a/EQUITIES/2025/JAN/cm08JAN2025bhav.csv.zip",
		},
		{
			"https://b/EQ{DD}{MM}{YY}_CSV.ZIP",
			"https://b/EQ080125_CSV.ZIP",
		},
		{"no placeholders", "no placeholders"},
	}

	for _, tt := range tests {
		if got := ApplyDateTemplate(tt.template, date); got != tt.want {
			t.Errorf("ApplyDateTemplate(%q) = %q, want %q", tt.template, got, tt.want)
		}
	}
}

func TestDateInZone(t *testing.T) {
	// 20:00 UTC on Jan 8 is 01:30 on Jan 9 in Asia/Kolkata.
	at := time.Date(2025, 1, 8, 20, 0, 0, 0, time.UTC)

	got := DateInZone(at, "Asia/Kolkata")
	want := time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateInZone = %v, want %v", got, want)
	}

	// Bad zone falls back to UTC.
	got = DateInZone(at, "Not/AZone")
	want = time.Date(2025, 1, 8, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("DateInZone fallback = %v, want %v", got, want)
	}
}

func TestFormatDateKey(t *testing.T) {
	at := time.Date(2025, 1, 8, 23, 45, 0, 0, time.FixedZone("IST", 5*3600+1800))
	if got := FormatDateKey(at); got != "2025-01-08" {
		t.Errorf("FormatDateKey = %q, want UTC calendar day 2025-01-08", got)
	}
}
