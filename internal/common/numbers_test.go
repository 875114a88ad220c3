package common

import "testing"

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"123.45", ptr(123.45)},
		{" 123.45 ", ptr(123.45)},
		{"23,500.10", ptr(23500.10)},
		{"-1.5", ptr(-1.5)},
		{"0", ptr(0)},
		{"", nil},
		{"   ", nil},
		{"-", nil},
		{"N/A", nil},
		{"n/a", nil},
		{"abc", nil},
		{"NaN", nil},
		{"Inf", nil},
	}

	for _, tt := range tests {
		got := ParseNumber(tt.in)
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("ParseNumber(%q) = %v, want nil", tt.in, *got)
		case tt.want != nil && got == nil:
			t.Errorf("ParseNumber(%q) = nil, want %v", tt.in, *tt.want)
		case tt.want != nil && got != nil && *got != *tt.want:
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, *got, *tt.want)
		}
	}
}

func ptr(v float64) *float64 { return &v }
