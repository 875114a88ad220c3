package common

import (
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses a numeric string tolerating thousands separators and
// surrounding whitespace. Returns nil for blank or unparseable input —
// upstream files use empty cells, "-" and "N/A" interchangeably for
// missing values.
func ParseNumber(value string) *float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if cleaned == "" || cleaned == "-" || strings.EqualFold(cleaned, "N/A") {
		return nil
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil
	}
	return &parsed
}
