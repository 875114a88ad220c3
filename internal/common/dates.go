package common

import (
	"strings"
	"time"
)

// DateKeyLayout is the canonical trading-date format used as the key for
// quotes and history (UTC calendar day).
const DateKeyLayout = "2006-01-02"

// FormatDateKey renders a time as a canonical trading-date key.
func FormatDateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// DateInZone returns the calendar date of t in the named timezone, as a
// UTC-midnight time. A bad timezone name falls back to UTC.
func DateInZone(t time.Time, timezone string) time.Time {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// ApplyDateTemplate expands the {YYYY} {YY} {MM} {DD} {MMM} placeholders in
// an upstream URL template with the UTC calendar components of date.
// Both exchanges' archive URLs and any future template chains share this
// one expansion.
func ApplyDateTemplate(template string, date time.Time) string {
	date = date.UTC()
	r := strings.NewReplacer(
		"{YYYY}", date.Format("2006"),
		"{YY}", date.Format("06"),
		"{MM}", date.Format("01"),
		"{DD}", date.Format("02"),
		"{MMM}", strings.ToUpper(date.Format("Jan")),
	)
	return r.Replace(template)
}
