// Package marketdata implements the market data cache: bulk dataset
// ingestion for both exchanges, index snapshots, the in-memory store with
// its read accessors, and the single-flight refresh orchestrator.
package marketdata

import (
	"regexp"
	"strings"

	"github.com/niveshapp/nivesh/internal/models"
)

// corporateSuffixes matches whole-word corporate suffix tokens that carry
// no identity: "TATA STEEL LTD" and "TATA STEEL LIMITED" must produce the
// same name key.
var corporateSuffixes = regexp.MustCompile(`\b(LTD|LIMITED|PVT|PRIVATE|CO|CORP|CORPORATION|INC|INDIA|INDIAN)\b`)

var nonAlphanumeric = regexp.MustCompile(`[^A-Z0-9]`)

// NormalizeSymbol canonicalizes a ticker for cross-source matching.
// Returns "" for blank input; callers treat "" as no match.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NormalizeNameKey produces a fuzzy join key from a company name, used
// only when a source row carries no explicit ticker.
func NormalizeNameKey(raw string) string {
	key := strings.ToUpper(raw)
	key = corporateSuffixes.ReplaceAllString(key, "")
	return nonAlphanumeric.ReplaceAllString(key, "")
}

// BuildUniqueNameMap builds the name-key to symbol lookup from a listing
// table. Any key produced by more than one listing is dropped entirely:
// resolving a row to the wrong company is worse than dropping the row.
func BuildUniqueNameMap(listings []models.Listing) map[string]string {
	nameMap := make(map[string]string, len(listings))
	collisions := make(map[string]struct{})

	for _, listing := range listings {
		key := NormalizeNameKey(listing.Name)
		if key == "" {
			continue
		}
		if _, seen := nameMap[key]; seen {
			collisions[key] = struct{}{}
			continue
		}
		nameMap[key] = NormalizeSymbol(listing.Symbol)
	}

	for key := range collisions {
		delete(nameMap, key)
	}
	return nameMap
}
