package marketdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/niveshapp/nivesh/internal/models"
)

// The packaged BSE listing table seeds the name-to-symbol lookup. BSE
// bhavcopy rows from some generations carry only a company name column,
// so the lookup is what makes those rows resolvable at all.
//
//go:embed data/bse_listings.json
var bseListingsJSON []byte

// LoadListings returns the listing table from the given file, or the
// packaged table when path is empty.
func LoadListings(path string) ([]models.Listing, error) {
	data := bseListingsJSON
	if path != "" {
		fileData, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read listings file %s: %w", path, err)
		}
		data = fileData
	}

	var listings []models.Listing
	if err := json.Unmarshal(data, &listings); err != nil {
		return nil, fmt.Errorf("failed to parse listings: %w", err)
	}
	return listings, nil
}
