// Package interfaces defines the service and client contracts for nivesh.
package interfaces

import (
	"context"
	"errors"
	"time"

	"github.com/niveshapp/nivesh/internal/models"
)

// ErrNotFound is returned by dataset clients when the upstream has no
// published file for the requested date (HTTP 404). It is the signal that
// drives the lookback walk; every other fetch error is a hard failure.
var ErrNotFound = errors.New("dataset not found")

// AllIndices is the parsed NSE all-indices response: the market timestamp
// the exchange reports, and one row per published index.
type AllIndices struct {
	Timestamp time.Time
	Rows      []models.IndexSnapshot
}

// NSEClient talks to the NSE archive and API endpoints.
type NSEClient interface {
	// FetchBhavcopy downloads and parses the end-of-day bulk price file
	// for the given date. Returns ErrNotFound when no file exists.
	FetchBhavcopy(ctx context.Context, date time.Time) ([]map[string]string, error)

	// FetchAllIndices retrieves the live index table.
	FetchAllIndices(ctx context.Context) (*AllIndices, error)

	// FetchMarketTimestamp returns the trading date the exchange reports
	// as current, used as the authoritative base date for lookback walks.
	FetchMarketTimestamp(ctx context.Context) (time.Time, error)
}

// BSEClient talks to the BSE archive and API endpoints.
type BSEClient interface {
	// FetchBhavcopy downloads and parses the end-of-day bulk price file
	// for the given date, trying each configured URL template in order.
	// Returns ErrNotFound when the last attempted template had no file.
	FetchBhavcopy(ctx context.Context, date time.Time) ([]map[string]string, error)

	// FetchSensex retrieves a SENSEX snapshot from the first endpoint in
	// the fallback chain that yields a usable price record.
	FetchSensex(ctx context.Context) (*models.IndexSnapshot, error)
}
