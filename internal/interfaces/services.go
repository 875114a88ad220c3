package interfaces

import (
	"context"

	"github.com/niveshapp/nivesh/internal/models"
)

// EnsureOptions controls what EnsureMarketData considers "warm".
// A zero Exchange means either bucket having quotes is enough.
type EnsureOptions struct {
	Exchange       models.Exchange
	RequireIndices bool
}

// MarketDataService is the market data cache exposed to route handlers.
// The read accessors are pure in-memory lookups: they never touch disk or
// network, never block on I/O, and cannot fail.
type MarketDataService interface {
	// EnsureMarketData is a best-effort warm-up: if the requested data is
	// already cached it returns immediately, otherwise it triggers one
	// refresh and waits for it, swallowing any refresh error.
	EnsureMarketData(ctx context.Context, opts EnsureOptions)

	// RefreshMarketData runs one refresh cycle. Concurrent callers join
	// the in-flight cycle and observe its result. reason is diagnostic.
	RefreshMarketData(ctx context.Context, reason string) error

	GetQuote(symbol string, exchange models.Exchange) *models.QuoteRecord
	GetQuoteMap(symbols []string, exchange models.Exchange) map[string]models.QuoteRecord
	GetHistory(symbol string, exchange models.Exchange, sinceDate string) []models.HistoryPoint
	GetIndexSnapshot(indexKey string) *models.IndexSnapshot
}
