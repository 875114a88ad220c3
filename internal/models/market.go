// Package models defines the data types shared across nivesh services.
package models

// Exchange identifies one of the two supported exchanges.
type Exchange string

const (
	ExchangeNSE Exchange = "nse"
	ExchangeBSE Exchange = "bse"
)

// ExchangeFromSuffix maps a ticker suffix ("NS", "BO") to its exchange.
// Anything other than the BSE suffix resolves to NSE, matching how
// suffix-less tickers are treated by the route layer.
func ExchangeFromSuffix(suffix string) Exchange {
	if suffix == "BO" {
		return ExchangeBSE
	}
	return ExchangeNSE
}

// QuoteRecord is the latest known end-of-day quote for one symbol.
// Close is always set; Change and ChangePercent are nil when PrevClose
// was unavailable in the source dataset.
type QuoteRecord struct {
	Symbol        string   `json:"symbol"`
	Close         float64  `json:"close"`
	PrevClose     *float64 `json:"prevClose"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"`
	AsOf          string   `json:"asOf"`
}

// HistoryPoint is one closing price on one trading date (YYYY-MM-DD).
type HistoryPoint struct {
	Date  string  `json:"date"`
	Close float64 `json:"close"`
}

// IndexSnapshot is a live-ish value for a named market index.
type IndexSnapshot struct {
	Symbol        string   `json:"symbol"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	Change        *float64 `json:"change"`
	ChangePercent *float64 `json:"changePercent"`
}

// ExchangeBucket holds the cached state for a single exchange: the latest
// quote per symbol and a per-symbol close history sorted by date.
type ExchangeBucket struct {
	AsOf    string                    `json:"asOf"`
	Quotes  map[string]QuoteRecord    `json:"quotes"`
	History map[string][]HistoryPoint `json:"history"`
}

// NewExchangeBucket returns an empty bucket with initialized maps.
func NewExchangeBucket() *ExchangeBucket {
	return &ExchangeBucket{
		Quotes:  make(map[string]QuoteRecord),
		History: make(map[string][]HistoryPoint),
	}
}

// MarketSnapshot is the root aggregate for the market data cache. It is
// owned by the marketdata service, which is its sole mutator; everything
// else reads it through the service accessors.
type MarketSnapshot struct {
	UpdatedAt string                   `json:"updatedAt"`
	NSE       *ExchangeBucket          `json:"nse"`
	BSE       *ExchangeBucket          `json:"bse"`
	Indices   map[string]IndexSnapshot `json:"indices"`
}

// NewMarketSnapshot returns an empty snapshot with both exchange buckets
// and the index map initialized.
func NewMarketSnapshot() *MarketSnapshot {
	return &MarketSnapshot{
		NSE:     NewExchangeBucket(),
		BSE:     NewExchangeBucket(),
		Indices: make(map[string]IndexSnapshot),
	}
}

// Normalize fills in any nil buckets or maps, so a snapshot hydrated from
// a partial or old on-disk file is always safe to use.
func (s *MarketSnapshot) Normalize() {
	if s.NSE == nil {
		s.NSE = NewExchangeBucket()
	}
	if s.BSE == nil {
		s.BSE = NewExchangeBucket()
	}
	for _, b := range []*ExchangeBucket{s.NSE, s.BSE} {
		if b.Quotes == nil {
			b.Quotes = make(map[string]QuoteRecord)
		}
		if b.History == nil {
			b.History = make(map[string][]HistoryPoint)
		}
	}
	if s.Indices == nil {
		s.Indices = make(map[string]IndexSnapshot)
	}
}

// Bucket returns the bucket for the given exchange.
func (s *MarketSnapshot) Bucket(exchange Exchange) *ExchangeBucket {
	if exchange == ExchangeBSE {
		return s.BSE
	}
	return s.NSE
}

// Listing is one entry in an exchange's listed-securities table, used to
// resolve company names to symbols when a source row carries no ticker.
type Listing struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
}

// Dataset is one day's parsed bulk price file: rows keyed by column name,
// and the trading date the file was published for.
type Dataset struct {
	Date string
	Rows []map[string]string
}

// Supported index keys for IndexSnapshot lookups.
const (
	IndexNifty50   = "nifty50"
	IndexBankNifty = "banknifty"
	IndexSensex    = "sensex"
)
