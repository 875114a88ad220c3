package marketdata

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/niveshapp/nivesh/internal/common"
	"github.com/niveshapp/nivesh/internal/interfaces"
	"github.com/niveshapp/nivesh/internal/models"
)

// Service owns the market data snapshot. It is the snapshot's sole
// mutator: the refresh cycle merges pipeline results under the write
// lock, and every other component reads through the accessors below.
type Service struct {
	config  common.MarketDataConfig
	nse     interfaces.NSEClient
	bse     interfaces.BSEClient
	store   interfaces.SnapshotStore
	logger  *common.Logger
	nameMap map[string]string
	now     func() time.Time // injectable clock for testing

	mu       sync.RWMutex
	snapshot *models.MarketSnapshot

	flight singleflight.Group
}

// NewService creates the market data service. listings seeds the
// name-to-symbol lookup used for BSE rows without an explicit ticker.
func NewService(
	config common.MarketDataConfig,
	nse interfaces.NSEClient,
	bse interfaces.BSEClient,
	store interfaces.SnapshotStore,
	listings []models.Listing,
	logger *common.Logger,
) *Service {
	return &Service{
		config:   config,
		nse:      nse,
		bse:      bse,
		store:    store,
		logger:   logger,
		nameMap:  BuildUniqueNameMap(listings),
		now:      time.Now,
		snapshot: models.NewMarketSnapshot(),
	}
}

// Initialize hydrates the snapshot from disk. A missing file starts
// empty; an unparseable file is logged and also starts empty — never
// fatal.
func (s *Service) Initialize(ctx context.Context) {
	loaded, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to load market snapshot, starting empty")
		return
	}
	if loaded == nil {
		return
	}
	s.mu.Lock()
	s.snapshot = loaded
	s.mu.Unlock()
	s.logger.Info().Str("updated_at", loaded.UpdatedAt).Msg("Market snapshot hydrated from disk")
}

// pipelineResult is one exchange pipeline's contribution to a refresh.
type pipelineResult struct {
	exchange models.Exchange
	date     string
	quotes   map[string]models.QuoteRecord
}

// RefreshMarketData runs one refresh cycle. Concurrent callers join the
// in-flight cycle and observe the same result — there is never more than
// one set of upstream fetches in progress. reason is diagnostic only.
//
// The cycle runs on a context detached from the initiating caller's
// cancellation: a refresh is not cancellable once started, and joiners
// must not have their shared result torn down by the first caller going
// away.
func (s *Service) RefreshMarketData(ctx context.Context, reason string) error {
	_, err, _ := s.flight.Do("refresh", func() (any, error) {
		return nil, s.refresh(context.WithoutCancel(ctx), reason)
	})
	return err
}

// refresh resolves the base date once, runs the three pipelines
// concurrently, merges whatever succeeded, and persists the snapshot
// exactly once. Each pipeline's failure is logged independently and never
// aborts its siblings. An error is returned only when every pipeline
// failed — a partial refresh is a success from the caller's view, with
// the failed bucket simply retaining its previous contents.
func (s *Service) refresh(ctx context.Context, reason string) error {
	start := s.now()
	cycle := uuid.NewString()[:8]
	log := s.logger.With().Str("cycle", cycle).Str("reason", reason).Logger()

	baseDate := s.resolveBaseDate(ctx)

	var (
		wg      sync.WaitGroup
		nseRes  *pipelineResult
		bseRes  *pipelineResult
		indices map[string]models.IndexSnapshot
		errMu   sync.Mutex
		errs    []error
	)

	fail := func(pipeline string, err error) {
		log.Error().Err(err).Str("pipeline", pipeline).Msg("Market data pipeline failed")
		errMu.Lock()
		errs = append(errs, err)
		errMu.Unlock()
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		res, err := s.runExchangePipeline(ctx, models.ExchangeNSE, baseDate)
		if err != nil {
			fail("nse", err)
			return
		}
		nseRes = res
	}()
	go func() {
		defer wg.Done()
		res, err := s.runExchangePipeline(ctx, models.ExchangeBSE, baseDate)
		if err != nil {
			fail("bse", err)
			return
		}
		bseRes = res
	}()
	go func() {
		defer wg.Done()
		snapshots, err := s.fetchIndexSnapshots(ctx)
		if err != nil {
			fail("indices", err)
			return
		}
		indices = snapshots
	}()
	wg.Wait()

	s.mu.Lock()
	s.applyResult(nseRes)
	s.applyResult(bseRes)
	for key, snapshot := range indices {
		s.snapshot.Indices[key] = snapshot
	}
	s.snapshot.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	s.mu.Unlock()

	// Persist strictly after all pipelines settled, exactly once per
	// cycle. The read lock is enough: the single-flight group guarantees
	// no concurrent mutator.
	s.mu.RLock()
	saveErr := s.store.Save(ctx, s.snapshot)
	s.mu.RUnlock()
	if saveErr != nil {
		log.Error().Err(saveErr).Msg("Failed to persist market snapshot")
	}

	log.Info().
		Int("errors", len(errs)).
		Dur("elapsed", time.Since(start)).
		Msg("Market data refresh complete")

	if len(errs) == 3 {
		return errors.Join(errs...)
	}
	return nil
}

// applyResult overwrites an exchange bucket with a pipeline's quotes.
// A nil result (failed pipeline) or an empty quote set leaves the
// previous bucket untouched: stale data beats no data.
func (s *Service) applyResult(res *pipelineResult) {
	if res == nil || len(res.quotes) == 0 {
		return
	}
	bucket := s.snapshot.Bucket(res.exchange)
	bucket.Quotes = res.quotes
	bucket.AsOf = res.date
	updateHistoryFromQuotes(bucket, res.quotes, res.date, s.config.MaxHistoryDays)
}

func (s *Service) runExchangePipeline(ctx context.Context, exchange models.Exchange, baseDate time.Time) (*pipelineResult, error) {
	var fetch datasetFetcher
	if exchange == models.ExchangeBSE {
		fetch = s.bse.FetchBhavcopy
	} else {
		fetch = s.nse.FetchBhavcopy
	}

	dataset, err := findLatestDataset(ctx, fetch, baseDate, s.config.LookbackDays)
	if err != nil {
		return nil, err
	}

	var quotes map[string]models.QuoteRecord
	if exchange == models.ExchangeBSE {
		quotes = buildBSEQuotes(dataset.Rows, dataset.Date, s.nameMap)
	} else {
		quotes = buildNSEQuotes(dataset.Rows, dataset.Date)
	}

	s.logger.Debug().
		Str("exchange", string(exchange)).
		Str("as_of", dataset.Date).
		Int("quotes", len(quotes)).
		Msg("Exchange pipeline complete")

	return &pipelineResult{exchange: exchange, date: dataset.Date, quotes: quotes}, nil
}

// Display names the NSE all-indices table uses for the tracked indices.
const (
	nifty50Name   = "NIFTY 50"
	bankNiftyName = "NIFTY BANK"
)

// fetchIndexSnapshots collects index snapshots best-effort per index:
// an index whose upstream is unreachable is simply absent from the
// result, never a failure for the others. An error is returned only when
// nothing at all could be fetched.
func (s *Service) fetchIndexSnapshots(ctx context.Context) (map[string]models.IndexSnapshot, error) {
	updates := make(map[string]models.IndexSnapshot)

	all, err := s.nse.FetchAllIndices(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to fetch NSE indices")
	} else {
		for _, row := range all.Rows {
			switch row.Name {
			case nifty50Name:
				updates[models.IndexNifty50] = row
			case bankNiftyName:
				updates[models.IndexBankNifty] = row
			}
		}
	}

	sensex, err := s.bse.FetchSensex(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to fetch SENSEX snapshot")
	} else if sensex != nil {
		updates[models.IndexSensex] = *sensex
	}

	if len(updates) == 0 {
		return nil, errors.New("no index snapshots available")
	}
	return updates, nil
}

// EnsureMarketData is a best-effort warm-up. If the requested bucket(s)
// already hold at least one quote (and indices, if required) it returns
// immediately without touching the network; otherwise it triggers one
// refresh and waits for it, swallowing any refresh error.
func (s *Service) EnsureMarketData(ctx context.Context, opts interfaces.EnsureOptions) {
	s.mu.RLock()
	bucketReady := false
	if opts.Exchange != "" {
		bucketReady = len(s.snapshot.Bucket(opts.Exchange).Quotes) > 0
	} else {
		bucketReady = len(s.snapshot.NSE.Quotes) > 0 || len(s.snapshot.BSE.Quotes) > 0
	}
	indexReady := !opts.RequireIndices || len(s.snapshot.Indices) > 0
	s.mu.RUnlock()

	if bucketReady && indexReady {
		return
	}
	if err := s.RefreshMarketData(ctx, "on-demand"); err != nil {
		s.logger.Warn().Err(err).Msg("On-demand market data refresh failed")
	}
}

// GetQuote returns the latest quote for a symbol, or nil when unknown.
func (s *Service) GetQuote(symbol string, exchange models.Exchange) *models.QuoteRecord {
	key := NormalizeSymbol(symbol)
	if key == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if quote, ok := s.snapshot.Bucket(exchange).Quotes[key]; ok {
		return &quote
	}
	return nil
}

// GetQuoteMap returns the quotes for the given symbols, omitting any
// symbol without a cached quote.
func (s *Service) GetQuoteMap(symbols []string, exchange models.Exchange) map[string]models.QuoteRecord {
	quotes := make(map[string]models.QuoteRecord, len(symbols))
	s.mu.RLock()
	defer s.mu.RUnlock()
	bucket := s.snapshot.Bucket(exchange)
	for _, symbol := range symbols {
		key := NormalizeSymbol(symbol)
		if key == "" {
			continue
		}
		if quote, ok := bucket.Quotes[key]; ok {
			quotes[key] = quote
		}
	}
	return quotes
}

// GetHistory returns a symbol's close history, optionally filtered to
// dates on or after sinceDate (inclusive). The returned slice is a copy.
func (s *Service) GetHistory(symbol string, exchange models.Exchange, sinceDate string) []models.HistoryPoint {
	key := NormalizeSymbol(symbol)
	if key == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	history := s.snapshot.Bucket(exchange).History[key]
	if sinceDate != "" {
		idx := 0
		for idx < len(history) && history[idx].Date < sinceDate {
			idx++
		}
		history = history[idx:]
	}
	out := make([]models.HistoryPoint, len(history))
	copy(out, history)
	return out
}

// GetIndexSnapshot returns the snapshot for an index key, or nil.
func (s *Service) GetIndexSnapshot(indexKey string) *models.IndexSnapshot {
	key := strings.ToLower(strings.TrimSpace(indexKey))
	if key == "" {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if snapshot, ok := s.snapshot.Indices[key]; ok {
		return &snapshot
	}
	return nil
}

// Ensure Service implements MarketDataService.
var _ interfaces.MarketDataService = (*Service)(nil)
