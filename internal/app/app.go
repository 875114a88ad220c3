// Package app wires configuration, clients, storage, and services into a
// runnable application core shared by the server binary and tests.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/niveshapp/nivesh/internal/clients/bse"
	"github.com/niveshapp/nivesh/internal/clients/nse"
	"github.com/niveshapp/nivesh/internal/common"
	"github.com/niveshapp/nivesh/internal/interfaces"
	"github.com/niveshapp/nivesh/internal/services/marketdata"
	"github.com/niveshapp/nivesh/internal/storage/marketfs"
)

// App holds all initialized services and clients. It is the shared core
// used by cmd/nivesh-server and by integration tests.
type App struct {
	Config        *common.Config
	Logger        *common.Logger
	Store         interfaces.SnapshotStore
	NSEClient     interfaces.NSEClient
	BSEClient     interfaces.BSEClient
	MarketData    interfaces.MarketDataService
	MarketHours   *marketdata.MarketHours
	RefreshGuard  *marketdata.ClosedFetchGuard
	RefreshAuth   *marketdata.RefreshAuth
	ResponseCache *marketdata.ResponseCache
	StartupTime   time.Time

	scheduler *Scheduler
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// NewApp initializes configuration, clients, storage, and services.
// configPath may be empty, in which case the default resolution logic is
// used: NIVESH_CONFIG, then nivesh.toml next to the binary, then the
// development fallback config/nivesh.toml.
func NewApp(configPath string) (*App, error) {
	startupStart := time.Now()

	binDir := getBinaryDir()

	if configPath == "" {
		configPath = os.Getenv("NIVESH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(binDir, "nivesh.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/nivesh.toml" // fallback for development
		}
	}

	config, err := common.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Resolve relative cache path to binary directory
	if config.MarketData.CacheDir != "" && !filepath.IsAbs(config.MarketData.CacheDir) {
		config.MarketData.CacheDir = filepath.Join(binDir, config.MarketData.CacheDir)
	}

	logger := common.NewLogger(config.Logging.Level)

	md := config.MarketData

	store, err := marketfs.NewStore(logger, md.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize market store: %w", err)
	}

	nseClient := nse.NewClient(
		nse.WithBhavcopyURL(md.NSEBhavcopyURL),
		nse.WithIndicesURL(md.NSEIndicesURL),
		nse.WithLogger(logger),
		nse.WithRateLimit(md.RateLimit),
		nse.WithTimeouts(md.GetFetchTimeout(), md.GetDatasetTimeout()),
	)
	bseClient := bse.NewClient(
		bse.WithBhavcopyURLs(md.BSEBhavcopyURLs),
		bse.WithSensexURLs(md.SensexURLs),
		bse.WithLogger(logger),
		bse.WithRateLimit(md.RateLimit),
		bse.WithTimeouts(md.GetFetchTimeout(), md.GetDatasetTimeout()),
	)

	listings, err := marketdata.LoadListings(md.ListingsFile)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to load listings, name resolution disabled")
	}

	service := marketdata.NewService(md, nseClient, bseClient, store, listings, logger)
	service.Initialize(context.Background())

	a := &App{
		Config:        config,
		Logger:        logger,
		Store:         store,
		NSEClient:     nseClient,
		BSEClient:     bseClient,
		MarketData:    service,
		MarketHours:   marketdata.NewMarketHours(md.Timezone),
		RefreshGuard:  marketdata.NewClosedFetchGuard(md.GetClosedCooldown()),
		RefreshAuth:   marketdata.NewRefreshAuth(md.RefreshToken),
		ResponseCache: marketdata.NewResponseCache(md.GetResponseCacheTTL()),
		StartupTime:   startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a, nil
}

// StartScheduler launches the cron-driven refresh loop and fires one
// startup refresh in the background so the cache warms without waiting
// for the first scheduled run.
func (a *App) StartScheduler() error {
	scheduler, err := NewScheduler(a.Config.MarketData, a.MarketData, a.Logger)
	if err != nil {
		return err
	}
	a.scheduler = scheduler
	scheduler.Start()

	go func() {
		if err := a.MarketData.RefreshMarketData(context.Background(), "startup"); err != nil {
			a.Logger.Warn().Err(err).Msg("Startup market data refresh failed")
		}
	}()

	return nil
}

// Close releases all resources held by the App.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
}
