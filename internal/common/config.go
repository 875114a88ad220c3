package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for nivesh.
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	MarketData  MarketDataConfig `toml:"market_data"`
	Logging     LoggingConfig    `toml:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// MarketDataConfig holds configuration for the market data cache: where the
// snapshot lives on disk, how refreshes are scheduled, and how the upstream
// exchange endpoints are reached. Every field has a default so the subsystem
// is operable with zero configuration.
type MarketDataConfig struct {
	CacheDir       string `toml:"cache_dir"`
	Timezone       string `toml:"timezone"`
	CronSchedule   string `toml:"cron_schedule"`
	LookbackDays   int    `toml:"lookback_days"`
	MaxHistoryDays int    `toml:"max_history_days"` // 0 = unbounded
	BaseDate       string `toml:"base_date"`        // YYYY-MM-DD operational override

	NSEBhavcopyURL  string   `toml:"nse_bhavcopy_url"`
	BSEBhavcopyURLs []string `toml:"bse_bhavcopy_urls"`
	NSEIndicesURL   string   `toml:"nse_indices_url"`
	SensexURLs      []string `toml:"sensex_urls"`

	FetchTimeout     string `toml:"fetch_timeout"`
	DatasetTimeout   string `toml:"dataset_timeout"`
	ClosedCooldown   string `toml:"closed_cooldown"`
	RefreshToken     string `toml:"refresh_token"`
	ListingsFile     string `toml:"listings_file"` // optional override for the embedded BSE listing table
	RateLimit        int    `toml:"rate_limit"`    // upstream requests per second, per client
	ResponseCacheTTL string `toml:"response_cache_ttl"`
}

// GetFetchTimeout parses the timeout applied to index and metadata fetches.
func (c *MarketDataConfig) GetFetchTimeout() time.Duration {
	return parseDurationOr(c.FetchTimeout, 15*time.Second)
}

// GetDatasetTimeout parses the timeout applied to bulk dataset downloads.
func (c *MarketDataConfig) GetDatasetTimeout() time.Duration {
	return parseDurationOr(c.DatasetTimeout, 20*time.Second)
}

// GetClosedCooldown parses the closed-market attempt cooldown.
func (c *MarketDataConfig) GetClosedCooldown() time.Duration {
	return parseDurationOr(c.ClosedCooldown, 10*time.Minute)
}

// GetResponseCacheTTL parses the route-level response memo TTL.
func (c *MarketDataConfig) GetResponseCacheTTL() time.Duration {
	return parseDurationOr(c.ResponseCacheTTL, 60*time.Second)
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		MarketData: MarketDataConfig{
			CacheDir:     "data/market-cache",
			Timezone:     "Asia/Kolkata",
			CronSchedule: "0 16 * * 1-5",
			LookbackDays: 10,

			NSEBhavcopyURL: "https://nsearchives.nseindia.com/content/historical/EQUITIES/{YYYY}/{MMM}/cm{DD}{MMM}{YYYY}bhav.csv.zip",
			BSEBhavcopyURLs: []string{
				"https://www.bseindia.com/download/BhavCopy/Equity/EQ{DD}{MM}{YY}_CSV.ZIP",
				"https://static.bseindia.com/download/BhavCopy/Equity/EQ{DD}{MM}{YY}_CSV.ZIP",
			},
			NSEIndicesURL: "https://www.nseindia.com/api/allIndices",
			SensexURLs: []string{
				"https://api.bseindia.com/BseIndiaAPI/api/IndexSensexData/w",
				"https://api.bseindia.com/BseIndiaAPI/api/GetSensexData/w",
				"https://www.bseindia.com/BseIndiaAPI/api/IndexSensexData/w",
				"https://www.bseindia.com/BseIndiaAPI/api/GetSensexData/w",
			},

			FetchTimeout:     "15s",
			DatasetTimeout:   "20s",
			ClosedCooldown:   "10m",
			RateLimit:        5,
			ResponseCacheTTL: "60s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier ones; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("NIVESH_ENV"); env != "" {
		config.Environment = env
	}
	if host := os.Getenv("NIVESH_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("NIVESH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("NIVESH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	md := &config.MarketData
	if v := os.Getenv("MARKET_DATA_CACHE_DIR"); v != "" {
		md.CacheDir = v
	}
	if v := os.Getenv("MARKET_DATA_TIMEZONE"); v != "" {
		md.Timezone = v
	}
	if v := os.Getenv("MARKET_DATA_CRON"); v != "" {
		md.CronSchedule = v
	}
	if v := os.Getenv("MARKET_DATA_LOOKBACK_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			md.LookbackDays = n
		}
	}
	if v := os.Getenv("MARKET_DATA_HISTORY_MAX_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			md.MaxHistoryDays = n
		}
	}
	if v := os.Getenv("MARKET_DATA_BASE_DATE"); v != "" {
		md.BaseDate = v
	}
	if v := os.Getenv("NSE_BHAVCOPY_URL_TEMPLATE"); v != "" {
		md.NSEBhavcopyURL = v
	}
	if v := os.Getenv("BSE_BHAVCOPY_URL_TEMPLATE"); v != "" {
		md.BSEBhavcopyURLs = append([]string{v}, md.BSEBhavcopyURLs...)
	}
	if v := os.Getenv("NSE_INDICES_URL"); v != "" {
		md.NSEIndicesURL = v
	}
	if v := os.Getenv("SENSEX_INDEX_URL"); v != "" {
		md.SensexURLs = append([]string{v}, md.SensexURLs...)
	}
	if v := os.Getenv("CLOSED_FETCH_COOLDOWN"); v != "" {
		md.ClosedCooldown = v
	}
	if v := os.Getenv("CACHE_REFRESH_TOKEN"); v != "" {
		md.RefreshToken = v
	}
	if v := os.Getenv("MARKET_DATA_LISTINGS_FILE"); v != "" {
		md.ListingsFile = v
	}
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}
