// Package bse provides a client for BSE archive and API endpoints.
package bse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/niveshapp/nivesh/internal/common"
	"github.com/niveshapp/nivesh/internal/interfaces"
	"github.com/niveshapp/nivesh/internal/models"
)

// DefaultBhavcopyURLs is the ordered bhavcopy template chain: the primary
// download host plus the static mirror.
var DefaultBhavcopyURLs = []string{
	"https://www.bseindia.com/download/BhavCopy/Equity/EQ{DD}{MM}{YY}_CSV.ZIP",
	"https://static.bseindia.com/download/BhavCopy/Equity/EQ{DD}{MM}{YY}_CSV.ZIP",
}

// DefaultSensexURLs is the ordered SENSEX endpoint chain. BSE has moved
// this API between hosts and paths over time; each is tried in order.
var DefaultSensexURLs = []string{
	"https://api.bseindia.com/BseIndiaAPI/api/IndexSensexData/w",
	"https://api.bseindia.com/BseIndiaAPI/api/GetSensexData/w",
	"https://www.bseindia.com/BseIndiaAPI/api/IndexSensexData/w",
	"https://www.bseindia.com/BseIndiaAPI/api/GetSensexData/w",
}

const (
	DefaultRateLimit = 5 // requests per second

	defaultFetchTimeout   = 15 * time.Second
	defaultDatasetTimeout = 20 * time.Second

	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	referer   = "https://www.bseindia.com"
)

// Client implements the BSEClient interface.
type Client struct {
	bhavcopyURLs   []string
	sensexURLs     []string
	client         *resty.Client
	logger         *common.Logger
	limiter        *rate.Limiter
	fetchTimeout   time.Duration
	datasetTimeout time.Duration
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBhavcopyURLs overrides the bhavcopy URL template chain.
func WithBhavcopyURLs(templates []string) ClientOption {
	return func(c *Client) {
		if len(templates) > 0 {
			c.bhavcopyURLs = templates
		}
	}
}

// WithSensexURLs overrides the SENSEX endpoint chain.
func WithSensexURLs(urls []string) ClientOption {
	return func(c *Client) {
		if len(urls) > 0 {
			c.sensexURLs = urls
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the upstream request rate limit.
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeouts sets the fetch and dataset-download timeouts.
func WithTimeouts(fetch, dataset time.Duration) ClientOption {
	return func(c *Client) {
		if fetch > 0 {
			c.fetchTimeout = fetch
		}
		if dataset > 0 {
			c.datasetTimeout = dataset
		}
	}
}

// NewClient creates a new BSE client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		bhavcopyURLs:   DefaultBhavcopyURLs,
		sensexURLs:     DefaultSensexURLs,
		limiter:        rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:         common.NewSilentLogger(),
		fetchTimeout:   defaultFetchTimeout,
		datasetTimeout: defaultDatasetTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client = resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Referer", referer).
		SetHeader("Accept", "application/json,text/plain,*/*")
	return c
}

// APIError represents an upstream HTTP error.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("BSE API error: status %d from %s", e.StatusCode, e.URL)
}

func (c *Client) get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.logger.Debug().Str("url", url).Msg("BSE request")

	resp, err := c.client.R().SetContext(reqCtx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", url, interfaces.ErrNotFound)
	}
	if !resp.IsSuccess() {
		return nil, &APIError{StatusCode: resp.StatusCode(), URL: url}
	}
	return resp.Body(), nil
}

// FetchBhavcopy downloads and parses the bhavcopy for the given date,
// trying each URL template in order and returning on the first success.
// The error from the last template is reported when every template fails.
func (c *Client) FetchBhavcopy(ctx context.Context, date time.Time) ([]map[string]string, error) {
	var lastErr error
	for _, template := range c.bhavcopyURLs {
		url := common.ApplyDateTemplate(template, date)
		body, err := c.get(ctx, url, c.datasetTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		rows, err := common.ParseZipCSVRows(body)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", url, err)
			continue
		}
		return rows, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no bhavcopy URL templates configured")
	}
	return nil, lastErr
}

// FetchSensex retrieves a SENSEX snapshot from the first endpoint in the
// chain that yields a usable price record. Every endpoint failing returns
// the last error; the caller decides whether that fails the refresh.
func (c *Client) FetchSensex(ctx context.Context) (*models.IndexSnapshot, error) {
	var lastErr error
	for _, url := range c.sensexURLs {
		body, err := c.get(ctx, url, c.fetchTimeout)
		if err != nil {
			lastErr = err
			continue
		}
		var payload any
		if err := json.Unmarshal(body, &payload); err != nil {
			lastErr = fmt.Errorf("%s: failed to decode response: %w", url, err)
			continue
		}
		row := extractSensexPayload(payload)
		snapshot := parseSensexRow(row)
		if snapshot != nil {
			return snapshot, nil
		}
		lastErr = fmt.Errorf("%s: no usable price record in response", url)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no SENSEX endpoints configured")
	}
	return nil, lastErr
}

// extractSensexPayload locates the index row in one of the known response
// shapes: a bare array, a named sub-array, a Table array, or a generic
// data array matched by name with a fallback to its first element.
func extractSensexPayload(payload any) map[string]any {
	switch v := payload.(type) {
	case []any:
		return firstObject(v)
	case map[string]any:
		for _, key := range []string{"Sensex", "sensex", "Table"} {
			if arr, ok := v[key].([]any); ok {
				return firstObject(arr)
			}
		}
		if arr, ok := v["data"].([]any); ok {
			for _, item := range arr {
				row, ok := item.(map[string]any)
				if !ok {
					continue
				}
				for _, field := range []string{"index", "name", "symbol"} {
					if s, ok := row[field].(string); ok && strings.Contains(strings.ToLower(s), "sensex") {
						return row
					}
				}
			}
			return firstObject(arr)
		}
		return v
	}
	return nil
}

func firstObject(arr []any) map[string]any {
	if len(arr) == 0 {
		return nil
	}
	row, _ := arr[0].(map[string]any)
	return row
}

// parseSensexRow maps an extracted row onto an IndexSnapshot. Field names
// vary across endpoint generations, so each logical field is resolved
// through an ordered candidate list. Change fields are derived from the
// previous close when the row carries no explicit change.
func parseSensexRow(row map[string]any) *models.IndexSnapshot {
	if row == nil {
		return nil
	}

	price := numberField(row, "last", "Last", "indexValue", "currentValue", "current", "ltp", "value")
	if price == nil {
		return nil
	}
	change := numberField(row, "variation", "change", "netChange", "Change", "chg")
	changePercent := numberField(row, "percentChange", "changePercent", "pChange", "change%")

	if change == nil || changePercent == nil {
		if prevClose := numberField(row, "prevClose", "Prev_Close", "PrevClose"); prevClose != nil && *prevClose != 0 {
			diff := *price - *prevClose
			pct := diff / *prevClose * 100
			change = &diff
			changePercent = &pct
		}
	}

	return &models.IndexSnapshot{
		Symbol:        "SENSEX",
		Name:          "SENSEX",
		Price:         *price,
		Change:        change,
		ChangePercent: changePercent,
	}
}

// numberField resolves the first parseable numeric value among the
// candidate keys, tolerating string values with thousands separators.
func numberField(row map[string]any, names ...string) *float64 {
	for _, name := range names {
		switch v := row[name].(type) {
		case float64:
			value := v
			return &value
		case string:
			if parsed := common.ParseNumber(v); parsed != nil {
				return parsed
			}
		}
	}
	return nil
}

// Ensure Client implements BSEClient.
var _ interfaces.BSEClient = (*Client)(nil)
