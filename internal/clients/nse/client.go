// Package nse provides a client for NSE archive and API endpoints.
package nse

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/niveshapp/nivesh/internal/common"
	"github.com/niveshapp/nivesh/internal/interfaces"
	"github.com/niveshapp/nivesh/internal/models"
)

const (
	DefaultBhavcopyURL = "https://nsearchives.nseindia.com/content/historical/EQUITIES/{YYYY}/{MMM}/cm{DD}{MMM}{YYYY}bhav.csv.zip"
	DefaultIndicesURL  = "https://www.nseindia.com/api/allIndices"
	DefaultRateLimit   = 5 // requests per second

	defaultFetchTimeout   = 15 * time.Second
	defaultDatasetTimeout = 20 * time.Second
)

// NSE rejects requests without browser-like headers.
const (
	userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	referer   = "https://www.nseindia.com/"
	accept    = "application/json,text/csv;q=0.9,*/*;q=0.8"
)

// flexFloat64 handles JSON values that may be either a number or a string,
// possibly with thousands separators.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
		if s == "" || s == "-" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

func (f *flexFloat64) ptr() *float64 {
	if f == nil {
		return nil
	}
	v := float64(*f)
	return &v
}

// Client implements the NSEClient interface.
type Client struct {
	bhavcopyURL    string
	indicesURL     string
	client         *resty.Client
	logger         *common.Logger
	limiter        *rate.Limiter
	fetchTimeout   time.Duration
	datasetTimeout time.Duration
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBhavcopyURL overrides the bhavcopy URL template.
func WithBhavcopyURL(template string) ClientOption {
	return func(c *Client) {
		if template != "" {
			c.bhavcopyURL = template
		}
	}
}

// WithIndicesURL overrides the all-indices endpoint.
func WithIndicesURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.indicesURL = url
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

// NewClient creates a new NSE client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		bhavcopyURL:    DefaultBhavcopyURL,
		indicesURL:     DefaultIndicesURL,
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
		SetHeader("Accept", accept)
	return c
}

// APIError represents an upstream HTTP error.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("NSE API error: status %d from %s", e.StatusCode, e.URL)
}

// get performs a rate-limited GET and returns the raw response body.
// A 404 maps to interfaces.ErrNotFound so callers can drive lookback walks.
func (c *Client) get(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.logger.Debug().Str("url", url).Msg("NSE request")

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

// FetchBhavcopy downloads and parses the bhavcopy for the given date.
func (c *Client) FetchBhavcopy(ctx context.Context, date time.Time) ([]map[string]string, error) {
	url := common.ApplyDateTemplate(c.bhavcopyURL, date)
	body, err := c.get(ctx, url, c.datasetTimeout)
	if err != nil {
		return nil, err
	}
	return common.ParseZipCSVRows(body)
}

// allIndicesResponse mirrors the NSE all-indices payload.
type allIndicesResponse struct {
	Timestamp string `json:"timestamp"`
	Time      string `json:"time"`
	Data      []struct {
		Index         string       `json:"index"`
		IndexSymbol   string       `json:"indexSymbol"`
		Last          flexFloat64  `json:"last"`
		Variation     *flexFloat64 `json:"variation"`
		PercentChange *flexFloat64 `json:"percentChange"`
	} `json:"data"`
}

// timestampPattern matches the day-abbreviated-month-year portion of the
// exchange timestamp, e.g. "09-Jan-2025 15:30:00".
var timestampPattern = regexp.MustCompile(`\d{1,2}-[A-Za-z]{3}-\d{4}`)

func parseMarketTimestamp(value string) (time.Time, error) {
	match := timestampPattern.FindString(value)
	if match == "" {
		return time.Time{}, fmt.Errorf("no timestamp in %q", value)
	}
	t, err := time.Parse("2-Jan-2006", match)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", match, err)
	}
	return t, nil
}

func (c *Client) fetchIndicesPayload(ctx context.Context) (*allIndicesResponse, error) {
	body, err := c.get(ctx, c.indicesURL, c.fetchTimeout)
	if err != nil {
		return nil, err
	}
	var payload allIndicesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode indices response: %w", err)
	}
	return &payload, nil
}

// FetchAllIndices retrieves the live index table.
func (c *Client) FetchAllIndices(ctx context.Context) (*interfaces.AllIndices, error) {
	payload, err := c.fetchIndicesPayload(ctx)
	if err != nil {
		return nil, err
	}

	result := &interfaces.AllIndices{}
	if ts, err := parseMarketTimestamp(payload.Timestamp + " " + payload.Time); err == nil {
		result.Timestamp = ts
	}

	for _, row := range payload.Data {
		symbol := row.IndexSymbol
		if symbol == "" {
			symbol = row.Index
		}
		name := row.Index
		if name == "" {
			name = row.IndexSymbol
		}
		result.Rows = append(result.Rows, models.IndexSnapshot{
			Symbol:        symbol,
			Name:          name,
			Price:         float64(row.Last),
			Change:        row.Variation.ptr(),
			ChangePercent: row.PercentChange.ptr(),
		})
	}
	return result, nil
}

// FetchMarketTimestamp returns the trading date the exchange reports as
// current.
func (c *Client) FetchMarketTimestamp(ctx context.Context) (time.Time, error) {
	payload, err := c.fetchIndicesPayload(ctx)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := parseMarketTimestamp(payload.Timestamp + " " + payload.Time)
	if err != nil {
		return time.Time{}, err
	}
	return ts, nil
}

// Ensure Client implements NSEClient.
var _ interfaces.NSEClient = (*Client)(nil)
