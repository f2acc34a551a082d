// Package quote implements QuoteClient (C1): fetching OHLCV candles for a
// (symbol, interval, count) tuple from an external market-data vendor.
//
// Built the way pkg/market/exchanges/hyperliquid's client is built:
// functional options, an injectable *http.Client for test seams, and
// a shared retry handler rather than a hand-rolled backoff loop.
package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"tradesmart-api/pkg/domain"
	"tradesmart-api/pkg/transport"
	"tradesmart-api/pkg/tserr"
)

const defaultTimeout = 8 * time.Second

// Client fetches OHLCV candles from the configured quote vendor.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	retry      *transport.RetryHandler
	logger     transport.Logger
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom *http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetryHandler overrides the default retry policy.
func WithRetryHandler(rh *transport.RetryHandler) Option {
	return func(c *Client) {
		if rh != nil {
			c.retry = rh
		}
	}
}

// WithLogger overrides the default logx-backed logger.
func WithLogger(l transport.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Config holds the vendor base URL and credential.
type Config struct {
	BaseURL string
	APIKey  string
}

// New constructs a Client from Config and options.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
		retry:      transport.NewRetryHandler(transport.RetryConfig{MaxRetries: 3}),
		logger:     transport.NewLogger("info"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// vendorEnvelope is the shape documented in spec.md §6: either a list of
// candle rows or a {status:"error"} error envelope, both returned with a
// 2xx status.
type vendorEnvelope struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Values  []vendorCandle `json:"values"`
}

type vendorCandle struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// FetchCandles returns up to count newest-first candles for symbol at the
// given interval. Vendor error envelopes surface as VendorProtocol;
// transport failures exhausted over the retry budget surface as
// VendorTransport.
func (c *Client) FetchCandles(ctx context.Context, symbol, interval string, count int) ([]domain.OhlcvCandle, error) {
	if symbol == "" {
		return nil, tserr.New(tserr.KindInvalidInput, "symbol is required")
	}
	if count <= 0 {
		count = 1
	}

	var env vendorEnvelope
	err := c.retry.Do(ctx, func() error {
		return c.doRequest(ctx, symbol, interval, count, &env)
	})
	if err != nil {
		return nil, tserr.Wrap(tserr.KindVendorTransport, fmt.Sprintf("fetch candles for %s %s", symbol, interval), err)
	}

	if env.Status == "error" {
		return nil, tserr.New(tserr.KindVendorProtocol, fmt.Sprintf("vendor error for %s %s: %s", symbol, interval, env.Message))
	}

	candles := make([]domain.OhlcvCandle, 0, len(env.Values))
	for _, v := range env.Values {
		candle, err := parseCandle(v)
		if err != nil {
			c.logger.Warn(ctx, "quote: skipping unparseable candle", transport.Fields{"symbol": symbol, "interval": interval, "error": err.Error()})
			continue
		}
		candles = append(candles, candle)
	}

	if len(candles) > count {
		candles = candles[:count]
	}
	return candles, nil
}

func (c *Client) doRequest(ctx context.Context, symbol, interval string, count int, out *vendorEnvelope) error {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("outputsize", strconv.Itoa(count))
	q.Set("apikey", c.apiKey)

	endpoint := c.baseURL + "/time_series?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("quote: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("quote: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &transport.StatusError{StatusCode: resp.StatusCode, Err: fmt.Errorf("quote: http status %d: %s", resp.StatusCode, string(body))}
	}

	*out = vendorEnvelope{}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("quote: decode response: %w", err)
	}
	return nil
}

func parseCandle(v vendorCandle) (domain.OhlcvCandle, error) {
	openTime, err := time.Parse("2006-01-02 15:04:05", v.Datetime)
	if err != nil {
		openTime, err = time.Parse(time.RFC3339, v.Datetime)
		if err != nil {
			return domain.OhlcvCandle{}, fmt.Errorf("parse datetime %q: %w", v.Datetime, err)
		}
	}

	open, err := decimal.NewFromString(v.Open)
	if err != nil {
		return domain.OhlcvCandle{}, fmt.Errorf("parse open %q: %w", v.Open, err)
	}
	high, err := decimal.NewFromString(v.High)
	if err != nil {
		return domain.OhlcvCandle{}, fmt.Errorf("parse high %q: %w", v.High, err)
	}
	low, err := decimal.NewFromString(v.Low)
	if err != nil {
		return domain.OhlcvCandle{}, fmt.Errorf("parse low %q: %w", v.Low, err)
	}
	closePrice, err := decimal.NewFromString(v.Close)
	if err != nil {
		return domain.OhlcvCandle{}, fmt.Errorf("parse close %q: %w", v.Close, err)
	}
	volume, _ := strconv.ParseInt(v.Volume, 10, 64)

	return domain.OhlcvCandle{
		OpenTime: openTime.UTC(),
		Open:     open,
		High:     high,
		Low:      low,
		Close:    closePrice,
		Volume:   volume,
	}, nil
}
