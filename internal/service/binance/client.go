package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"PriceCast/internal/domain/models"
	drepo "PriceCast/internal/domain/repository"
	xhttp "PriceCast/pkg/http"
	applogger "PriceCast/pkg/logger"
)

const (
	klinesPath = "/api/v3/klines"
	tickerPath = "/api/v3/ticker/price"

	// klinesLimit is the exchange maximum per klines request.
	klinesLimit = 1000
	day         = 24 * time.Hour
)

// Client is a Binance spot REST client for daily klines and ticker prices.
type Client struct {
	http *xhttp.Client
	now  func() time.Time
	l    *applogger.Logger
}

// ClientOption configures Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	apiKey  string
	timeout time.Duration
	now     func() time.Time
}

// WithAPIKey sends the key as X-MBX-APIKEY.
func WithAPIKey(key string) ClientOption {
	return func(o *clientOptions) { o.apiKey = key }
}

// WithRequestTimeout bounds each REST call.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) { o.timeout = d }
}

// WithClock overrides the clock used to stop pagination.
func WithClock(now func() time.Time) ClientOption {
	return func(o *clientOptions) { o.now = now }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	o := clientOptions{timeout: 10 * time.Second, now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	httpOpts := []xhttp.ClientOption{xhttp.WithBaseURL(baseURL), xhttp.WithTimeout(o.timeout)}
	if o.apiKey != "" {
		httpOpts = append(httpOpts, xhttp.WithHeader("X-MBX-APIKEY", o.apiKey))
	}
	return &Client{http: xhttp.NewClient(httpOpts...), now: o.now}
}

func (c *Client) SetLogger(l *applogger.Logger) { c.l = l }

func (c *Client) Name() string { return "binance" }

// DailyCloses pages through 1d klines from `from` up to now and returns one
// observation per candle, keyed by its open-time day. The still-open candle
// for the current day is included.
func (c *Client) DailyCloses(ctx context.Context, symbol string, from time.Time) ([]models.Observation, error) {
	symbol = strings.ToUpper(symbol)
	start := from.UTC().Truncate(day)
	end := c.now().UTC()

	var out []models.Observation
	for pages := 0; !start.After(end); pages++ {
		var rows [][]json.RawMessage
		err := c.http.GetJSON(ctx, klinesPath, map[string][]string{
			"symbol":    {symbol},
			"interval":  {"1d"},
			"startTime": {strconv.FormatInt(start.UnixMilli(), 10)},
			"limit":     {strconv.Itoa(klinesLimit)},
		}, &rows)
		if err != nil {
			return nil, fmt.Errorf("binance klines %s from %s: %w", symbol, start.Format(time.DateOnly), err)
		}

		for _, row := range rows {
			obs, err := parseKline(row)
			if err != nil {
				return nil, fmt.Errorf("binance klines %s: %w", symbol, err)
			}
			out = append(out, obs)
		}

		if c.l != nil {
			c.l.Debug("binance klines page",
				applogger.String("symbol", symbol),
				applogger.Int("page", pages),
				applogger.Int("rows", len(rows)),
			)
		}
		if len(rows) < klinesLimit {
			break
		}
		start = out[len(out)-1].Date.Add(day)
	}
	return out, nil
}

// parseKline reads open time (index 0) and close (index 4) from a kline row.
func parseKline(row []json.RawMessage) (models.Observation, error) {
	if len(row) < 5 {
		return models.Observation{}, fmt.Errorf("kline row has %d fields", len(row))
	}
	var openMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return models.Observation{}, fmt.Errorf("kline open time: %w", err)
	}
	var closeStr string
	if err := json.Unmarshal(row[4], &closeStr); err != nil {
		return models.Observation{}, fmt.Errorf("kline close: %w", err)
	}
	v, err := strconv.ParseFloat(closeStr, 64)
	if err != nil {
		return models.Observation{}, fmt.Errorf("kline close %q: %w", closeStr, err)
	}
	return models.Observation{Date: time.UnixMilli(openMs).UTC().Truncate(day), Value: v}, nil
}

type tickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// CurrentPrice returns the latest traded price for symbol.
func (c *Client) CurrentPrice(ctx context.Context, symbol string) (models.PriceQuote, error) {
	var t tickerPrice
	if err := c.http.GetJSON(ctx, tickerPath, map[string][]string{"symbol": {strings.ToUpper(symbol)}}, &t); err != nil {
		return models.PriceQuote{}, fmt.Errorf("binance ticker %s: %w", symbol, err)
	}
	p, err := strconv.ParseFloat(t.Price, 64)
	if err != nil {
		return models.PriceQuote{}, fmt.Errorf("binance ticker %s price %q: %w", symbol, t.Price, err)
	}
	return models.PriceQuote{Symbol: t.Symbol, Price: p, UpdatedAt: c.now().UTC(), Source: "poll"}, nil
}

var (
	_ drepo.HistorySource = (*Client)(nil)
	_ drepo.QuoteFetcher  = (*Client)(nil)
)
