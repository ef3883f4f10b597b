package repository

import (
	"context"
	"time"

	"PriceCast/internal/domain/models"
)

// HistorySource provides daily closing prices for a symbol, oldest first.
type HistorySource interface {
	Name() string
	DailyCloses(ctx context.Context, symbol string, from time.Time) ([]models.Observation, error)
}

// PriceFeed delivers live price quotes.
type PriceFeed interface {
	Connect(ctx context.Context) error
	Read(ctx context.Context) (<-chan models.PriceQuote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// QuoteFetcher fetches a single current quote on demand.
type QuoteFetcher interface {
	CurrentPrice(ctx context.Context, symbol string) (models.PriceQuote, error)
}

// QuotePublisher forwards quotes to a downstream topic.
type QuotePublisher interface {
	PublishQuote(ctx context.Context, q models.PriceQuote) error
	Close() error
}

// Metrics records forecaster and feed telemetry.
type Metrics interface {
	RecordForecast(outcome string, horizonDays int)
	RecordModelLatency(model string, seconds float64)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}

// HistoryArchive persists fetched daily closes so a later run can read them back.
type HistoryArchive interface {
	SaveDailyCloses(ctx context.Context, symbol string, obs []models.Observation) error
}

// BytesCache stores raw bytes with a TTL. A zero TTL means no expiry.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
