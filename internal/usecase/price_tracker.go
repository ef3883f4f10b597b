package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"PriceCast/internal/domain/models"
	drepo "PriceCast/internal/domain/repository"
	"PriceCast/internal/service/cache"
	applogger "PriceCast/pkg/logger"

	"github.com/robfig/cron/v3"
)

// PriceTracker keeps the latest quote for one symbol, fed either by a live
// stream or by a cron-scheduled REST poll.
type PriceTracker struct {
	symbol    string
	feed      drepo.PriceFeed
	fetcher   drepo.QuoteFetcher
	schedule  string
	cache     drepo.BytesCache
	quoteTTL  time.Duration
	publisher drepo.QuotePublisher
	metrics   drepo.Metrics
	l         *applogger.Logger

	mu     sync.RWMutex
	latest *models.PriceQuote

	cron   *cron.Cron
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type PriceTrackerOption func(*PriceTracker)

// WithStreamFeed tracks quotes pushed by feed.
func WithStreamFeed(feed drepo.PriceFeed) PriceTrackerOption {
	return func(t *PriceTracker) { t.feed = feed }
}

// WithPolling fetches a quote on every tick of a cron schedule such as "@every 30s".
func WithPolling(f drepo.QuoteFetcher, schedule string) PriceTrackerOption {
	return func(t *PriceTracker) {
		t.fetcher = f
		t.schedule = schedule
	}
}

// WithQuoteCache mirrors the latest quote into c. Entries expire after ttl so
// a stalled feed surfaces as a missing price.
func WithQuoteCache(c drepo.BytesCache, ttl time.Duration) PriceTrackerOption {
	return func(t *PriceTracker) {
		t.cache = c
		t.quoteTTL = ttl
	}
}

func WithQuotePublisher(p drepo.QuotePublisher) PriceTrackerOption {
	return func(t *PriceTracker) { t.publisher = p }
}

func WithTrackerMetrics(m drepo.Metrics) PriceTrackerOption {
	return func(t *PriceTracker) { t.metrics = m }
}

func WithTrackerLogger(l *applogger.Logger) PriceTrackerOption {
	return func(t *PriceTracker) { t.l = l }
}

func NewPriceTracker(symbol string, opts ...PriceTrackerOption) *PriceTracker {
	t := &PriceTracker{symbol: symbol, quoteTTL: 5 * time.Minute}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start begins tracking in the background. With neither a feed nor a poller
// configured it does nothing.
func (t *PriceTracker) Start(ctx context.Context) error {
	ctx, t.cancel = context.WithCancel(ctx)

	switch {
	case t.feed != nil:
		if err := t.feed.Connect(ctx); err != nil {
			t.cancel()
			return fmt.Errorf("price feed: %w", err)
		}
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.consume(ctx)
		}()
	case t.fetcher != nil:
		t.cron = cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
		if _, err := t.cron.AddFunc(t.schedule, func() { t.poll(ctx) }); err != nil {
			t.cancel()
			return fmt.Errorf("price poll schedule %q: %w", t.schedule, err)
		}
		t.poll(ctx)
		t.cron.Start()
	}
	if t.l != nil {
		t.l.Info("price tracker started", applogger.String("symbol", t.symbol))
	}
	return nil
}

// consume reads the feed until ctx ends, reconnecting after every failure.
func (t *PriceTracker) consume(ctx context.Context) {
	for ctx.Err() == nil {
		quotes, errs := t.feed.Read(ctx)
		for q := range quotes {
			t.Update(ctx, q)
		}
		err := <-errs
		if ctx.Err() != nil {
			return
		}
		if t.metrics != nil {
			t.metrics.RecordError("price_stream")
		}
		if t.l != nil {
			t.l.Warn("price stream dropped, reconnecting", applogger.Error(err))
		}
		for ctx.Err() == nil {
			if err := t.feed.Reconnect(ctx); err == nil {
				break
			} else if t.l != nil && !errors.Is(err, context.Canceled) {
				t.l.Warn("price stream reconnect failed", applogger.Error(err))
			}
		}
	}
}

func (t *PriceTracker) poll(ctx context.Context) {
	q, err := t.fetcher.CurrentPrice(ctx, t.symbol)
	if err != nil {
		if t.metrics != nil {
			t.metrics.RecordError("price_poll")
		}
		if t.l != nil {
			t.l.Warn("price poll failed", applogger.String("symbol", t.symbol), applogger.Error(err))
		}
		return
	}
	t.Update(ctx, q)
}

// Update records q as the latest quote, mirrors it to the cache and publishes it.
func (t *PriceTracker) Update(ctx context.Context, q models.PriceQuote) {
	t.mu.Lock()
	t.latest = &q
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.RecordLastPrice(q.Symbol, q.Price)
	}
	if t.cache != nil {
		b, err := json.Marshal(q)
		if err == nil {
			err = t.cache.SetBytes(ctx, t.cacheKey(), b, t.quoteTTL)
		}
		if err != nil && t.l != nil {
			t.l.Warn("quote cache set failed", applogger.Error(err))
		}
	}
	if t.publisher != nil {
		if err := t.publisher.PublishQuote(ctx, q); err != nil {
			if t.metrics != nil {
				t.metrics.RecordError("quote_publish")
			}
			if t.l != nil {
				t.l.Warn("quote publish failed", applogger.Error(err))
			}
		}
	}
}

func (t *PriceTracker) cacheKey() string { return cache.Key("quote", t.symbol) }

// Latest returns the most recent quote. The shared cache is consulted first so
// several replicas agree; the in-process copy is the fallback. Quotes older
// than the cache TTL are reported as missing.
func (t *PriceTracker) Latest(ctx context.Context) (models.PriceQuote, bool) {
	if t.cache != nil {
		b, ok, err := t.cache.GetBytes(ctx, t.cacheKey())
		if err == nil && ok {
			var q models.PriceQuote
			if json.Unmarshal(b, &q) == nil {
				return q, true
			}
		}
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.latest == nil {
		return models.PriceQuote{}, false
	}
	if t.quoteTTL > 0 && time.Since(t.latest.UpdatedAt) > t.quoteTTL {
		return models.PriceQuote{}, false
	}
	return *t.latest, true
}

// Stop halts polling or streaming and closes the feed and publisher.
func (t *PriceTracker) Stop() error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.cron != nil {
		<-t.cron.Stop().Done()
	}
	var errs []error
	if t.feed != nil {
		errs = append(errs, t.feed.Close())
	}
	t.wg.Wait()
	if t.publisher != nil {
		errs = append(errs, t.publisher.Close())
	}
	return errors.Join(errs...)
}
