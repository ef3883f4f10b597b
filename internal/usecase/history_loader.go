package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/service/cache"
	"PriceCast/internal/services/forecast"
	applogger "PriceCast/pkg/logger"
	xutil "PriceCast/pkg/util"
)

// HistoryLoader fetches daily closes from a source, optionally through a
// byte cache, and optionally archives fresh fetches.
type HistoryLoader struct {
	source   domrepo.HistorySource
	cache    domrepo.BytesCache
	cacheTTL time.Duration
	archive  domrepo.HistoryArchive
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

type HistoryLoaderOption func(*HistoryLoader)

// WithHistoryCache caches fetched history as JSON for ttl.
func WithHistoryCache(c domrepo.BytesCache, ttl time.Duration) HistoryLoaderOption {
	return func(h *HistoryLoader) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithHistoryArchive writes every fresh fetch to a.
func WithHistoryArchive(a domrepo.HistoryArchive) HistoryLoaderOption {
	return func(h *HistoryLoader) { h.archive = a }
}

func WithHistoryMetrics(m domrepo.Metrics) HistoryLoaderOption {
	return func(h *HistoryLoader) { h.metrics = m }
}

func WithHistoryLogger(l *applogger.Logger) HistoryLoaderOption {
	return func(h *HistoryLoader) { h.l = l }
}

func NewHistoryLoader(source domrepo.HistorySource, opts ...HistoryLoaderOption) *HistoryLoader {
	h := &HistoryLoader{source: source}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *HistoryLoader) cacheKey(symbol string, from time.Time) string {
	return cache.Key("history", h.source.Name(), symbol, xutil.FormatDate(from))
}

// Load returns daily closes for symbol since from. Cache failures are logged
// and fall through to the source.
func (h *HistoryLoader) Load(ctx context.Context, symbol string, from time.Time) ([]models.Observation, error) {
	start := time.Now()
	key := h.cacheKey(symbol, from)

	if obs, ok := h.fromCache(ctx, key); ok {
		h.logLoaded(symbol, "cache", len(obs), time.Since(start))
		return obs, nil
	}

	obs, err := h.source.DailyCloses(ctx, symbol, from)
	if err != nil {
		if h.metrics != nil {
			h.metrics.RecordError("history_" + h.source.Name())
		}
		return nil, fmt.Errorf("load history from %s: %w", h.source.Name(), err)
	}
	if h.metrics != nil {
		h.metrics.RecordLatency("history_"+h.source.Name(), time.Since(start).Seconds())
	}

	h.toCache(ctx, key, obs)
	if h.archive != nil {
		if err := h.archive.SaveDailyCloses(ctx, symbol, obs); err != nil && h.l != nil {
			h.l.Warn("history archive failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	h.logLoaded(symbol, h.source.Name(), len(obs), time.Since(start))
	return obs, nil
}

func (h *HistoryLoader) fromCache(ctx context.Context, key string) ([]models.Observation, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(ctx, key)
	if err != nil {
		if h.l != nil {
			h.l.Warn("history cache get failed", applogger.String("key", key), applogger.Error(err))
		}
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var obs []models.Observation
	if err := json.Unmarshal(b, &obs); err != nil {
		if h.l != nil {
			h.l.Warn("history cache entry corrupt", applogger.String("key", key), applogger.Error(err))
		}
		return nil, false
	}
	return obs, true
}

func (h *HistoryLoader) toCache(ctx context.Context, key string, obs []models.Observation) {
	if h.cache == nil || len(obs) == 0 {
		return
	}
	b, err := json.Marshal(obs)
	if err == nil {
		err = h.cache.SetBytes(ctx, key, b, h.cacheTTL)
	}
	if err != nil && h.l != nil {
		h.l.Warn("history cache set failed", applogger.String("key", key), applogger.Error(err))
	}
}

func (h *HistoryLoader) logLoaded(symbol, from string, n int, d time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Info("history loaded",
		applogger.String("symbol", symbol),
		applogger.String("via", from),
		applogger.Int("observations", n),
		applogger.Duration("duration_ms", d),
	)
}

// NewForecastContext builds the immutable forecast state. When params is nil
// the scaler is fit over obs, so obs must be non-empty.
func NewForecastContext(symbol string, obs []models.Observation, window int, params *forecast.ScalerParams, p domsvc.StepPredictor) (*ForecastContext, error) {
	var (
		scaler *forecast.Scaler
		err    error
	)
	if params != nil {
		scaler, err = forecast.NewScaler(*params)
	} else {
		clean := forecast.Dedupe(obs)
		values := make([]float64, len(clean))
		for i, o := range clean {
			values[i] = o.Value
		}
		scaler, err = forecast.FitScaler(values)
	}
	if err != nil {
		return nil, fmt.Errorf("scaler: %w", err)
	}

	series, err := forecast.NewSeriesStore(obs, scaler, window)
	if err != nil {
		return nil, fmt.Errorf("series: %w", err)
	}
	return &ForecastContext{Symbol: symbol, Series: series, Scaler: scaler, Predictor: p}, nil
}
