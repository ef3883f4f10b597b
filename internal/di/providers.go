package di

import (
	"context"
	"fmt"
	"time"

	"PriceCast/internal/domain/repository"
	"PriceCast/internal/domain/service"
	"PriceCast/internal/handler/api"
	internalrepo "PriceCast/internal/repository"
	"PriceCast/internal/service/binance"
	icache "PriceCast/internal/service/cache"
	"PriceCast/internal/service/ratelimit"
	"PriceCast/internal/services/forecast"
	"PriceCast/internal/services/predictor"
	"PriceCast/internal/usecase"
	pkgch "PriceCast/pkg/clickhouse"
	"PriceCast/pkg/config"
	xhttp "PriceCast/pkg/http"
	pkgkafka "PriceCast/pkg/kafka"
	applogger "PriceCast/pkg/logger"
	"PriceCast/pkg/metrics"
	"PriceCast/pkg/server"
	xutil "PriceCast/pkg/util"
)

// historyLoadTimeout bounds the startup history fetch (several paginated calls).
const historyLoadTimeout = 2 * time.Minute

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("service", "pricecast"), applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideBinanceClient creates the Binance REST client.
func ProvideBinanceClient(cfg *config.Config, l *applogger.Logger) *binance.Client {
	c := binance.NewClient(cfg.Binance.BaseURL,
		binance.WithAPIKey(cfg.Binance.APIKey),
		binance.WithRequestTimeout(cfg.Binance.Timeout),
	)
	c.SetLogger(l)
	return c
}

// ProvideCache creates Redis cache when enabled, otherwise an in-process TTL cache.
func ProvideCache(ctx context.Context, cfg *config.Config, l *applogger.Logger) (repository.BytesCache, func(), error) {
	if !cfg.Redis.Enabled {
		return icache.NewTTLCache(), func() {}, nil
	}
	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, err
	}
	l.Info("redis cache ready", applogger.String("addr", cfg.Redis.Addr))
	return rc, func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}, nil
}

// ProvideClickHouseStore connects to ClickHouse when history is read from or
// archived to it. Otherwise it returns nil.
func ProvideClickHouseStore(ctx context.Context, cfg *config.Config, l *applogger.Logger) (*internalrepo.CHHistoryStore, func(), error) {
	if cfg.History.Source != "clickhouse" && !cfg.ClickHouse.Archive {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	store, err := internalrepo.NewCHHistoryStore(client, cfg.ClickHouse.Table)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	store.SetLogger(l)
	if err := client.InitSchema(ctx, store.Schema()); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	l.Info("clickhouse ready", applogger.String("database", client.Database()), applogger.String("table", cfg.ClickHouse.Table))
	return store, cleanup, nil
}

// ProvideHistorySource picks the configured history backend.
func ProvideHistorySource(cfg *config.Config, bc *binance.Client, ch *internalrepo.CHHistoryStore) repository.HistorySource {
	if cfg.History.Source == "clickhouse" && ch != nil {
		return ch
	}
	return bc
}

// ProvideHistoryLoader creates the history loader with cache and optional archive.
func ProvideHistoryLoader(
	cfg *config.Config,
	src repository.HistorySource,
	cache repository.BytesCache,
	ch *internalrepo.CHHistoryStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.HistoryLoader {
	opts := []usecase.HistoryLoaderOption{
		usecase.WithHistoryMetrics(m),
		usecase.WithHistoryLogger(l),
	}
	if cfg.History.CacheTTL > 0 {
		opts = append(opts, usecase.WithHistoryCache(cache, cfg.History.CacheTTL))
	}
	if ch != nil && cfg.ClickHouse.Archive && src.Name() != ch.Name() {
		opts = append(opts, usecase.WithHistoryArchive(ch))
	}
	return usecase.NewHistoryLoader(src, opts...)
}

// ProvideStepPredictor builds the configured model behind a Guard.
func ProvideStepPredictor(cfg *config.Config, m repository.Metrics) (service.StepPredictor, error) {
	var model service.Model
	switch cfg.Model.Type {
	case "linear":
		lm, err := predictor.LoadLinearModel(cfg.Model.Path)
		if err != nil {
			return nil, err
		}
		model = lm
	default:
		model = predictor.NewHTTPModel(cfg.Model.URL, cfg.Model.Timeout)
	}
	return predictor.NewGuard(model, cfg.Forecast.Window, m), nil
}

// ProvideScalerParams loads the scaler artifact, or returns nil to fit on history.
func ProvideScalerParams(cfg *config.Config) (*forecast.ScalerParams, error) {
	if cfg.Model.Scaler == "" {
		return nil, nil
	}
	p, err := forecast.LoadParams(cfg.Model.Scaler)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ProvideForecastContext loads history once and freezes the forecast state.
func ProvideForecastContext(
	ctx context.Context,
	cfg *config.Config,
	loader *usecase.HistoryLoader,
	params *forecast.ScalerParams,
	p service.StepPredictor,
) (*usecase.ForecastContext, error) {
	from, err := xutil.ParseDate(cfg.History.Start)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, historyLoadTimeout)
	defer cancel()

	obs, err := loader.Load(ctx, cfg.Symbol, from)
	if err != nil {
		return nil, err
	}
	return usecase.NewForecastContext(cfg.Symbol, obs, cfg.Forecast.Window, params, p)
}

// ProvideForecaster creates the forecaster use case.
func ProvideForecaster(cfg *config.Config, fc *usecase.ForecastContext, m repository.Metrics, l *applogger.Logger) *usecase.Forecaster {
	opts := []usecase.ForecasterOption{
		usecase.WithForecastMetrics(m),
		usecase.WithForecastLogger(l),
	}
	if cfg.Log.Level == "debug" {
		opts = append(opts, usecase.WithStepObserver(func(step int, window []float64) {
			l.Debug("forecast step", applogger.Int("step", step), applogger.Float64("prediction", window[len(window)-1]))
		}))
	}
	return usecase.NewForecaster(fc, opts...)
}

// ProvideQuotePublisher creates a Kafka quote publisher when Kafka is enabled.
func ProvideQuotePublisher(cfg *config.Config) (repository.QuotePublisher, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithTopic(cfg.Kafka.Topic),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaQuotePublisher(producer), nil
}

// ProvidePriceTracker wires the live price feed for the configured mode.
func ProvidePriceTracker(
	cfg *config.Config,
	bc *binance.Client,
	cache repository.BytesCache,
	pub repository.QuotePublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.PriceTracker {
	opts := []usecase.PriceTrackerOption{
		usecase.WithQuoteCache(cache, 5*time.Minute),
		usecase.WithTrackerMetrics(m),
		usecase.WithTrackerLogger(l),
	}
	if pub != nil {
		opts = append(opts, usecase.WithQuotePublisher(pub))
	}
	switch cfg.PriceFeed.Mode {
	case "stream":
		s := binance.NewStream(cfg.Binance.StreamURL, cfg.Symbol, cfg.Binance.ReconnectDelay, cfg.Binance.PingInterval)
		s.SetLogger(l)
		opts = append(opts, usecase.WithStreamFeed(s))
	case "poll":
		opts = append(opts, usecase.WithPolling(bc, cfg.PriceFeed.Schedule))
	}
	return usecase.NewPriceTracker(cfg.Symbol, opts...)
}

// ProvideRateLimiter creates the per-client forecast rate limiter.
func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.Forecast.RateLimitBurst, cfg.Forecast.RateLimitPerSec)
}

// ProvideHTTPHandler creates the forecast API handler.
func ProvideHTTPHandler(l *applogger.Logger, f *usecase.Forecaster, t *usecase.PriceTracker, rl *ratelimit.Limiter) xhttp.Handler {
	return api.NewForecastEchoHandler(l, f, t, rl)
}

// ProvideHTTPServer creates the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *applogger.Logger) *xhttp.Server {
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, t *usecase.PriceTracker, l *applogger.Logger) *server.App {
	return server.New(cfg, srv, l, t)
}
