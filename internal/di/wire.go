//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"PriceCast/pkg/config"
	"PriceCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(ctx context.Context, cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideBinanceClient,
		ProvideCache,
		ProvideClickHouseStore,
		ProvideQuotePublisher,

		// Forecast core
		ProvideHistorySource,
		ProvideHistoryLoader,
		ProvideStepPredictor,
		ProvideScalerParams,
		ProvideForecastContext,
		ProvideForecaster,

		// Live price
		ProvidePriceTracker,

		// HTTP
		ProvideRateLimiter,
		ProvideHTTPHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}
