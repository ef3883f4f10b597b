package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"PriceCast/internal/domain/models"
	domrepo "PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/services/forecast"
	applogger "PriceCast/pkg/logger"
)

// ForecastContext is the frozen state every forecast runs over. It is built
// once at startup and shared read-only between concurrent callers.
type ForecastContext struct {
	Symbol    string
	Series    *forecast.SeriesStore
	Scaler    *forecast.Scaler
	Predictor domsvc.StepPredictor
}

// StepObserver sees the window after each slide. It must not modify it.
type StepObserver func(step int, window []float64)

// Forecaster runs the autoregressive multi-step forecast.
type Forecaster struct {
	fc       *ForecastContext
	metrics  domrepo.Metrics
	l        *applogger.Logger
	observer StepObserver
}

type ForecasterOption func(*Forecaster)

// WithStepObserver registers an observer called after every step.
func WithStepObserver(o StepObserver) ForecasterOption {
	return func(f *Forecaster) { f.observer = o }
}

// WithForecastMetrics sets the metrics recorder.
func WithForecastMetrics(m domrepo.Metrics) ForecasterOption {
	return func(f *Forecaster) { f.metrics = m }
}

// WithForecastLogger sets the logger.
func WithForecastLogger(l *applogger.Logger) ForecasterOption {
	return func(f *Forecaster) { f.l = l }
}

func NewForecaster(fc *ForecastContext, opts ...ForecasterOption) *Forecaster {
	f := &Forecaster{fc: fc}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Forecast predicts the value at target by repeatedly predicting one day ahead
// and feeding each prediction back into the window. Each call starts from the
// true history and is independent of previous calls.
func (f *Forecaster) Forecast(ctx context.Context, target time.Time) (models.ForecastResult, error) {
	start := time.Now()
	res, err := f.forecast(ctx, target)
	f.record(res, err, time.Since(start))
	return res, err
}

func (f *Forecaster) forecast(ctx context.Context, target time.Time) (models.ForecastResult, error) {
	var res models.ForecastResult

	last, err := f.fc.Series.LastKnownDate()
	if err != nil {
		return res, err
	}
	res.TargetDate = forecast.TruncateDay(target)
	res.LastKnownDate = last

	horizon := forecast.DaysBetween(last, target)
	if horizon <= 0 {
		return res, forecast.ErrTargetNotInFuture
	}
	res.HorizonDays = horizon

	window, err := f.fc.Series.LatestWindow()
	if err != nil {
		return res, err
	}

	var next float64
	for step := 1; step <= horizon; step++ {
		next, err = f.fc.Predictor.PredictNext(ctx, window)
		if err != nil {
			if !errors.Is(err, forecast.ErrModelInvocation) {
				err = fmt.Errorf("%w: %v", forecast.ErrModelInvocation, err)
			}
			return res, fmt.Errorf("step %d/%d: %w", step, horizon, err)
		}
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return res, fmt.Errorf("step %d/%d: %w: %v", step, horizon, forecast.ErrInvalidPrediction, next)
		}
		copy(window, window[1:])
		window[len(window)-1] = next
		if f.observer != nil {
			f.observer(step, window)
		}
	}

	res.Price = f.fc.Scaler.Denormalize(next)
	return res, nil
}

func (f *Forecaster) record(res models.ForecastResult, err error, d time.Duration) {
	outcome := Outcome(err)
	if f.metrics != nil {
		f.metrics.RecordForecast(outcome, res.HorizonDays)
		f.metrics.RecordLatency("forecast", d.Seconds())
	}
	if f.l == nil {
		return
	}
	if err != nil {
		f.l.Warn("forecast failed",
			applogger.Date("target", res.TargetDate),
			applogger.String("outcome", outcome),
			applogger.Int("horizon_days", res.HorizonDays),
			applogger.Error(err),
		)
		return
	}
	f.l.Info("forecast ok",
		applogger.Date("target", res.TargetDate),
		applogger.Int("horizon_days", res.HorizonDays),
		applogger.Float64("price", res.Price),
		applogger.Duration("duration_ms", d),
	)
}

// Summary describes the history and scaler the forecaster is bound to.
func (f *Forecaster) Summary() models.HistorySummary {
	p := f.fc.Scaler.Params()
	last, _ := f.fc.Series.LastKnownDate()
	return models.HistorySummary{
		Symbol:        f.fc.Symbol,
		LastKnownDate: last,
		Observations:  f.fc.Series.Len(),
		Window:        f.fc.Series.Window(),
		ScalerMin:     p.Min,
		ScalerMax:     p.Max,
	}
}

// Outcome classifies a forecast error into a low-cardinality label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, forecast.ErrTargetNotInFuture):
		return "target_not_in_future"
	case errors.Is(err, forecast.ErrEmptyHistory):
		return "empty_history"
	case errors.Is(err, forecast.ErrInsufficientHistory):
		return "insufficient_history"
	case errors.Is(err, forecast.ErrInvalidPrediction):
		return "invalid_prediction"
	case errors.Is(err, forecast.ErrModelInvocation):
		return "model_invocation"
	default:
		return "error"
	}
}
