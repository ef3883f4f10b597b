package predictor

import (
	"context"
	"fmt"
	"time"

	domrepo "PriceCast/internal/domain/repository"
	domsvc "PriceCast/internal/domain/service"
	"PriceCast/internal/services/forecast"
)

// Guard adapts a raw Model to the StepPredictor contract. It checks the input
// length, requires exactly one output value and wraps every failure in
// forecast.ErrModelInvocation. Finiteness is left to the forecaster.
type Guard struct {
	model   domsvc.Model
	window  int
	metrics domrepo.Metrics
}

// NewGuard wraps model for windows of exactly window values.
func NewGuard(model domsvc.Model, window int, metrics domrepo.Metrics) *Guard {
	return &Guard{model: model, window: window, metrics: metrics}
}

func (g *Guard) PredictNext(ctx context.Context, window []float64) (float64, error) {
	if len(window) != g.window {
		return 0, fmt.Errorf("%w: window has %d values, model expects %d", forecast.ErrModelInvocation, len(window), g.window)
	}
	start := time.Now()
	out, err := g.model.Predict(ctx, window)
	if g.metrics != nil {
		g.metrics.RecordModelLatency(g.model.Name(), time.Since(start).Seconds())
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", forecast.ErrModelInvocation, g.model.Name(), err)
	}
	if len(out) != 1 {
		return 0, fmt.Errorf("%w: %s returned %d values, want 1", forecast.ErrModelInvocation, g.model.Name(), len(out))
	}
	return out[0], nil
}

var _ domsvc.StepPredictor = (*Guard)(nil)
