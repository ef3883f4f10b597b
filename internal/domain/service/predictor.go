package service

import "context"

// StepPredictor maps a fixed-length normalized window to the next normalized value.
type StepPredictor interface {
	PredictNext(ctx context.Context, window []float64) (float64, error)
}

// Model is a raw model runtime. It is wrapped by a guard before use.
type Model interface {
	Name() string
	Predict(ctx context.Context, window []float64) ([]float64, error)
}
