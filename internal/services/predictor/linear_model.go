package predictor

import (
	"context"
	"fmt"
	"os"

	domsvc "PriceCast/internal/domain/service"

	"gopkg.in/yaml.v3"
)

// LinearModel is an autoregressive linear model: y = bias + sum(w[i] * x[i]).
// Weights are ordered oldest first, matching the window.
type LinearModel struct {
	Weights []float64 `yaml:"weights"`
	Bias    float64   `yaml:"bias"`
}

// LoadLinearModel reads a YAML artifact with weights and bias.
func LoadLinearModel(path string) (*LinearModel, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var m LinearModel
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse model artifact: %w", err)
	}
	if len(m.Weights) == 0 {
		return nil, fmt.Errorf("model artifact has no weights")
	}
	return &m, nil
}

func (m *LinearModel) Name() string { return "linear" }

func (m *LinearModel) Predict(_ context.Context, window []float64) ([]float64, error) {
	if len(window) != len(m.Weights) {
		return nil, fmt.Errorf("input shape (%d) does not match weights (%d)", len(window), len(m.Weights))
	}
	y := m.Bias
	for i, x := range window {
		y += m.Weights[i] * x
	}
	return []float64{y}, nil
}

var _ domsvc.Model = (*LinearModel)(nil)
