package forecast

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ScalerParams are the fitted min/max normalization bounds.
type ScalerParams struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Scaler maps raw values to [0,1] over the fitted range and back. Values outside
// the range extrapolate linearly.
type Scaler struct {
	p     ScalerParams
	scale float64
}

// Fit computes min/max over values. Identical input always yields identical params.
func Fit(values []float64) (ScalerParams, error) {
	if len(values) == 0 {
		return ScalerParams{}, ErrEmptyHistory
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ScalerParams{}, fmt.Errorf("fit scaler: non-finite value %v", v)
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return ScalerParams{Min: lo, Max: hi}, nil
}

// NewScaler builds a scaler from fitted params.
func NewScaler(p ScalerParams) (*Scaler, error) {
	if math.IsNaN(p.Min) || math.IsNaN(p.Max) || math.IsInf(p.Min, 0) || math.IsInf(p.Max, 0) {
		return nil, fmt.Errorf("scaler params must be finite")
	}
	if p.Max <= p.Min {
		return nil, fmt.Errorf("scaler range is degenerate: min=%v max=%v", p.Min, p.Max)
	}
	return &Scaler{p: p, scale: p.Max - p.Min}, nil
}

// FitScaler is Fit followed by NewScaler.
func FitScaler(values []float64) (*Scaler, error) {
	p, err := Fit(values)
	if err != nil {
		return nil, err
	}
	return NewScaler(p)
}

// LoadParams reads a YAML scaler artifact with min and max keys.
func LoadParams(path string) (ScalerParams, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ScalerParams{}, fmt.Errorf("read scaler artifact: %w", err)
	}
	var p ScalerParams
	if err := yaml.Unmarshal(b, &p); err != nil {
		return ScalerParams{}, fmt.Errorf("parse scaler artifact: %w", err)
	}
	return p, nil
}

func (s *Scaler) Params() ScalerParams { return s.p }

func (s *Scaler) Normalize(v float64) float64 {
	return (v - s.p.Min) / s.scale
}

func (s *Scaler) NormalizeAll(vs []float64) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = s.Normalize(v)
	}
	return out
}

// Denormalize is the inverse of Normalize. No clamping.
func (s *Scaler) Denormalize(v float64) float64 {
	return v*s.scale + s.p.Min
}
