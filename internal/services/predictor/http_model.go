package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domsvc "PriceCast/internal/domain/service"
	xhttp "PriceCast/pkg/http"
)

// HTTPModel calls a TensorFlow Serving style REST predict endpoint. The window
// is sent as a single instance of shape (W, 1).
type HTTPModel struct {
	url    string
	client *xhttp.Client
}

// NewHTTPModel builds a model client for url with the given timeout.
func NewHTTPModel(url string, timeout time.Duration) *HTTPModel {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPModel{url: url, client: xhttp.NewClient(xhttp.WithTimeout(timeout))}
}

type predictReq struct {
	Instances [][][]float64 `json:"instances"`
}

type predictResp struct {
	Predictions json.RawMessage `json:"predictions"`
	Error       string          `json:"error,omitempty"`
}

func (m *HTTPModel) Name() string { return "http" }

func (m *HTTPModel) Predict(ctx context.Context, window []float64) ([]float64, error) {
	if m.url == "" {
		return nil, fmt.Errorf("model url not configured")
	}
	inst := make([][]float64, len(window))
	for i, v := range window {
		inst[i] = []float64{v}
	}
	var resp predictResp
	if err := m.client.PostJSON(ctx, m.url, predictReq{Instances: [][][]float64{inst}}, &resp); err != nil {
		return nil, fmt.Errorf("post predict: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("model error: %s", resp.Error)
	}
	return flattenPredictions(resp.Predictions)
}

// flattenPredictions accepts [[y]] or [y] and returns the values of the first instance.
func flattenPredictions(raw json.RawMessage) ([]float64, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("response has no predictions")
	}
	var nested [][]float64
	if err := json.Unmarshal(raw, &nested); err == nil {
		if len(nested) != 1 {
			return nil, fmt.Errorf("expected 1 prediction instance, got %d", len(nested))
		}
		return nested[0], nil
	}
	var flat []float64
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("decode predictions: %w", err)
	}
	return flat, nil
}

var _ domsvc.Model = (*HTTPModel)(nil)
