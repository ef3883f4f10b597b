package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewWithRegistry(reg)

	r.RecordForecast("ok", 10)
	r.RecordForecast("ok", 1)
	r.RecordForecast("target_not_in_future", 0)
	r.RecordLastPrice("BTCUSDT", 43000.5)
	r.RecordError("stream")

	if got := testutil.ToFloat64(r.forecasts.WithLabelValues("ok")); got != 2 {
		t.Fatalf("expected 2 ok forecasts, got %v", got)
	}
	if got := testutil.ToFloat64(r.lastPrice.WithLabelValues("BTCUSDT")); got != 43000.5 {
		t.Fatalf("unexpected last price %v", got)
	}
	if got := testutil.CollectAndCount(r.horizon); got != 1 {
		t.Fatalf("expected one horizon histogram, got %d", got)
	}
	if got := testutil.ToFloat64(r.errorsTotal.WithLabelValues("stream")); got != 1 {
		t.Fatalf("expected 1 stream error, got %v", got)
	}
}
