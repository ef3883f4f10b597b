package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
	"PriceCast/internal/service/cache"
	"PriceCast/internal/services/forecast"
)

type fakeSource struct {
	obs   []models.Observation
	err   error
	calls int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) DailyCloses(_ context.Context, _ string, _ time.Time) ([]models.Observation, error) {
	f.calls++
	return f.obs, f.err
}

type fakeArchive struct {
	saved []models.Observation
}

func (a *fakeArchive) SaveDailyCloses(_ context.Context, _ string, obs []models.Observation) error {
	a.saved = append(a.saved, obs...)
	return nil
}

func dailyObs(n int, last time.Time) []models.Observation {
	out := make([]models.Observation, n)
	for i := range out {
		out[i] = models.Observation{Date: last.AddDate(0, 0, i-n+1), Value: 100 + float64(i)}
	}
	return out
}

func TestHistoryLoaderCachesAndArchives(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{obs: dailyObs(40, date(2024, 1, 10))}
	arch := &fakeArchive{}
	h := NewHistoryLoader(src, WithHistoryCache(cache.NewTTLCache(), time.Hour), WithHistoryArchive(arch))

	first, err := h.Load(ctx, "BTCUSDT", date(2017, 1, 1))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	second, err := h.Load(ctx, "BTCUSDT", date(2017, 1, 1))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("expected source hit once, got %d", src.calls)
	}
	if len(first) != 40 || len(second) != 40 {
		t.Fatalf("unexpected lengths %d %d", len(first), len(second))
	}
	if !second[39].Date.Equal(date(2024, 1, 10)) || second[39].Value != first[39].Value {
		t.Fatalf("cached history differs: %+v vs %+v", second[39], first[39])
	}
	if len(arch.saved) != 40 {
		t.Fatalf("expected archive of 40, got %d", len(arch.saved))
	}
}

func TestHistoryLoaderSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("exchange down")}
	if _, err := NewHistoryLoader(src).Load(context.Background(), "BTCUSDT", date(2017, 1, 1)); err == nil {
		t.Fatalf("expected error")
	}
}

func TestNewForecastContextFitsScaler(t *testing.T) {
	obs := dailyObs(35, date(2024, 1, 10))
	fc, err := NewForecastContext("BTCUSDT", obs, testWindow, nil, &stubPredictor{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if p := fc.Scaler.Params(); p.Min != 100 || p.Max != 134 {
		t.Fatalf("unexpected params %+v", p)
	}
	if fc.Series.Len() != 35 {
		t.Fatalf("len %d", fc.Series.Len())
	}
}

func TestNewForecastContextWithArtifact(t *testing.T) {
	params := &forecast.ScalerParams{Min: 0, Max: 1000}
	fc, err := NewForecastContext("BTCUSDT", nil, testWindow, params, &stubPredictor{})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := NewForecaster(fc).Forecast(context.Background(), date(2024, 1, 11)); !errors.Is(err, forecast.ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
}

func TestNewForecastContextEmptyHistoryWithoutArtifact(t *testing.T) {
	if _, err := NewForecastContext("BTCUSDT", nil, testWindow, nil, &stubPredictor{}); !errors.Is(err, forecast.ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
}
