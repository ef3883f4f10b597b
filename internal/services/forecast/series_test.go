package forecast

import (
	"errors"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dailySeries(start time.Time, n int) []models.Observation {
	out := make([]models.Observation, n)
	for i := 0; i < n; i++ {
		out[i] = models.Observation{Date: start.AddDate(0, 0, i), Value: 100 + float64(i)}
	}
	return out
}

func TestDedupeSortsAndCollapses(t *testing.T) {
	in := []models.Observation{
		{Date: day(2024, 1, 3), Value: 3},
		{Date: day(2024, 1, 1).Add(15 * time.Hour), Value: 1},
		{Date: day(2024, 1, 2), Value: 2},
		{Date: day(2024, 1, 1), Value: 11},
	}
	out := Dedupe(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 observations, got %d", len(out))
	}
	if !out[0].Date.Equal(day(2024, 1, 1)) || out[0].Value != 11 {
		t.Fatalf("unexpected first observation %+v", out[0])
	}
	for i := 1; i < len(out); i++ {
		if !out[i].Date.After(out[i-1].Date) {
			t.Fatalf("not strictly ascending at %d", i)
		}
	}
}

func TestLatestWindow(t *testing.T) {
	obs := dailySeries(day(2024, 1, 1), 40)
	s, _ := NewScaler(ScalerParams{Min: 100, Max: 139})
	store, err := NewSeriesStore(obs, s, 30)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	w, err := store.LatestWindow()
	if err != nil {
		t.Fatalf("latest window: %v", err)
	}
	if len(w) != 30 {
		t.Fatalf("expected 30 values, got %d", len(w))
	}
	if w[len(w)-1] != 1 {
		t.Fatalf("expected last normalized value 1, got %v", w[len(w)-1])
	}
	w[0] = -99
	w2, _ := store.LatestWindow()
	if w2[0] == -99 {
		t.Fatalf("window must be a private copy")
	}
	last, err := store.LastKnownDate()
	if err != nil || !last.Equal(day(2024, 2, 9)) {
		t.Fatalf("unexpected last date %v (%v)", last, err)
	}
}

func TestLatestWindowInsufficient(t *testing.T) {
	s, _ := NewScaler(ScalerParams{Min: 0, Max: 1000})
	store, _ := NewSeriesStore(dailySeries(day(2024, 1, 1), 29), s, 30)
	if _, err := store.LatestWindow(); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
}

func TestEmptyHistory(t *testing.T) {
	s, _ := NewScaler(ScalerParams{Min: 0, Max: 1})
	store, _ := NewSeriesStore(nil, s, 30)
	if _, err := store.LatestWindow(); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
	if _, err := store.LastKnownDate(); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		a, b time.Time
		want int
	}{
		{day(2024, 1, 10), day(2024, 1, 11), 1},
		{day(2024, 1, 10), day(2024, 1, 20), 10},
		{day(2024, 1, 10), day(2024, 1, 10).Add(23 * time.Hour), 0},
		{day(2024, 1, 10), day(2024, 1, 5), -5},
		{day(2024, 2, 28), day(2024, 3, 1), 2},
		{day(2024, 1, 10), day(2400, 1, 10), 137331},
		{day(2024, 1, 10), day(9999, 12, 31), 2913164},
		{day(2400, 1, 10), day(2024, 1, 10), -137331},
	}
	for _, c := range cases {
		if got := DaysBetween(c.a, c.b); got != c.want {
			t.Errorf("DaysBetween(%v,%v)=%d want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestObservationsAndValuesAreCopies(t *testing.T) {
	sc, err := NewScaler(ScalerParams{Min: 0, Max: 200})
	if err != nil {
		t.Fatalf("scaler: %v", err)
	}
	s, err := NewSeriesStore(dailySeries(day(2024, 1, 1), 3), sc, 2)
	if err != nil {
		t.Fatalf("series: %v", err)
	}

	obs := s.Observations()
	if len(obs) != 3 || obs[2].Value != 102 {
		t.Fatalf("unexpected observations %v", obs)
	}
	obs[2].Value = -1

	vals := s.Values()
	if len(vals) != 3 || vals[0] != 100 || vals[2] != 102 {
		t.Fatalf("stored history changed through Observations: %v", vals)
	}
	vals[0] = -1
	if again := s.Values(); again[0] != 100 {
		t.Fatalf("stored history changed through Values: %v", again)
	}

	w, err := s.LatestWindow()
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if w[1] != 0.51 {
		t.Fatalf("normalized window changed: %v", w)
	}
}
