package forecast

import (
	"fmt"
	"sort"
	"time"

	"PriceCast/internal/domain/models"
)

// SeriesStore holds an ordered, deduplicated daily history and its
// normalized values. It is read-only after construction.
type SeriesStore struct {
	obs        []models.Observation
	normalized []float64
	window     int
}

// NewSeriesStore sorts observations by day, collapses duplicate days (the
// last value wins) and normalizes every value with scaler.
func NewSeriesStore(obs []models.Observation, scaler *Scaler, window int) (*SeriesStore, error) {
	if window <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d", window)
	}
	if scaler == nil {
		return nil, fmt.Errorf("scaler is nil")
	}
	clean := Dedupe(obs)
	values := make([]float64, len(clean))
	for i, o := range clean {
		values[i] = o.Value
	}
	return &SeriesStore{
		obs:        clean,
		normalized: scaler.NormalizeAll(values),
		window:     window,
	}, nil
}

// Dedupe returns a copy of obs truncated to UTC days, sorted ascending with one
// entry per day. For repeated days the later entry in the input wins.
func Dedupe(obs []models.Observation) []models.Observation {
	byDay := make(map[time.Time]int, len(obs))
	out := make([]models.Observation, 0, len(obs))
	for _, o := range obs {
		d := TruncateDay(o.Date)
		if i, ok := byDay[d]; ok {
			out[i].Value = o.Value
			continue
		}
		byDay[d] = len(out)
		out = append(out, models.Observation{Date: d, Value: o.Value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// LatestWindow returns a fresh copy of the last W normalized values.
func (s *SeriesStore) LatestWindow() ([]float64, error) {
	if len(s.normalized) == 0 {
		return nil, ErrEmptyHistory
	}
	if len(s.normalized) < s.window {
		return nil, fmt.Errorf("%w: have %d observations, need %d", ErrInsufficientHistory, len(s.normalized), s.window)
	}
	w := make([]float64, s.window)
	copy(w, s.normalized[len(s.normalized)-s.window:])
	return w, nil
}

// LastKnownDate returns the day of the most recent observation.
func (s *SeriesStore) LastKnownDate() (time.Time, error) {
	if len(s.obs) == 0 {
		return time.Time{}, ErrEmptyHistory
	}
	return s.obs[len(s.obs)-1].Date, nil
}

func (s *SeriesStore) Len() int    { return len(s.obs) }
func (s *SeriesStore) Window() int { return s.window }

// Observations returns a copy of the stored history.
func (s *SeriesStore) Observations() []models.Observation {
	out := make([]models.Observation, len(s.obs))
	copy(out, s.obs)
	return out
}

// Values returns a copy of the raw values, oldest first.
func (s *SeriesStore) Values() []float64 {
	out := make([]float64, len(s.obs))
	for i, o := range s.obs {
		out[i] = o.Value
	}
	return out
}

// TruncateDay drops the time of day and returns midnight UTC of t's UTC date.
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole calendar days from a to b (negative if b is before a).
// It works on Unix seconds because time.Duration saturates after ~292 years.
func DaysBetween(a, b time.Time) int {
	return int((TruncateDay(b).Unix() - TruncateDay(a).Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60
