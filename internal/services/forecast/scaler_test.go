package forecast

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestFitDeterministic(t *testing.T) {
	vals := []float64{42000.5, 39000, 45500.25, 41000}
	p1, err := Fit(vals)
	if err != nil {
		t.Fatalf("fit: %v", err)
	}
	p2, _ := Fit(vals)
	if p1 != p2 {
		t.Fatalf("fit not idempotent: %+v vs %+v", p1, p2)
	}
	if p1.Min != 39000 || p1.Max != 45500.25 {
		t.Fatalf("unexpected params %+v", p1)
	}
}

func TestFitEmpty(t *testing.T) {
	if _, err := Fit(nil); !errors.Is(err, ErrEmptyHistory) {
		t.Fatalf("expected ErrEmptyHistory, got %v", err)
	}
}

func TestFitRejectsNaN(t *testing.T) {
	if _, err := Fit([]float64{1, math.NaN(), 3}); err == nil {
		t.Fatalf("expected error for NaN input")
	}
}

func TestNewScalerDegenerate(t *testing.T) {
	if _, err := NewScaler(ScalerParams{Min: 5, Max: 5}); err == nil {
		t.Fatalf("expected error for flat range")
	}
}

func TestRoundTrip(t *testing.T) {
	vals := []float64{3100.17, 16500, 28999.99, 45000.01, 69000, 12345.678}
	s, err := FitScaler(vals)
	if err != nil {
		t.Fatalf("fit scaler: %v", err)
	}
	for _, v := range vals {
		n := s.Normalize(v)
		if n < 0 || n > 1 {
			t.Errorf("normalize(%v)=%v outside [0,1]", v, n)
		}
		if got := s.Denormalize(n); math.Abs(got-v) > 1e-9 {
			t.Errorf("round trip %v -> %v", v, got)
		}
	}
	for i := 0; i <= 100; i++ {
		v := 3100.17 + float64(i)*(69000-3100.17)/100
		if got := s.Denormalize(s.Normalize(v)); math.Abs(got-v) > 1e-9 {
			t.Errorf("round trip %v -> %v", v, got)
		}
	}
}

func TestDenormalizeExtrapolates(t *testing.T) {
	s, _ := NewScaler(ScalerParams{Min: 100, Max: 200})
	if got := s.Denormalize(1.5); got != 250 {
		t.Fatalf("expected 250, got %v", got)
	}
	if got := s.Denormalize(-0.5); got != 50 {
		t.Fatalf("expected 50, got %v", got)
	}
	if got := s.Normalize(300); got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
}

func TestLoadParams(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scaler.yaml")
	if err := os.WriteFile(path, []byte("min: 3189.02\nmax: 73083.5\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := LoadParams(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Min != 3189.02 || p.Max != 73083.5 {
		t.Fatalf("unexpected params %+v", p)
	}
}
