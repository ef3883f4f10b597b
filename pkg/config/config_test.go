package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimal = `
environment: test
model:
  type: http
  url: http://localhost:8501/v1/models/lstm:predict
`

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Forecast.Window != 30 {
		t.Fatalf("expected default window 30, got %d", c.Forecast.Window)
	}
	if c.Symbol != "BTCUSDT" || c.History.Source != "binance" || c.History.Start != "2017-01-01" {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.PriceFeed.Mode != "poll" || c.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if c.Binance.ReconnectDelay != 5*time.Second || c.Binance.PingInterval != 30*time.Second {
		t.Fatalf("unexpected binance defaults %+v", c.Binance)
	}
	if c.Forecast.RateLimitBurst != 10 || c.Forecast.RateLimitPerSec != 2 {
		t.Fatalf("unexpected rate limit defaults %+v", c.Forecast)
	}
	if c.PriceFeed.Schedule != "@every 30s" || c.ClickHouse.Table != "daily_closes" || c.Redis.Prefix != "pricecast" {
		t.Fatalf("unexpected defaults %+v", c)
	}
}

func TestParseKeepsExplicitValues(t *testing.T) {
	y := minimal + `
symbol: ETHUSDT
forecast:
  window: 60
  rate_limit_per_sec: 0.5
binance:
  reconnect_delay: 1s
price_feed:
  mode: "off"
`
	c, err := Parse([]byte(y))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Symbol != "ETHUSDT" || c.Forecast.Window != 60 || c.Forecast.RateLimitPerSec != 0.5 {
		t.Fatalf("explicit values overwritten: %+v", c)
	}
	if c.Binance.ReconnectDelay != time.Second || c.PriceFeed.Mode != "off" {
		t.Fatalf("explicit values overwritten: %+v", c)
	}
	if c.Forecast.RateLimitBurst != 10 {
		t.Fatalf("expected default burst beside explicit refill, got %v", c.Forecast.RateLimitBurst)
	}
}

func TestValidateErrors(t *testing.T) {
	cases := map[string]string{
		"no environment": "model: {type: linear, path: m.yaml}",
		"bad source":     "environment: t\nhistory: {source: mongo}\nmodel: {type: linear, path: m.yaml}",
		"bad model":      "environment: t\nmodel: {type: onnx}",
		"http no url":    "environment: t\nmodel: {type: http}",
		"bad start":      "environment: t\nhistory: {start: 01/01/2017}\nmodel: {type: linear, path: m.yaml}",
		"bad feed":       "environment: t\nprice_feed: {mode: push}\nmodel: {type: linear, path: m.yaml}",
		"clickhouse":     "environment: t\nhistory: {source: clickhouse}\nmodel: {type: linear, path: m.yaml}",
		"kafka":          "environment: t\nkafka: {enabled: true}\nmodel: {type: linear, path: m.yaml}",
		"neg window":     "environment: t\nforecast: {window: -1}\nmodel: {type: linear, path: m.yaml}",
	}
	for name, y := range cases {
		if _, err := Parse([]byte(y)); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimal), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("FORECAST_WINDOW", "60")
	t.Setenv("SYMBOL", "ETHUSDT")
	t.Setenv("MODEL_URL", "http://model:8501/predict")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Forecast.Window != 60 || c.Symbol != "ETHUSDT" || c.Model.URL != "http://model:8501/predict" {
		t.Fatalf("env overrides not applied: %+v", c)
	}
	if len(c.Kafka.Brokers) != 2 {
		t.Fatalf("expected 2 brokers, got %v", c.Kafka.Brokers)
	}
}

func TestLoadWithEnvBadWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	_ = os.WriteFile(path, []byte(minimal), 0o644)
	t.Setenv("FORECAST_WINDOW", "thirty")
	if _, err := LoadWithEnv(path); err == nil {
		t.Fatalf("expected error")
	}
}
