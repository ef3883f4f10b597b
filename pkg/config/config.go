package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	xutil "PriceCast/pkg/util"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Symbol      string `yaml:"symbol" default:"BTCUSDT"`
	Log         struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Server struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold"`
	} `yaml:"server"`
	Forecast struct {
		Window          int     `yaml:"window" default:"30"`
		RateLimitBurst  float64 `yaml:"rate_limit_burst" default:"10"`  // bucket capacity per client
		RateLimitPerSec float64 `yaml:"rate_limit_per_sec" default:"2"` // refill rate per client
	} `yaml:"forecast"`
	History struct {
		Source   string        `yaml:"source" default:"binance"`   // binance | clickhouse
		Start    string        `yaml:"start" default:"2017-01-01"` // YYYY-MM-DD
		CacheTTL time.Duration `yaml:"cache_ttl"`
	} `yaml:"history"`
	Model struct {
		Type    string        `yaml:"type" default:"http"` // http | linear
		URL     string        `yaml:"url"`
		Path    string        `yaml:"path"`
		Timeout time.Duration `yaml:"timeout"`
		Scaler  string        `yaml:"scaler_path"`
	} `yaml:"model"`
	Binance struct {
		BaseURL        string        `yaml:"base_url" default:"https://api.binance.com"`
		StreamURL      string        `yaml:"stream_url" default:"wss://stream.binance.com:9443/ws"`
		APIKey         string        `yaml:"api_key"`
		Timeout        time.Duration `yaml:"timeout"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay" default:"5s"`
		PingInterval   time.Duration `yaml:"ping_interval" default:"30s"`
	} `yaml:"binance"`
	PriceFeed struct {
		Mode     string `yaml:"mode" default:"poll"`           // stream | poll | off
		Schedule string `yaml:"schedule" default:"@every 30s"` // cron spec for poll mode
	} `yaml:"price_feed"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table" default:"daily_closes"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
		Archive          bool          `yaml:"archive"` // write fetched history back
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"pricecast"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML, fills defaults and validates.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads an optional .env file, then the YAML config, then applies
// environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Binance.APIKey = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		c.Symbol = v
	}
	if v := os.Getenv("HISTORY_SOURCE"); v != "" {
		c.History.Source = v
	}
	if v := os.Getenv("MODEL_URL"); v != "" {
		c.Model.URL = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("FORECAST_WINDOW"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FORECAST_WINDOW: %w", err)
		}
		c.Forecast.Window = n
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.Forecast.Window < 1 {
		return fmt.Errorf("forecast.window must be >= 1, got %d", c.Forecast.Window)
	}
	switch c.History.Source {
	case "binance", "clickhouse":
	default:
		return fmt.Errorf("history.source must be 'binance' or 'clickhouse', got '%s'", c.History.Source)
	}
	if _, err := xutil.ParseDate(c.History.Start); err != nil {
		return fmt.Errorf("history.start: %w", err)
	}
	switch c.Model.Type {
	case "http":
		if c.Model.URL == "" {
			return fmt.Errorf("model.url is required for http model")
		}
	case "linear":
		if c.Model.Path == "" {
			return fmt.Errorf("model.path is required for linear model")
		}
	default:
		return fmt.Errorf("model.type must be 'http' or 'linear', got '%s'", c.Model.Type)
	}
	switch c.PriceFeed.Mode {
	case "stream", "poll", "off":
	default:
		return fmt.Errorf("price_feed.mode must be 'stream', 'poll' or 'off', got '%s'", c.PriceFeed.Mode)
	}
	if (c.History.Source == "clickhouse" || c.ClickHouse.Archive) && c.ClickHouse.Host == "" {
		return fmt.Errorf("clickhouse.host is required when reading or archiving history in clickhouse")
	}
	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("kafka.brokers and kafka.topic are required when kafka is enabled")
	}
	return nil
}
