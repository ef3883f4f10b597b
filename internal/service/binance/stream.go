package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"PriceCast/internal/domain/models"
	drepo "PriceCast/internal/domain/repository"
	applogger "PriceCast/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream is a PriceFeed backed by the Binance <symbol>@miniTicker websocket.
type Stream struct {
	url            string
	symbol         string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	l              *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
}

// NewStream builds a stream for symbol against baseURL (e.g. wss://stream.binance.com:9443/ws).
func NewStream(baseURL, symbol string, reconnectDelay, pingInterval time.Duration) *Stream {
	return &Stream{
		url:            strings.TrimRight(baseURL, "/") + "/" + strings.ToLower(symbol) + "@miniTicker",
		symbol:         strings.ToUpper(symbol),
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

func (s *Stream) SetLogger(l *applogger.Logger) { s.l = l }

// Connect dials the websocket.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return fmt.Errorf("binance stream connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	if s.l != nil {
		s.l.Info("binance stream connected", applogger.String("url", s.url))
	}
	return nil
}

type miniTicker struct {
	Event     string `json:"e"`
	EventTime int64  `json:"E"` // ms
	Symbol    string `json:"s"`
	Close     string `json:"c"`
}

// Read streams quotes until ctx is done or the connection fails. The error
// channel receives at most one error and both channels close on exit.
func (s *Stream) Read(ctx context.Context) (<-chan models.PriceQuote, <-chan error) {
	quotes := make(chan models.PriceQuote, 64)
	errs := make(chan error, 1)

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		errs <- fmt.Errorf("binance stream not connected")
		close(quotes)
		close(errs)
		return quotes, errs
	}

	done := make(chan struct{})
	go s.pingLoop(ctx, conn, done)

	go func() {
		defer close(quotes)
		defer close(errs)
		defer close(done)

		// Unblock ReadMessage on cancellation.
		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		defer stop()

		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("binance stream read: %w", err)
				}
				return
			}
			q, ok := parseMiniTicker(b)
			if !ok {
				continue
			}
			select {
			case quotes <- q:
			default:
				// Drop on backpressure; the next tick supersedes it.
			}
		}
	}()

	return quotes, errs
}

func (s *Stream) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	if s.pingInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		}
	}
}

func parseMiniTicker(b []byte) (models.PriceQuote, bool) {
	var m miniTicker
	if err := json.Unmarshal(b, &m); err != nil || m.Event != "24hrMiniTicker" {
		return models.PriceQuote{}, false
	}
	p, err := strconv.ParseFloat(m.Close, 64)
	if err != nil {
		return models.PriceQuote{}, false
	}
	return models.PriceQuote{
		Symbol:    m.Symbol,
		Price:     p,
		UpdatedAt: time.UnixMilli(m.EventTime).UTC(),
		Source:    "stream",
	}, true
}

// Reconnect closes the connection, waits reconnectDelay and dials again.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	return s.Connect(ctx)
}

// Close closes the websocket connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

var _ drepo.PriceFeed = (*Stream)(nil)
