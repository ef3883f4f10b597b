package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestProducerPublishJSON(t *testing.T) {
	w := &fakeWriter{}
	reg := prometheus.NewRegistry()
	p := newProducer(w, "pricecast.quotes", "gzip", reg)

	if err := p.Publish(context.Background(), []byte("BTCUSDT"), map[string]float64{"price": 1.5}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "BTCUSDT" || string(w.msgs[0].Value) != `{"price":1.5}` {
		t.Fatalf("unexpected message %q=%q", w.msgs[0].Key, w.msgs[0].Value)
	}
	if got := testutil.ToFloat64(p.metrics.msgs.WithLabelValues("pricecast.quotes", "gzip", "ok")); got != 1 {
		t.Fatalf("expected ok counter 1, got %v", got)
	}
}

func TestProducerPublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newProducer(w, "t", "none", prometheus.NewRegistry())
	if err := p.Publish(context.Background(), nil, "x"); err == nil {
		t.Fatalf("expected error")
	}
	if got := testutil.ToFloat64(p.metrics.msgs.WithLabelValues("t", "none", "error")); got != 1 {
		t.Fatalf("expected error counter 1, got %v", got)
	}
}

func TestNewProducerValidation(t *testing.T) {
	if _, err := NewProducer(WithTopic("t")); err == nil {
		t.Fatalf("expected error without brokers")
	}
	if _, err := NewProducer(WithBrokers([]string{"localhost:9092"})); err == nil {
		t.Fatalf("expected error without topic")
	}
	if _, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithTopic("t"), WithCompression("brotli")); err == nil {
		t.Fatalf("expected error for unknown compression")
	}
}
