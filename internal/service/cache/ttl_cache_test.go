package cache

import (
	"context"
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	if err := c.SetBytes(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, ok, err := c.GetBytes(ctx, "k")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("expected hit, got %q %v %v", b, ok, err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.GetBytes(ctx, "k"); ok {
		t.Fatalf("expected expiry")
	}
}

func TestTTLCacheNoExpiryAndCopies(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache()
	in := []byte("abc")
	_ = c.SetBytes(ctx, "k", in, 0)
	in[0] = 'x'

	b, ok, _ := c.GetBytes(ctx, "k")
	if !ok || string(b) != "abc" {
		t.Fatalf("stored value aliased caller slice: %q", b)
	}
	b[0] = 'y'
	b2, _, _ := c.GetBytes(ctx, "k")
	if string(b2) != "abc" {
		t.Fatalf("returned value aliased cache: %q", b2)
	}
}

func TestKey(t *testing.T) {
	if got := Key("pricecast", "history", "BTCUSDT"); got != "pricecast:history:BTCUSDT" {
		t.Fatalf("got %s", got)
	}
}
