package ratelimit

import (
	"fmt"
	"testing"
	"time"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	if !l.Allow("a") || !l.Allow("a") {
		t.Fatalf("expected burst of 2")
	}
	if l.Allow("a") {
		t.Fatalf("expected third call to be limited")
	}
	if !l.Allow("b") {
		t.Fatalf("keys must not share buckets")
	}

	now = now.Add(time.Second)
	if !l.Allow("a") {
		t.Fatalf("expected refill after 1s")
	}
	if l.Allow("a") {
		t.Fatalf("expected single token refill")
	}
}

func TestLimiterEvictsIdleBuckets(t *testing.T) {
	now := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	l := New(2, 1) // a drained bucket is full again after 2s
	l.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		l.Allow(fmt.Sprintf("10.0.0.%d", i))
	}
	l.Allow("busy")
	l.Allow("busy")
	if got := l.Len(); got != 101 {
		t.Fatalf("expected 101 tracked keys, got %d", got)
	}

	now = now.Add(time.Second)
	l.Allow("busy")
	if got := l.Len(); got != 101 {
		t.Fatalf("keys evicted before idle period: %d", got)
	}

	now = now.Add(2 * time.Second)
	if !l.Allow("busy") {
		t.Fatalf("busy key should have refilled")
	}
	if got := l.Len(); got != 1 {
		t.Fatalf("expected only the recent key to remain, got %d", got)
	}
	if !l.Allow("10.0.0.1") || !l.Allow("10.0.0.1") {
		t.Fatalf("evicted key must start with a full bucket")
	}
}
