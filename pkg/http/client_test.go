package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientGetJSONWithBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbol"); got != "BTCUSDT" {
			t.Errorf("unexpected symbol %q", got)
		}
		if got := r.Header.Get("X-Test"); got != "yes" {
			t.Errorf("missing default header, got %q", got)
		}
		_, _ = w.Write([]byte(`{"price":"42000.5"}`))
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL+"/"), WithHeader("X-Test", "yes"), WithTimeout(time.Second))
	var out struct {
		Price string `json:"price"`
	}
	if err := c.GetJSON(context.Background(), "/api/v3/ticker/price", map[string][]string{"symbol": {"BTCUSDT"}}, &out); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Price != "42000.5" {
		t.Fatalf("got %q", out.Price)
	}
}

func TestClientPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		var in map[string]int
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]int{"sum": in["a"] + in["b"]})
	}))
	defer srv.Close()

	var out map[string]int
	if err := NewClient().PostJSON(context.Background(), srv.URL, map[string]int{"a": 1, "b": 2}, &out); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out["sum"] != 3 {
		t.Fatalf("got %v", out)
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down\n"))
	}))
	defer srv.Close()

	err := NewClient().GetJSON(context.Background(), srv.URL, nil, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if se.Code != http.StatusTooManyRequests || se.Body != "slow down" {
		t.Fatalf("unexpected %+v", se)
	}
}
