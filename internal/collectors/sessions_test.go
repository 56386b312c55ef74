package collectors

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestSessionPoolRotates(t *testing.T) {
	p := NewSessionPool(PoolConfig{Venue: VenueKalshi, Sessions: 3})
	var got []int
	for i := 0; i < 4; i++ {
		idx, _ := p.pick()
		got = append(got, idx)
	}
	want := []int{0, 1, 2, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pick order = %v, want %v", got, want)
		}
	}
}

func TestGetJSONRetriesRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	p := NewSessionPool(PoolConfig{Venue: VenueKalshi, Sessions: 2, MaxAttempts: 5})
	var out struct {
		OK bool `json:"ok"`
	}
	if err := p.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !out.OK || atomic.LoadInt32(&calls) != 3 {
		t.Fatalf("ok=%v calls=%d", out.OK, calls)
	}
}

func TestGetJSONRateLimitBudget(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := NewSessionPool(PoolConfig{Venue: VenuePolymarket, MaxAttempts: 5})
	err := p.GetJSON(context.Background(), srv.URL, &struct{}{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	if calls != 5 {
		t.Fatalf("expected 5 attempts, got %d", calls)
	}
}

func TestGetJSONNon200Aborts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewSessionPool(PoolConfig{Venue: VenueKalshi})
	err := p.GetJSON(context.Background(), srv.URL, &struct{}{})
	var upErr *UpstreamError
	if !errors.As(err, &upErr) || upErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected UpstreamError 500, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestGetJSONMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	p := NewSessionPool(PoolConfig{Venue: VenueKalshi})
	var upErr *UpstreamError
	if err := p.GetJSON(context.Background(), srv.URL, &struct{}{}); !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}
