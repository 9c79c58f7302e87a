package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func rateLimitedRequest(e *echo.Echo, h echo.HandlerFunc, remoteAddr string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	return rec, h(e.NewContext(req, rec))
}

func TestRateLimit_RequestsWithinBurst(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 5; i++ {
		rec, err := rateLimitedRequest(e, h, "10.0.0.1:1234")
		if err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for i := 0; i < 2; i++ {
		if _, err := rateLimitedRequest(e, h, "10.0.0.1:1234"); err != nil {
			t.Fatalf("request %d: expected no error, got %v", i+1, err)
		}
	}

	rec, err := rateLimitedRequest(e, h, "10.0.0.1:1234")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", httpErr.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("expected Retry-After 1, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("expected X-RateLimit-Remaining 0, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if _, err := rateLimitedRequest(e, h, "10.0.0.1:1234"); err != nil {
		t.Fatalf("client a first request: %v", err)
	}
	if _, err := rateLimitedRequest(e, h, "10.0.0.1:1234"); err == nil {
		t.Fatal("client a second request: expected rate limit error")
	}
	if _, err := rateLimitedRequest(e, h, "10.0.0.2:1234"); err != nil {
		t.Fatalf("client b first request: %v", err)
	}
}

func TestLimiterStore_EvictsIdleClients(t *testing.T) {
	store := newLimiterStore(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, IdleTTL: time.Minute})
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	store.lastSweep = now

	first := store.get("a")
	if store.get("a") != first {
		t.Error("expected the same limiter for the same key")
	}
	store.get("b")
	if store.size() != 2 {
		t.Fatalf("expected 2 clients, got %d", store.size())
	}

	now = now.Add(2 * time.Minute)
	store.get("c")
	if store.size() != 1 {
		t.Errorf("expected idle clients to be evicted, got %d", store.size())
	}
}

func TestRateLimit_DefaultConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 50 || cfg.BurstSize != 100 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
