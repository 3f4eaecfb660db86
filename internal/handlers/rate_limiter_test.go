package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestTokenBucketLimiterRefills(t *testing.T) {
	now := time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC)
	limiter := newTokenBucketLimiter(2, time.Minute, func() time.Time { return now })

	if !limiter.Allow("203.0.113.9") || !limiter.Allow("203.0.113.9") {
		t.Fatalf("expected burst of two to pass")
	}
	if limiter.Allow("203.0.113.9") {
		t.Fatalf("expected third request to be limited")
	}
	if !limiter.Allow("198.51.100.4") {
		t.Fatalf("expected separate bucket per caller")
	}

	now = now.Add(31 * time.Second)
	if !limiter.Allow("203.0.113.9") {
		t.Fatalf("expected a token to refill after half the window")
	}
	if limiter.Allow("203.0.113.9") {
		t.Fatalf("expected only one refilled token")
	}
}

func TestTokenBucketLimiterDisabled(t *testing.T) {
	if newTokenBucketLimiter(0, time.Minute, nil) != nil {
		t.Fatalf("expected nil limiter for zero limit")
	}
}

func TestThrottleMiddleware(t *testing.T) {
	now := time.Date(2025, 5, 4, 9, 0, 0, 0, time.UTC)
	limiter := newTokenBucketLimiter(1, time.Minute, func() time.Time { return now })
	handler := throttleWith(limiter, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/clicks", nil)
	req.RemoteAddr = "203.0.113.9:51000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected first request to pass, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", rec.Header().Get("Retry-After"))
	}

	passthrough := Throttle(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for i := 0; i < 3; i++ {
		rec = httptest.NewRecorder()
		passthrough.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected disabled throttle to pass, got %d", rec.Code)
		}
	}
}
