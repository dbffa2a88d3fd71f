package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimiterExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2)

	if !rl.Allow("10.0.0.1") {
		t.Fatalf("first request should pass")
	}
	if !rl.Allow("10.0.0.1") {
		t.Fatalf("second request should pass within burst")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("third request should be throttled")
	}
}

func TestRateLimiterTracksIPsSeparately(t *testing.T) {
	rl := NewRateLimiter(1, 1)

	if !rl.Allow("10.0.0.1") {
		t.Fatalf("first ip should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatalf("first ip should be throttled")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatalf("second ip has its own bucket")
	}
}

func TestRateLimitMiddlewarePrefersRealIPHeader(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mw := RateLimit(1, 1)(handler)

	send := func(realIP string) int {
		req := httptest.NewRequest(http.MethodPost, "/webchat/message", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		if realIP != "" {
			req.Header.Set("X-Real-Ip", realIP)
		}
		rec := httptest.NewRecorder()
		mw.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.5"); code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", code)
	}
	if code := send("203.0.113.5"); code != http.StatusTooManyRequests {
		t.Fatalf("expected second request from same client to be throttled, got %d", code)
	}
	if code := send("203.0.113.6"); code != http.StatusOK {
		t.Fatalf("expected a different client to pass, got %d", code)
	}
}
