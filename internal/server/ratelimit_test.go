package server

import (
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"talentsift/internal/errors"
)

func newTestLimiter(requestsPerMin, burst int) *ClientLimiter {
	return NewClientLimiter(requestsPerMin, burst, errors.NewLogger(slog.LevelError))
}

func TestClientLimiterBurst(t *testing.T) {
	cl := newTestLimiter(60, 2)
	defer cl.Close()

	if !cl.Allow("api:tenant-a") {
		t.Error("first request should be allowed")
	}
	if !cl.Allow("api:tenant-a") {
		t.Error("second request should fit the burst")
	}
	if cl.Allow("api:tenant-a") {
		t.Error("third immediate request should exceed the burst")
	}

	// A different tenant has its own budget
	if !cl.Allow("api:tenant-b") {
		t.Error("another client should not be affected")
	}
}

func TestClientLimiterEviction(t *testing.T) {
	cl := newTestLimiter(60, 1)
	defer cl.Close()

	cl.Allow("ip:10.0.0.1")
	cl.mu.Lock()
	cl.clients["ip:10.0.0.1"].lastSeen = time.Now().Add(-2 * idleEviction)
	cl.mu.Unlock()

	cl.evictIdle()

	stats := cl.Stats()
	if stats["active_clients"] != 0 {
		t.Errorf("active_clients = %v, want 0 after eviction", stats["active_clients"])
	}
}

func TestClientLimiterStats(t *testing.T) {
	cl := newTestLimiter(120, 5)
	defer cl.Close()

	cl.Allow("api:tenant-a")
	stats := cl.Stats()

	if stats["active_clients"] != 1 {
		t.Errorf("active_clients = %v, want 1", stats["active_clients"])
	}
	if stats["rate_per_minute"] != 120.0 {
		t.Errorf("rate_per_minute = %v, want 120", stats["rate_per_minute"])
	}
	if stats["burst_capacity"] != 5 {
		t.Errorf("burst_capacity = %v, want 5", stats["burst_capacity"])
	}
}

func TestClientKeyPrecedence(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/screen", nil)
	req.Header.Set("X-API-Key", "secret-key-123")
	req.RemoteAddr = "192.0.2.10:54321"

	if key := clientKey(req, true, true); key != "api:secret-key-123" {
		t.Errorf("clientKey = %q, want api key to win over IP", key)
	}
	if key := clientKey(req, false, true); key != "ip:192.0.2.10" {
		t.Errorf("clientKey = %q, want ip:192.0.2.10", key)
	}
	if key := clientKey(req, false, false); key != "" {
		t.Errorf("clientKey = %q, want empty with both dimensions off", key)
	}
}

func TestClientKeyBearerFallback(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/v1/screen", nil)
	req.Header.Set("Authorization", "Bearer secret-key-456")

	if key := clientKey(req, true, false); key != "api:secret-key-456" {
		t.Errorf("clientKey = %q, want bearer token as api key", key)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		forwarded  string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded list", "203.0.113.5, 10.0.0.1", "", "192.0.2.1:443", "203.0.113.5"},
		{"invalid forwarded entries skipped", "not-an-ip, 203.0.113.6", "", "192.0.2.1:443", "203.0.113.6"},
		{"real ip header", "", "203.0.113.7", "192.0.2.1:443", "203.0.113.7"},
		{"remote addr fallback", "", "", "192.0.2.8:443", "192.0.2.8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/health", nil)
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-For", tt.forwarded)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			req.RemoteAddr = tt.remoteAddr

			if got := clientIP(req); got != tt.want {
				t.Errorf("clientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
