package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"talentsift/internal/errors"

	"golang.org/x/time/rate"
)

// idleEviction is how long a screening client can stay quiet before its
// limiter state is dropped.
const idleEviction = 10 * time.Minute

// clientEntry pairs a token bucket with the client's last request time
type clientEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ClientLimiter applies a per-client token bucket to screening requests.
// Clients are keyed by API key when auth is in use, otherwise by IP, so
// one tenant flooding the screen endpoint cannot starve the others.
type ClientLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientEntry
	limit   rate.Limit
	burst   int
	stop    chan struct{}
	logger  *errors.Logger
}

// NewClientLimiter creates a limiter allowing requestsPerMin sustained
// requests with the given burst capacity, and starts idle eviction.
func NewClientLimiter(requestsPerMin, burst int, logger *errors.Logger) *ClientLimiter {
	cl := &ClientLimiter{
		clients: make(map[string]*clientEntry),
		limit:   rate.Limit(float64(requestsPerMin) / 60.0),
		burst:   burst,
		stop:    make(chan struct{}),
		logger:  logger,
	}
	go cl.evictLoop()
	return cl
}

// Allow reports whether the client may run another screening request now
func (cl *ClientLimiter) Allow(key string) bool {
	cl.mu.Lock()
	entry, ok := cl.clients[key]
	if !ok {
		entry = &clientEntry{limiter: rate.NewLimiter(cl.limit, cl.burst)}
		cl.clients[key] = entry
	}
	entry.lastSeen = time.Now()
	cl.mu.Unlock()

	return entry.limiter.Allow()
}

// Stats reports the limiter state for the stats endpoint
func (cl *ClientLimiter) Stats() map[string]any {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	return map[string]any{
		"active_clients":  len(cl.clients),
		"rate_per_second": float64(cl.limit),
		"rate_per_minute": float64(cl.limit) * 60.0,
		"burst_capacity":  cl.burst,
	}
}

// Close stops the eviction goroutine
func (cl *ClientLimiter) Close() {
	close(cl.stop)
}

func (cl *ClientLimiter) evictLoop() {
	ticker := time.NewTicker(idleEviction)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cl.evictIdle()
		case <-cl.stop:
			return
		}
	}
}

// evictIdle drops clients that have not screened anything recently
func (cl *ClientLimiter) evictIdle() {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	cutoff := time.Now().Add(-idleEviction)
	for key, entry := range cl.clients {
		if entry.lastSeen.Before(cutoff) {
			delete(cl.clients, key)
		}
	}

	if cl.logger != nil {
		cl.logger.Debug("Rate limiter eviction completed",
			"active_clients", len(cl.clients))
	}
}

// rateLimitMiddleware rejects requests over the per-client budget with 429
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			if !s.RateLimiter.Allow(key) {
				s.Logger.Info("Rate limit exceeded",
					"key", key,
					"endpoint", r.URL.Path,
					"client_ip", clientIP(r))
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}

			next(w, r)
		}
	}
}

// clientKey identifies the screening client for rate limiting purposes.
// The API key takes precedence so authenticated tenants are budgeted
// independently of the address they call from.
func clientKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		apiKey := r.Header.Get("X-API-Key")
		if apiKey == "" {
			if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
				apiKey = bearer
			}
		}
		if apiKey != "" {
			return "api:" + apiKey
		}
	}
	if byIP {
		return "ip:" + clientIP(r)
	}
	return ""
}

// clientIP resolves the caller address, preferring proxy headers
func clientIP(r *http.Request) string {
	for xff := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
		xff = strings.TrimSpace(xff)
		if net.ParseIP(xff) != nil {
			return xff
		}
	}

	if xri := r.Header.Get("X-Real-IP"); net.ParseIP(xri) != nil {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
