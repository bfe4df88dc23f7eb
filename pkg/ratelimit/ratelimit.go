package ratelimit

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// Limiter is a simple fixed-window counter keyed by client IP.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket // per-IP buckets
	max     int                // tokens per window
	per     time.Duration      // window size
}

type bucket struct {
	ts     time.Time // window start
	tokens int       // remaining tokens
}

// New creates a limiter allowing max requests per window.
func New(max int, per time.Duration) *Limiter {
	return &Limiter{buckets: map[string]*bucket{}, max: max, per: per}
}

// Allow consumes one token for key, starting a fresh window as needed.
func (r *Limiter) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.buckets[key]
	if b == nil || time.Since(b.ts) > r.per {
		// Expired windows for other keys are swept opportunistically so
		// the map does not grow with one entry per IP ever seen.
		if len(r.buckets) > 1024 {
			for k, old := range r.buckets {
				if time.Since(old.ts) > r.per {
					delete(r.buckets, k)
				}
			}
		}
		b = &bucket{ts: time.Now(), tokens: r.max}
		r.buckets[key] = b
	}
	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Middleware enforces the rate limit before calling the next handler
func (r *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ip, _, err := net.SplitHostPort(req.RemoteAddr)
		if err != nil {
			ip = req.RemoteAddr
		}
		if !r.Allow(ip) {
			http.Error(w, "rate limit", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, req)
	})
}
