package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ipLimiter is one client's bucket and when it was last used.
type ipLimiter struct {
	lim  *rate.Limiter
	last time.Time
}

type limiter struct {
	rate  rate.Limit // tokens per second
	burst int
	ttl   time.Duration
	now   func() time.Time

	mu        sync.Mutex
	m         map[string]*ipLimiter
	lastSweep time.Time
}

func newLimiter(reqPerMin int, burst int, ttl time.Duration) *limiter {
	if burst < 1 {
		burst = 1
	}
	return &limiter{
		rate:  rate.Limit(float64(reqPerMin) / 60.0),
		burst: burst,
		ttl:   ttl,
		now:   time.Now,
		m:     make(map[string]*ipLimiter),
	}
}

func (l *limiter) allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sweep(now)
	il := l.m[key]
	if il == nil {
		il = &ipLimiter{lim: rate.NewLimiter(l.rate, l.burst)}
		l.m[key] = il
	}
	il.last = now
	return il.lim.AllowN(now, 1)
}

// sweep drops limiters idle for longer than ttl; by then they have refilled
// and a fresh one behaves the same. Caller holds mu.
func (l *limiter) sweep(now time.Time) {
	if now.Sub(l.lastSweep) < l.ttl {
		return
	}
	for k, il := range l.m {
		if now.Sub(il.last) >= l.ttl {
			delete(l.m, k)
		}
	}
	l.lastSweep = now
}

// RateLimit returns a middleware that rate-limits by remote IP.
// Example: RateLimit(120, 60) => 120 req/min with burst 60
func RateLimit(reqPerMin int, burst int) func(http.Handler) http.Handler {
	if reqPerMin <= 0 {
		// disabled
		return func(next http.Handler) http.Handler { return next }
	}
	l := newLimiter(reqPerMin, burst, 10*time.Minute)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.allow(clientIP(r)) {
				w.Header().Set("Retry-After", "1")
				deny(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	// honor X-Forwarded-For if behind a proxy
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
