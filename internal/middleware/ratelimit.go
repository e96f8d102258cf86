package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit allows perMinute requests per client IP with a burst of the same
// size. Install after chi's RealIP so RemoteAddr holds the client address.
// A non-positive perMinute disables the limit.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	limiters := newVisitors(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
	retryAfter := strconv.Itoa(int((time.Minute / time.Duration(perMinute)).Seconds()) + 1)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.get(clientIP(r), time.Now()).Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", retryAfter)
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]string{"code": "rate_limited", "message": "too many requests"},
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type visitors struct {
	mu      sync.Mutex
	every   rate.Limit
	burst   int
	entries map[string]*visitor
	swept   time.Time
}

func newVisitors(every rate.Limit, burst int) *visitors {
	return &visitors{every: every, burst: burst, entries: make(map[string]*visitor)}
}

// get returns the limiter for ip, evicting entries idle for over ten minutes.
func (v *visitors) get(ip string, now time.Time) *rate.Limiter {
	v.mu.Lock()
	defer v.mu.Unlock()
	if now.Sub(v.swept) > time.Minute {
		for key, e := range v.entries {
			if now.Sub(e.lastSeen) > 10*time.Minute {
				delete(v.entries, key)
			}
		}
		v.swept = now
	}
	e, ok := v.entries[ip]
	if !ok {
		e = &visitor{limiter: rate.NewLimiter(v.every, v.burst)}
		v.entries[ip] = e
	}
	e.lastSeen = now
	return e.limiter
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
