package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"disable-help/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const limiterIdleAfter = 5 * time.Minute

// ClientIP keys requests by the peer address.
func ClientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu          sync.Mutex
	limiters    map[string]*limiterEntry
	limit       rate.Limit
	burst       int
	lastCleanup time.Time
}

func (rl *rateLimiter) get(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastCleanup) > limiterIdleAfter {
		for k, e := range rl.limiters {
			if now.Sub(e.lastSeen) > limiterIdleAfter {
				delete(rl.limiters, k)
			}
		}
		rl.lastCleanup = now
	}

	e, ok := rl.limiters[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// RateLimit applies a token bucket per client IP. Rejected requests get a 429
// envelope and a Retry-After header.
func RateLimit(config utils.RateLimitConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	rl := &rateLimiter{
		limiters:    make(map[string]*limiterEntry),
		limit:       rate.Limit(float64(config.Requests) / config.Window.Seconds()),
		burst:       config.Burst,
		lastCleanup: time.Now(),
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientIP(r)
			limiter := rl.get(key, time.Now())

			if !limiter.Allow() {
				reservation := limiter.Reserve()
				delay := reservation.Delay()
				reservation.Cancel()

				retryAfter := max(int(delay.Seconds()+0.5), 1)
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))

				logger.Warn("Rate limit exceeded",
					zap.String("ip", key),
					zap.String("path", r.URL.Path),
					zap.Int("retry_after", retryAfter),
				)

				utils.ResponseTooManyRequests(w, "Too many requests, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
