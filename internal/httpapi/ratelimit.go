package httpapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
)

// visitor tracks the rate limit state for a single IP.
type visitor struct {
	tokens    float64
	lastCheck time.Time
}

// rateLimiter is a per-IP token-bucket limiter for the login endpoint.
// Stale entries are evicted inline during allow, so the limiter holds
// no background goroutine.
type rateLimiter struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	rate      float64 // tokens per second
	burst     int
	nextSweep time.Time
	logger    *slog.Logger
}

func newRateLimiter(rps float64, burst int, lg *slog.Logger) *rateLimiter {
	return &rateLimiter{
		visitors:  make(map[string]*visitor),
		rate:      rps,
		burst:     burst,
		nextSweep: time.Now().Add(sweepInterval),
		logger:    lg,
	}
}

const sweepInterval = 5 * time.Minute

// Middleware enforces the limit per client IP.
func (rl *rateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			if !rl.allow(ip) {
				rl.logger.Warn("rate limit exceeded", "ip", ip)
				return jsonError(c, http.StatusTooManyRequests, "too many attempts, try again later")
			}
			return next(c)
		}
	}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if now.After(rl.nextSweep) {
		rl.sweep(now)
		rl.nextSweep = now.Add(sweepInterval)
	}

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{tokens: float64(rl.burst) - 1, lastCheck: now}
		return true
	}

	v.tokens += now.Sub(v.lastCheck).Seconds() * rl.rate
	if v.tokens > float64(rl.burst) {
		v.tokens = float64(rl.burst)
	}
	v.lastCheck = now

	if v.tokens < 1 {
		return false
	}
	v.tokens--
	return true
}

// sweep drops visitors idle long enough to have fully refilled anyway.
// Caller holds mu.
func (rl *rateLimiter) sweep(now time.Time) {
	cutoff := now.Add(-2 * sweepInterval)
	for ip, v := range rl.visitors {
		if v.lastCheck.Before(cutoff) {
			delete(rl.visitors, ip)
		}
	}
}
