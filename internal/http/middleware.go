package http

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/guardianlk/guardian/internal/redact"
)

// CustomLoggerMiddleware logs one line per request. The logged path goes
// through redaction first so signed-download tokens and other sensitive query
// values never reach the log stream.
func CustomLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", redact.Path(c.Request.URL.RequestURI())),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
			slog.String("remote_addr", c.ClientIP()),
			slog.String("request_id", requestid.Get(c)),
		)
	}
}

// ipLimiters tracks one token bucket per client IP. Entries idle past the
// eviction window are dropped on the next sweep to bound memory.
type ipLimiters struct {
	mu        sync.Mutex
	limiters  map[string]*ipLimiterEntry
	rps       rate.Limit
	burst     int
	lastSweep time.Time
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const limiterEvictionWindow = 10 * time.Minute

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > limiterEvictionWindow {
		for key, entry := range l.limiters {
			if now.Sub(entry.lastSeen) > limiterEvictionWindow {
				delete(l.limiters, key)
			}
		}
		l.lastSweep = now
	}

	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimitMiddleware limits requests per client IP. Used on the public
// download endpoint where no authentication gates traffic. Non-positive
// settings disable limiting.
func RateLimitMiddleware(perSecond float64, burst int) gin.HandlerFunc {
	if perSecond <= 0 || burst <= 0 {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	limiters := &ipLimiters{
		limiters:  make(map[string]*ipLimiterEntry),
		rps:       rate.Limit(perSecond),
		burst:     burst,
		lastSweep: time.Now(),
	}

	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "Too Many Requests",
			})
			return
		}
		c.Next()
	}
}
