package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterIdleTimeout     = time.Hour
)

// UploadLimiter throttles image uploads per client IP with a token bucket.
// Every upload decodes and re-encodes images, so it is far more expensive
// than a metadata request.
type UploadLimiter struct {
	limiters sync.Map // IP address -> *limiterEntry
	logger   *slog.Logger
	rate     rate.Limit
	burst    int
	cancel   context.CancelFunc
}

// limiterEntry wraps a rate limiter with metadata for cleanup.
// lastAccess is stored as Unix timestamp (int64) for thread-safe atomic access.
type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

// NewUploadLimiter creates a limiter allowing perSecond uploads per IP with
// the given burst, and starts its cleanup goroutine. Call Shutdown to stop it.
func NewUploadLimiter(logger *slog.Logger, perSecond float64, burst int) *UploadLimiter {
	if burst < 1 {
		burst = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	rl := &UploadLimiter{
		logger: logger,
		rate:   rate.Limit(perSecond),
		burst:  burst,
		cancel: cancel,
	}
	go rl.cleanup(ctx)
	return rl
}

// Middleware rejects requests over the limit with 429 and a Retry-After header.
func (rl *UploadLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()
			limit := fmt.Sprintf("%.0f", float64(rl.rate))

			if !rl.getLimiter(ip).Allow() {
				rl.logger.Warn("upload rate limit exceeded",
					slog.String("ip", ip),
					slog.String("path", c.Path()),
					slog.String("method", c.Request().Method))

				c.Response().Header().Set("Retry-After", "1")
				c.Response().Header().Set("X-RateLimit-Limit", limit)
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return echo.NewHTTPError(http.StatusTooManyRequests, "upload rate limit exceeded")
			}

			c.Response().Header().Set("X-RateLimit-Limit", limit)
			return next(c)
		}
	}
}

// getLimiter gets or creates the rate limiter for the given key.
func (rl *UploadLimiter) getLimiter(key string) *rate.Limiter {
	if entry, ok := rl.limiters.Load(key); ok {
		e := entry.(*limiterEntry)
		e.lastAccess.Store(time.Now().Unix())
		return e.limiter
	}

	entry := &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
	entry.lastAccess.Store(time.Now().Unix())
	actual, _ := rl.limiters.LoadOrStore(key, entry)
	return actual.(*limiterEntry).limiter
}

// cleanup removes limiters idle for longer than limiterIdleTimeout.
func (rl *UploadLimiter) cleanup(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep(time.Now())
		case <-ctx.Done():
			rl.logger.Debug("upload limiter cleanup goroutine stopping")
			return
		}
	}
}

func (rl *UploadLimiter) sweep(now time.Time) int {
	var removed int
	cutoff := now.Add(-limiterIdleTimeout).Unix()
	rl.limiters.Range(func(key, value any) bool {
		if value.(*limiterEntry).lastAccess.Load() < cutoff {
			rl.limiters.Delete(key)
			removed++
		}
		return true
	})
	if removed > 0 {
		rl.logger.Info("cleaned up idle upload limiters", slog.Int("removed", removed))
	}
	return removed
}

// Shutdown stops the cleanup goroutine.
func (rl *UploadLimiter) Shutdown() {
	if rl.cancel != nil {
		rl.cancel()
	}
}
