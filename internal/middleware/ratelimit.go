package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/keyxmakerx/outreach/internal/apperror"
)

// Limiter decides whether one more request for key fits in the budget.
// retryAfter is a hint for the Retry-After header when allowed is false.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, retryAfter time.Duration, err error)
}

// RateLimit returns middleware that applies limiter per client IP. The
// bucket name separates budgets of different routes sharing one limiter
// backend. Limiter errors fail open: an unavailable Redis must not lock
// everyone out of logging in.
func RateLimit(limiter Limiter, bucket string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := bucket + ":" + c.RealIP()

			allowed, retryAfter, err := limiter.Allow(c.Request().Context(), key)
			if err != nil {
				slog.Warn("rate limiter unavailable, allowing request",
					slog.String("bucket", bucket),
					slog.Any("error", err),
				)
				return next(c)
			}
			if !allowed {
				secs := int(math.Ceil(retryAfter.Seconds()))
				if secs < 1 {
					secs = 1
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
				return apperror.NewTooManyRequests("Too many attempts. Please wait a moment and try again.")
			}
			return next(c)
		}
	}
}

// RedisLimiter is a fixed-window counter shared by every app instance.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

// NewRedisLimiter allows limit requests per window for each key.
func NewRedisLimiter(rdb *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: int64(limit), window: window, prefix: "ratelimit:"}
}

// Allow increments the key's counter, starting the window on first hit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	fullKey := l.prefix + key

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	ttl := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit counter: %w", err)
	}

	// A counter without an expiry is a fresh window.
	if ttl.Val() < 0 {
		if err := l.rdb.PExpire(ctx, fullKey, l.window).Err(); err != nil {
			return false, 0, fmt.Errorf("rate limit window: %w", err)
		}
	}

	if incr.Val() > l.limit {
		retry := ttl.Val()
		if retry <= 0 {
			retry = l.window
		}
		return false, retry, nil
	}
	return true, 0, nil
}

// MemoryLimiter keeps a token bucket per key in process memory. Used when
// Redis is not configured; budgets are per instance.
type MemoryLimiter struct {
	limit rate.Limit
	burst int
	idle  time.Duration

	mu      sync.Mutex
	buckets map[string]*memoryBucket
	now     func() time.Time
}

type memoryBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter allows bursts of limit requests, refilling at limit per
// window.
func NewMemoryLimiter(limit int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   rate.Every(window / time.Duration(limit)),
		burst:   limit,
		idle:    2 * window,
		buckets: make(map[string]*memoryBucket),
		now:     time.Now,
	}
}

// Allow takes a token from the key's bucket.
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, time.Duration, error) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		b = &memoryBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	r := b.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}

// Sweep drops buckets idle for more than two windows. Run periodically.
func (l *MemoryLimiter) Sweep() {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idle {
			delete(l.buckets, key)
		}
	}
}

// RunSweeper calls Sweep every interval until ctx is done.
func (l *MemoryLimiter) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Sweep()
		}
	}
}
