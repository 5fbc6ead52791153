package middleware

import (
	"context"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/logger"
)

// tokenBucketScript refills and takes one token atomically. It returns
// {allowed, remaining, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
	local key = KEYS[1]
	local now_ms = tonumber(ARGV[1])
	local capacity = tonumber(ARGV[2])
	local refill_tokens = tonumber(ARGV[3])
	local interval_ms = tonumber(ARGV[4])
	local ttl_seconds = tonumber(ARGV[5])

	local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
	local tokens = tonumber(state[1])
	local last_refill = tonumber(state[2])

	if tokens == nil or last_refill == nil then
		tokens = capacity
		last_refill = now_ms
	end

	if interval_ms > 0 and refill_tokens > 0 then
		local elapsed = math.max(0, now_ms - last_refill)
		local intervals = math.floor(elapsed / interval_ms)
		if intervals > 0 then
			tokens = math.min(capacity, tokens + (intervals * refill_tokens))
			last_refill = last_refill + (intervals * interval_ms)
		end
	end

	local allowed = 0
	local retry_after_ms = 0
	if tokens > 0 then
		allowed = 1
		tokens = tokens - 1
	else
		local until_next = interval_ms - (now_ms - last_refill)
		if until_next < 0 then until_next = 0 end
		retry_after_ms = until_next
	end

	redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
	redis.call('EXPIRE', key, ttl_seconds)

	return { allowed, tokens, retry_after_ms }
`)

type decision struct {
	allowed    bool
	remaining  int64
	retryAfter time.Duration
}

// LocalLimiter is an in-process token bucket per key built on
// golang.org/x/time/rate. It serves when Redis is not configured and as the
// fallback when a Redis call fails.
type LocalLimiter struct {
	mu      sync.Mutex
	buckets map[string]*localBucket
	limit   rate.Limit
	burst   int
	ttl     time.Duration
	now     func() time.Time
	sweepAt time.Time
}

type localBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLocalLimiter(cfg config.RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{
		buckets: make(map[string]*localBucket),
		limit:   rate.Limit(cfg.PerSecond()),
		burst:   cfg.Capacity,
		ttl:     cfg.TTL,
		now:     time.Now,
	}
}

func (l *LocalLimiter) allow(key string) decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.After(l.sweepAt) {
		for k, b := range l.buckets {
			if now.Sub(b.lastSeen) > l.ttl {
				delete(l.buckets, k)
			}
		}
		l.sweepAt = now.Add(l.ttl)
	}

	b, ok := l.buckets[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now

	r := b.lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return decision{retryAfter: delay}
	}
	return decision{allowed: true, remaining: int64(b.lim.TokensAt(now))}
}

// RateLimiter limits requests per key with the Redis token bucket, falling
// back to a LocalLimiter when Redis is absent or failing.
type RateLimiter struct {
	cfg   config.RateLimitConfig
	rdb   *redis.Client
	local *LocalLimiter
	log   *logger.Logger
	now   func() time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log *logger.Logger) *RateLimiter {
	if log == nil {
		log = logger.Discard()
	}
	return &RateLimiter{cfg: cfg, rdb: rdb, local: NewLocalLimiter(cfg), log: log, now: time.Now}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) decision {
	if rl.rdb == nil {
		return rl.local.allow(key)
	}
	args := []any{
		rl.now().UnixMilli(),
		rl.cfg.Capacity,
		rl.cfg.RefillTokens,
		rl.cfg.RefillInterval.Milliseconds(),
		int64(rl.cfg.TTL / time.Second),
	}
	vals, err := tokenBucketScript.Run(ctx, rl.rdb, []string{key}, args...).Slice()
	if err != nil || len(vals) != 3 {
		if rl.cfg.Debug {
			rl.log.WarnContext(ctx, "ratelimit: redis unavailable, using local bucket",
				slog.String("key", key), slog.Any("error", err))
		}
		return rl.local.allow(key)
	}
	return decision{
		allowed:    asInt64(vals[0]) == 1,
		remaining:  asInt64(vals[1]),
		retryAfter: time.Duration(asInt64(vals[2])) * time.Millisecond,
	}
}

// Middleware returns the echo middleware. It is a pass-through when rate
// limiting is disabled.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	if !rl.cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(rl.cfg, c)
			d := rl.allow(c.Request().Context(), key)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(max(d.remaining, 0), 10))

			if !d.allowed {
				secs := int(math.Ceil(d.retryAfter.Seconds()))
				if secs < 0 {
					secs = 0
				}
				h.Set("Retry-After", strconv.Itoa(secs))
				if rl.cfg.Debug {
					rl.log.InfoContext(c.Request().Context(), "ratelimit: blocked",
						slog.String("key", key), slog.Duration("retry_after", d.retryAfter))
				}
				return c.JSON(http.StatusTooManyRequests, map[string]any{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			if rl.cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			return next(c)
		}
	}
}

func asInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := userID(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", uid)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", uid)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", uid, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", uid, "route", route)
	}
	return strings.Join(parts, ":")
}
