package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/stagelink/internal/config"
)

// takeToken refills the bucket continuously (refill/interval tokens per ms)
// and takes one token.  Returns {allowed, tokens_left, wait_ms}.
var takeToken = redis.NewScript(`
local capacity = tonumber(ARGV[2])
local per_ms = tonumber(ARGV[3]) / tonumber(ARGV[4])
local now = tonumber(ARGV[1])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now
tokens = math.min(capacity, tokens + math.max(0, now - ts) * per_ms)

local allowed, wait = 0, 0
if tokens >= 1 then
	allowed = 1
	tokens = tokens - 1
else
	wait = math.ceil((1 - tokens) / per_ms)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', now)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
return { allowed, math.floor(tokens), wait }
`)

type bucketResult struct {
	allowed   bool
	remaining int64
	wait      time.Duration
}

// NewTokenBucket limits requests per key (see buildRateKey) with a Redis
// token bucket.  Without Redis, or when Redis errors, requests pass
// through: the limiter must never take the API down with it.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := buildRateKey(cfg, c)
			res, err := take(c.Request().Context(), rdb, cfg, key)
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] key=%s: %v", key, err)
				}
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))
			if res.allowed {
				return next(c)
			}

			secs := retryAfterSeconds(res.wait)
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				c.Logger().Infof("[ratelimit] block key=%s retry=%s", key, res.wait)
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "Too many requests. Please try again later.",
				"retry_after": secs,
			})
		}
	}
}

func take(ctx context.Context, rdb redis.Scripter, cfg config.RateLimitConfig, key string) (bucketResult, error) {
	vals, err := takeToken.Run(ctx, rdb, []string{key},
		time.Now().UnixMilli(),
		cfg.Capacity,
		cfg.RefillTokens,
		cfg.RefillInterval.Milliseconds(),
		int64(cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return bucketResult{}, err
	}
	return parseBucketResult(vals)
}

func parseBucketResult(vals []int64) (bucketResult, error) {
	if len(vals) != 3 {
		return bucketResult{}, errUnexpectedReply
	}
	return bucketResult{
		allowed:   vals[0] == 1,
		remaining: vals[1],
		wait:      time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

// buildRateKey composes the bucket key from the strategy, an underscore
// separated list of ip, user and route ("ip_user_route" by default).
// Proposal routes run after JWTAuth, so user keys on the account id there
// and falls back to "anon" on public routes.
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
	parts := []string{cfg.Prefix}
	for _, p := range strategyParts(cfg.KeyStrategy, "ip", "user", "route") {
		switch p {
		case "ip":
			ip := c.RealIP()
			if ip == "" {
				ip = "unknown"
			}
			parts = append(parts, "ip", ip)
		case "user":
			parts = append(parts, "user", currentUserID(c))
		case "route":
			parts = append(parts, "route", c.Request().Method+" "+c.Path())
		}
	}
	return strings.Join(parts, ":")
}

// strategyParts splits an underscore separated strategy and keeps the
// known parts in order.  An empty or unknown strategy yields all known.
func strategyParts(strategy string, known ...string) []string {
	var out []string
	for _, p := range strings.Split(strings.ToLower(strategy), "_") {
		for _, k := range known {
			if p == k {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return known
	}
	return out
}
