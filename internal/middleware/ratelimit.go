package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/Adam-Grimes/CINEMA/internal/config"
)

// takeToken refills the bucket in KEYS[1] for the time elapsed since its
// last refill and then tries to take one token.  It replies with
// {allowed, tokens left, milliseconds until the next refill}.
var takeToken = redis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local every = tonumber(ARGV[4])

local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local stamp = tonumber(redis.call('HGET', KEYS[1], 'stamp'))
if tokens == nil or stamp == nil then
	tokens, stamp = capacity, now
end

local steps = math.floor(math.max(0, now - stamp) / every)
if steps > 0 then
	tokens = math.min(capacity, tokens + steps * refill)
	stamp = stamp + steps * every
end

local allowed, wait = 0, 0
if tokens >= 1 then
	allowed, tokens = 1, tokens - 1
else
	wait = math.max(0, every - (now - stamp))
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'stamp', stamp)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
return {allowed, tokens, wait}
`)

// bucketState is the decoded reply of takeToken.
type bucketState struct {
	allowed   bool
	remaining int64
	wait      time.Duration
}

func parseBucketReply(v interface{}) (bucketState, bool) {
	arr, ok := v.([]interface{})
	if !ok || len(arr) != 3 {
		return bucketState{}, false
	}
	return bucketState{
		allowed:   asInt64(arr[0]) == 1,
		remaining: asInt64(arr[1]),
		wait:      time.Duration(asInt64(arr[2])) * time.Millisecond,
	}, true
}

// NewTokenBucket limits /api with two Redis token buckets per client: one
// for reads and one for writes, each with its own policy.  Redis errors let
// the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			class := config.ClassOf(c.Request().Method)
			policy := cfg.Policy(class)
			key := buildRateKey(cfg, class, c)

			reply, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
				time.Now().UnixMilli(),
				policy.Capacity,
				policy.RefillTokens,
				policy.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Result()
			if err != nil {
				if cfg.Debug {
					c.Logger().Warnf("[ratelimit] redis error for key=%s: %v", key, err)
				}
				return next(c)
			}
			state, ok := parseBucketReply(reply)
			if !ok {
				c.Logger().Warnf("[ratelimit] unexpected reply for key=%s: %#v", key, reply)
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Class", string(class))
			h.Set("X-RateLimit-Limit", strconv.Itoa(policy.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(state.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if state.allowed {
				return next(c)
			}

			secs := int(math.Ceil(state.wait.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				c.Logger().Infof("[ratelimit] block key=%s retry=%s", key, state.wait)
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "Too many " + string(class) + " requests, retry later",
				"retry_after": secs,
			})
		}
	}
}

func asInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	}
	return 0
}

// buildRateKey composes "<prefix>:<class>:<ip>" and, with PerRoute set,
// appends the registered route pattern so every film id shares one bucket.
func buildRateKey(cfg config.RateLimitConfig, class config.RequestClass, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	parts := []string{cfg.Prefix, string(class), ip}
	if cfg.PerRoute {
		parts = append(parts, c.Path())
	}
	return strings.Join(parts, ":")
}
