package config

import (
	"net/http"
	"strings"
	"time"
)

// RequestClass splits /api traffic into buckets with their own limits.
// Listing films and screenings is cheap; every write runs a serializable
// transaction and purges the response cache, so writes get a tighter budget.
type RequestClass string

const (
	ClassRead  RequestClass = "read"
	ClassWrite RequestClass = "write"
)

// ClassOf maps an HTTP method to its bucket.  Unknown methods count as writes.
func ClassOf(method string) RequestClass {
	switch strings.ToUpper(method) {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return ClassRead
	}
	return ClassWrite
}

// BucketPolicy is the shape of one token bucket: it holds Capacity tokens
// and gains RefillTokens every RefillInterval.
type BucketPolicy struct {
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
}

func (p BucketPolicy) normalised() BucketPolicy {
	if p.Capacity < 1 {
		p.Capacity = 1
	}
	if p.RefillTokens < 1 {
		p.RefillTokens = 1
	}
	if p.RefillInterval <= 0 {
		p.RefillInterval = time.Second
	}
	return p
}

// RateLimitConfig drives the Redis token buckets in front of /api.  The
// admin API has no user identity, so a bucket belongs to a client IP and a
// request class, optionally narrowed to the route pattern.
type RateLimitConfig struct {
	Enabled  bool
	Read     BucketPolicy
	Write    BucketPolicy
	TTL      time.Duration
	PerRoute bool
	Prefix   string
	Debug    bool
}

// Policy returns the bucket shape for class.
func (c RateLimitConfig) Policy(class RequestClass) BucketPolicy {
	if class == ClassRead {
		return c.Read
	}
	return c.Write
}

func loadBucket(class RequestClass, capacity, refill int, every time.Duration) BucketPolicy {
	env := "RATE_LIMIT_" + strings.ToUpper(string(class)) + "_"
	return BucketPolicy{
		Capacity:       envInt(env+"CAPACITY", capacity),
		RefillTokens:   envInt(env+"REFILL_TOKENS", refill),
		RefillInterval: envDur(env+"REFILL_EVERY", every),
	}.normalised()
}

// LoadRateLimitConfig reads RATE_LIMIT_* variables.  Reads default to a
// burst of 120 refilled at 2/s; writes to a burst of 20 refilled at 1 per 3s.
// TTL is raised to at least five refill intervals of the slower bucket so an
// idle bucket never expires before it would have refilled.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:  envBool("RATE_LIMIT_ENABLED", true),
		Read:     loadBucket(ClassRead, 120, 2, time.Second),
		Write:    loadBucket(ClassWrite, 20, 1, 3*time.Second),
		TTL:      envDur("RATE_LIMIT_TTL", 10*time.Minute),
		PerRoute: envBool("RATE_LIMIT_PER_ROUTE", false),
		Prefix:   envStr("RATE_LIMIT_PREFIX", "cinema:rl"),
		Debug:    envBool("RATE_LIMIT_DEBUG", false),
	}
	slowest := cfg.Read.RefillInterval
	if cfg.Write.RefillInterval > slowest {
		slowest = cfg.Write.RefillInterval
	}
	if minTTL := 5 * slowest; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
