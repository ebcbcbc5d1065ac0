package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RouteClass groups endpoints that share one bucket configuration.
type RouteClass string

const (
	// ClassLogin covers credential-verification endpoints.
	ClassLogin RouteClass = "login"
	// ClassRegister covers account-creation endpoints.
	ClassRegister RouteClass = "register"
	// ClassRefresh covers token-refresh endpoints.
	ClassRefresh RouteClass = "refresh"
	// ClassGeneral covers listing and other bulk-read endpoints.
	ClassGeneral RouteClass = "general"
)

// Bucket fixes a route class's capacity and refill rate: Capacity tokens are
// restored per RefillPeriod, continuously (greedy refill).
type Bucket struct {
	Capacity     int64
	RefillPeriod time.Duration
}

// Config holds the limiter's key namespace and per-class buckets.
type Config struct {
	Prefix  string
	Buckets map[RouteClass]Bucket
}

// DefaultBuckets mirrors the production route-class limits.
func DefaultBuckets() map[RouteClass]Bucket {
	return map[RouteClass]Bucket{
		ClassLogin:    {Capacity: 5, RefillPeriod: time.Minute},
		ClassRegister: {Capacity: 3, RefillPeriod: time.Hour},
		ClassRefresh:  {Capacity: 10, RefillPeriod: time.Minute},
		ClassGeneral:  {Capacity: 30, RefillPeriod: time.Minute},
	}
}

// Decision is the outcome of a single admission check. RetryAfter is only
// meaningful when Allowed is false.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

const defaultPrefix = "rate_limit"

// The whole read-refill-consume cycle runs server-side so two concurrent
// requests can never both spend the last token. State is a hash of the
// fractional token count and the last refill instant; idle buckets expire
// after two refill periods, which is equivalent to a fresh full bucket.
const consumeScript = `
local capacity = tonumber(ARGV[1])
local period_ms = tonumber(ARGV[2])
local now_ms = tonumber(ARGV[3])

local state = redis.call("HMGET", KEYS[1], "tokens", "ts")
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil or ts == nil then
  tokens = capacity
  ts = now_ms
end

local elapsed = now_ms - ts
if elapsed > 0 then
  tokens = tokens + elapsed * capacity / period_ms
  if tokens > capacity then
    tokens = capacity
  end
end

local allowed = 0
local wait_ms = 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  wait_ms = math.ceil((1 - tokens) * period_ms / capacity)
end

redis.call("HSET", KEYS[1], "tokens", tostring(tokens), "ts", now_ms)
redis.call("PEXPIRE", KEYS[1], period_ms * 2)
return {allowed, tostring(tokens), wait_ms}
`

var consumeLua = redis.NewScript(consumeScript)

// Limiter is a per-(route class, client) token-bucket admission controller.
// All state lives in Redis so every server instance sees the same buckets.
type Limiter struct {
	redis  redis.UniversalClient
	config Config
	now    func() time.Time
}

// New creates a Limiter backed by the given Redis client. Buckets defaults
// to [DefaultBuckets] when nil.
func New(client redis.UniversalClient, cfg Config) *Limiter {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.Buckets == nil {
		cfg.Buckets = DefaultBuckets()
	}
	return &Limiter{
		redis:  client,
		config: cfg,
		now:    time.Now,
	}
}

// Check attempts to consume one token from the (class, clientID) bucket.
// A Redis outage returns ErrRedisUnavailable; callers must deny on it rather
// than admit unmetered traffic.
func (l *Limiter) Check(ctx context.Context, class RouteClass, clientID string) (Decision, error) {
	bucket, ok := l.config.Buckets[class]
	if !ok {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownRouteClass, class)
	}

	key := fmt.Sprintf("%s:%s:%s", l.config.Prefix, class, clientID)
	res, err := consumeLua.Run(ctx, l.redis, []string{key},
		bucket.Capacity,
		bucket.RefillPeriod.Milliseconds(),
		l.now().UnixMilli(),
	).Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("%w: unexpected script reply", ErrRedisUnavailable)
	}

	allowed, _ := res[0].(int64)
	remaining := parseTokens(res[1])
	waitMillis, _ := res[2].(int64)

	decision := Decision{
		Allowed:   allowed == 1,
		Remaining: remaining,
	}
	if !decision.Allowed {
		decision.RetryAfter = time.Duration(waitMillis) * time.Millisecond
	}
	return decision, nil
}

// Classes returns the configured route classes, for filter wiring and
// observability.
func (l *Limiter) Classes() []RouteClass {
	out := make([]RouteClass, 0, len(l.config.Buckets))
	for class := range l.config.Buckets {
		out = append(out, class)
	}
	return out
}

func parseTokens(v interface{}) int64 {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return int64(math.Floor(f))
}
