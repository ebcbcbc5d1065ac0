package iamauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/andyvr/iamauth/ratelimit"
)

// Config is the single immutable configuration struct for the subsystem.
// Construct it once at process start, validate it, and pass it into
// [Builder.WithConfig]; no component reads ambient global state.
type Config struct {
	JWT             JWTConfig
	Revocation      RevocationConfig
	RateLimit       RateLimitConfig
	Audit           AuditConfig
	Metrics         MetricsConfig
	AuthoritySource AuthoritySource
}

// JWTConfig holds token lifetimes and the HMAC signing secret.
type JWTConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Secret     []byte
	Issuer     string
	Leeway     time.Duration
}

// RevocationConfig controls the blacklist namespace and the outage policy.
// FailClosed makes Authenticate reject requests when the store is
// unreachable; the default fail-open degrades them to anonymous.
type RevocationConfig struct {
	RedisPrefix string
	FailClosed  bool
}

// RateLimitConfig holds the bucket table keyed by route class.
type RateLimitConfig struct {
	RedisPrefix string
	Buckets     map[ratelimit.RouteClass]ratelimit.Bucket
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig enables the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the baseline configuration: Spring-era token
// lifetimes (1h access, 7d refresh), the standard blacklist namespace, and
// the default bucket table. The JWT secret is left empty and must be set by
// the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  time.Hour,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Revocation: RevocationConfig{
			RedisPrefix: "blacklist:token:",
			FailClosed:  false,
		},
		RateLimit: RateLimitConfig{
			RedisPrefix: "rate_limit",
			Buckets:     ratelimit.DefaultBuckets(),
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
		AuthoritySource: AuthoritiesFromIdentity,
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	if cfg.RateLimit.Buckets != nil {
		out.RateLimit.Buckets = make(map[ratelimit.RouteClass]ratelimit.Bucket, len(cfg.RateLimit.Buckets))
		for class, bucket := range cfg.RateLimit.Buckets {
			out.RateLimit.Buckets[class] = bucket
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate checks the configuration invariants the components rely on.
func (c *Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must exceed AccessTTL")
	}
	if len(c.JWT.Secret) < 32 {
		return errors.New("JWT Secret must be at least 32 bytes (256 bits)")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	for class, bucket := range c.RateLimit.Buckets {
		if bucket.Capacity <= 0 {
			return fmt.Errorf("RateLimit bucket %q: Capacity must be > 0", class)
		}
		if bucket.RefillPeriod <= 0 {
			return fmt.Errorf("RateLimit bucket %q: RefillPeriod must be > 0", class)
		}
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	switch c.AuthoritySource {
	case AuthoritiesFromIdentity, AuthoritiesFromToken:
		// valid
	default:
		return errors.New("invalid AuthoritySource")
	}

	return nil
}
