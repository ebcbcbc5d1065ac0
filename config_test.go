package iamauth

import (
	"testing"
	"time"

	"github.com/andyvr/iamauth/ratelimit"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.JWT.Secret = []byte("0123456789abcdef0123456789abcdef")
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.JWT.AccessTTL != time.Hour {
		t.Errorf("AccessTTL = %v, want 1h", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", cfg.JWT.RefreshTTL)
	}
	if cfg.Revocation.RedisPrefix != "blacklist:token:" {
		t.Errorf("RedisPrefix = %q", cfg.Revocation.RedisPrefix)
	}
	if cfg.Revocation.FailClosed {
		t.Error("default outage policy must be fail-open")
	}
	if got := cfg.RateLimit.Buckets[ratelimit.ClassLogin]; got.Capacity != 5 || got.RefillPeriod != time.Minute {
		t.Errorf("login bucket = %+v, want 5/min", got)
	}
	if cfg.AuthoritySource != AuthoritiesFromIdentity {
		t.Error("default authority source must be the identity record")
	}
}

func TestConfigValidate(t *testing.T) {
	valid := validConfig()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := map[string]func(*Config){
		"zero access ttl":      func(c *Config) { c.JWT.AccessTTL = 0 },
		"refresh below access": func(c *Config) { c.JWT.RefreshTTL = time.Minute },
		"short secret":         func(c *Config) { c.JWT.Secret = []byte("short") },
		"excessive leeway":     func(c *Config) { c.JWT.Leeway = 5 * time.Minute },
		"zero bucket capacity": func(c *Config) {
			c.RateLimit.Buckets[ratelimit.ClassLogin] = ratelimit.Bucket{Capacity: 0, RefillPeriod: time.Minute}
		},
		"zero refill period": func(c *Config) {
			c.RateLimit.Buckets[ratelimit.ClassLogin] = ratelimit.Bucket{Capacity: 5}
		},
		"audit enabled without buffer": func(c *Config) {
			c.Audit.Enabled = true
			c.Audit.BufferSize = 0
		},
		"bogus authority source": func(c *Config) { c.AuthoritySource = AuthoritySource(99) },
	}
	for name, mutate := range cases {
		cfg := validConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestCloneConfigIsolatesCaller(t *testing.T) {
	cfg := validConfig()
	clone := cloneConfig(cfg)

	cfg.JWT.Secret[0] = 'X'
	cfg.RateLimit.Buckets[ratelimit.ClassLogin] = ratelimit.Bucket{Capacity: 999, RefillPeriod: time.Second}

	if clone.JWT.Secret[0] == 'X' {
		t.Error("secret must be copied, not shared")
	}
	if clone.RateLimit.Buckets[ratelimit.ClassLogin].Capacity == 999 {
		t.Error("bucket map must be copied, not shared")
	}
}
