package iamauth

import (
	"errors"

	internalaudit "github.com/andyvr/iamauth/internal/audit"
	"github.com/andyvr/iamauth/jwt"
	"github.com/andyvr/iamauth/ratelimit"
	"github.com/andyvr/iamauth/revocation"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Builder assembles an [Engine] from its configuration and injected
// collaborators. Build may be called once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	logger zerolog.Logger

	identities IdentityProvider
	passwords  PasswordVerifier
	auditSink  AuditSink

	built bool
}

// New returns a Builder preloaded with the default configuration.
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
		logger: zerolog.Nop(),
	}
}

// WithConfig replaces the configuration. The config is cloned so later
// mutation by the caller cannot affect the engine.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the backing cache shared by the revocation store and the
// rate limiter.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithIdentityProvider sets the external identity lookup.
func (b *Builder) WithIdentityProvider(p IdentityProvider) *Builder {
	b.identities = p
	return b
}

// WithPasswordVerifier sets the credential verification capability.
func (b *Builder) WithPasswordVerifier(v PasswordVerifier) *Builder {
	b.passwords = v
	return b
}

// WithAuditSink sets the audit event receiver. Events are dispatched
// asynchronously; a nil sink with audit enabled falls back to a no-op.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger sets the engine's structured logger. Defaults to a no-op.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.identities == nil {
		return nil, errors.New("identity provider is required")
	}
	if b.passwords == nil {
		return nil, errors.New("password verifier is required")
	}

	codec, err := jwt.NewCodec(jwt.Config{
		AccessTTL:  b.config.JWT.AccessTTL,
		RefreshTTL: b.config.JWT.RefreshTTL,
		Secret:     b.config.JWT.Secret,
		Issuer:     b.config.JWT.Issuer,
		Leeway:     b.config.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:      b.config,
		codec:       codec,
		revocations: revocation.NewStore(b.redis, b.config.Revocation.RedisPrefix),
		limiter: ratelimit.New(b.redis, ratelimit.Config{
			Prefix:  b.config.RateLimit.RedisPrefix,
			Buckets: b.config.RateLimit.Buckets,
		}),
		identities: b.identities,
		passwords:  b.passwords,
		metrics:    NewMetrics(b.config.Metrics),
		log:        b.logger,
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    b.config.Audit.Enabled,
			BufferSize: b.config.Audit.BufferSize,
			DropIfFull: b.config.Audit.DropIfFull,
		}, b.auditSink),
	}

	b.built = true
	return engine, nil
}
