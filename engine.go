package iamauth

import (
	"context"

	internalaudit "github.com/andyvr/iamauth/internal/audit"
	"github.com/andyvr/iamauth/jwt"
	"github.com/andyvr/iamauth/ratelimit"
	"github.com/andyvr/iamauth/revocation"
	"github.com/rs/zerolog"
)

// Engine is the composition root of the authentication subsystem. It owns no
// mutable in-process state beyond counters; everything cross-request lives in
// Redis, which is what allows horizontal scaling without sticky sessions.
type Engine struct {
	config      Config
	codec       *jwt.Codec
	revocations *revocation.Store
	limiter     *ratelimit.Limiter
	identities  IdentityProvider
	passwords   PasswordVerifier
	audit       *internalaudit.Dispatcher
	metrics     *Metrics
	log         zerolog.Logger
}

// Close flushes and stops the audit dispatcher.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// RateLimiter exposes the admission controller for middleware wiring.
func (e *Engine) RateLimiter() *ratelimit.Limiter {
	if e == nil {
		return nil
	}
	return e.limiter
}

// RevocationFailClosed reports whether a revocation-store outage must reject
// requests outright instead of degrading them to anonymous.
func (e *Engine) RevocationFailClosed() bool {
	if e == nil {
		return false
	}
	return e.config.Revocation.FailClosed
}

// RevokedCount returns the approximate number of blacklisted tokens.
func (e *Engine) RevokedCount(ctx context.Context) (int64, error) {
	if e == nil || e.revocations == nil {
		return 0, ErrEngineNotReady
	}
	return e.revocations.Count(ctx)
}

// AuditDropped returns how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() bool {
	return e != nil && e.codec != nil && e.revocations != nil && e.identities != nil
}
