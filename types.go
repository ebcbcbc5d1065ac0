package iamauth

import (
	"context"
	"io"

	internalaudit "github.com/andyvr/iamauth/internal/audit"
	"github.com/rs/zerolog"
)

// Identity is the full account record resolved from the external identity
// store. Authorities are the subject's current role names; the pipeline
// re-derives request authorities from them unless [AuthoritiesFromToken] is
// configured.
type Identity struct {
	ID           string
	Subject      string
	PasswordHash string
	Enabled      bool
	Locked       bool
	Authorities  []string
}

// Usable reports whether the account may authenticate right now.
func (i *Identity) Usable() error {
	if !i.Enabled {
		return ErrAccountDisabled
	}
	if i.Locked {
		return ErrAccountLocked
	}
	return nil
}

// IdentityProvider is the lookup-by-identity interface callers must implement
// to connect iamauth to their user store. A missing record is reported as
// [ErrIdentityNotFound], never as a nil Identity.
type IdentityProvider interface {
	FindBySubject(ctx context.Context, subject string) (*Identity, error)
}

// PasswordVerifier checks a raw credential against a stored hash. The
// password/ subpackage ships a bcrypt implementation; any scheme satisfying
// this interface slots in.
type PasswordVerifier interface {
	Verify(raw, hash string) bool
}

// TokenPair is the access+refresh pair issued on login.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Principal is the request-scoped authenticated identity produced by the
// pipeline: the subject plus the authority set in effect for this request.
// It is attached to a request context at most once and never persisted.
type Principal struct {
	Subject     string
	Authorities []string
}

// HasAuthority reports whether the principal carries the given authority.
func (p *Principal) HasAuthority(authority string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// AuthoritySource selects which record the pipeline trusts for the
// principal's authority set.
type AuthoritySource int

const (
	// AuthoritiesFromIdentity re-derives authorities from the live identity
	// record on every request: role changes take effect without waiting for
	// token expiry or revocation. This is the default.
	AuthoritiesFromIdentity AuthoritySource = iota
	// AuthoritiesFromToken trusts the authority set embedded in the access
	// token at issuance time.
	AuthoritiesFromToken
)

// AuditEvent is a structured audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events to an
// [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// LoggerSink is an [AuditSink] that forwards events to a zerolog logger.
type LoggerSink = internalaudit.LoggerSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLoggerSink creates a [LoggerSink] emitting through logger.
func NewLoggerSink(logger zerolog.Logger) *LoggerSink {
	return internalaudit.NewLoggerSink(logger)
}
