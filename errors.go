package iamauth

import (
	"errors"

	"github.com/andyvr/iamauth/jwt"
	"github.com/andyvr/iamauth/revocation"
)

var (
	// ErrEngineNotReady is returned when an Engine method is called before
	// the builder wired all required dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrInvalidCredentials is the generic login failure. It deliberately
	// does not reveal whether the subject exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrIdentityNotFound is returned by IdentityProvider implementations
	// when no record matches the subject.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrAccountDisabled is returned when the account's enabled flag is off.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountLocked is returned when the account is locked.
	ErrAccountLocked = errors.New("account locked")
	// ErrTokenRevoked is returned when a structurally valid token sits on the
	// revocation blacklist.
	ErrTokenRevoked = errors.New("token revoked")

	// ErrTokenInvalid is the opaque rejection for malformed, forged, or
	// expired tokens. Shared with the jwt package so errors.Is works across
	// layers.
	ErrTokenInvalid = jwt.ErrTokenInvalid
	// ErrStoreUnavailable reports a revocation-store outage. It only escapes
	// Authenticate when Revocation.FailClosed is set; the fail-open default
	// degrades to anonymous instead.
	ErrStoreUnavailable = revocation.ErrStoreUnavailable
)
