package iamauth

import (
	"context"
	"errors"
	"fmt"
)

// Authenticate runs the per-request pipeline on a bearer token: codec
// validation, revocation probe, identity lookup, account-state check, and
// principal construction. It never mutates persistent state.
//
// Every failure returns a typed sentinel so the server can log causes
// distinctly; the HTTP middleware collapses all of them into anonymous
// pass-through, which is what keeps a single bad token from failing the
// whole request. The one policy exception is a revocation-store outage under
// [RevocationConfig].FailClosed, which middleware turns into a hard reject.
func (e *Engine) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Validate(token)
	if err != nil {
		// Cause detail stays server-side; callers only ever see ErrTokenInvalid.
		e.log.Debug().Err(err).Msg("token rejected")
		e.metricInc(MetricAuthenticateRejected)
		return nil, err
	}
	subject := claims.Subject

	revoked, err := e.revocations.Contains(ctx, token)
	if err != nil {
		e.log.Error().Err(err).Msg("revocation store unreachable")
		e.metricInc(MetricStoreUnavailable)
		return nil, fmt.Errorf("revocation check for %q: %w", subject, err)
	}
	if revoked {
		e.log.Debug().Str("subject", subject).Msg("revoked token presented")
		e.metricInc(MetricTokenRevokedRejected)
		e.emitAudit(ctx, AuditTokenRejected, false, subject, ErrTokenRevoked, nil)
		return nil, ErrTokenRevoked
	}

	identity, err := e.identities.FindBySubject(ctx, subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			e.log.Debug().Str("subject", subject).Msg("valid token but identity not found")
		} else {
			e.log.Error().Err(err).Str("subject", subject).Msg("identity lookup failed")
		}
		e.metricInc(MetricAuthenticateRejected)
		return nil, err
	}

	if err := identity.Usable(); err != nil {
		e.log.Debug().Str("subject", subject).Err(err).Msg("account not usable")
		e.metricInc(MetricAuthenticateRejected)
		return nil, err
	}

	e.metricInc(MetricAuthenticateSuccess)
	return &Principal{
		Subject:     subject,
		Authorities: e.authorities(identity, claims.Authorities()),
	}, nil
}

// authorities applies the configured authority source: live roles from the
// identity record (role changes take effect immediately) or the set embedded
// in the token at issuance.
func (e *Engine) authorities(identity *Identity, fromToken []string) []string {
	if e.config.AuthoritySource == AuthoritiesFromToken {
		return fromToken
	}
	return append([]string(nil), identity.Authorities...)
}
