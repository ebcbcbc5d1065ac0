package iamauth

import (
	"context"
	"errors"
	"time"
)

// Login verifies the subject's credentials and issues an access+refresh
// token pair. The failure message never reveals whether the subject exists.
func (e *Engine) Login(ctx context.Context, subject, password string) (*TokenPair, error) {
	if !e.ready() || e.passwords == nil {
		return nil, ErrEngineNotReady
	}

	identity, err := e.identities.FindBySubject(ctx, subject)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			e.log.Error().Err(err).Msg("identity lookup failed during login")
			return nil, err
		}
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLoginFailure, false, subject, ErrInvalidCredentials, map[string]string{"reason": "subject_not_found"})
		return nil, ErrInvalidCredentials
	}

	if password == "" || !e.passwords.Verify(password, identity.PasswordHash) {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLoginFailure, false, subject, ErrInvalidCredentials, map[string]string{"reason": "password_mismatch"})
		return nil, ErrInvalidCredentials
	}

	if err := identity.Usable(); err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, AuditLoginFailure, false, subject, err, map[string]string{"reason": "account_state"})
		return nil, err
	}

	access, err := e.codec.IssueAccess(identity.Subject, identity.Authorities)
	if err != nil {
		return nil, err
	}
	refresh, err := e.codec.IssueRefresh(identity.Subject)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, AuditLoginSuccess, true, identity.Subject, nil, nil)
	e.log.Info().Str("subject", identity.Subject).Msg("login succeeded")

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Logout revokes both tokens of a session for their remaining natural
// lifetime. Tokens that are already expired are skipped: there is nothing
// left to blacklist. A store outage is a hard error; silently completing a
// logout that revoked nothing would defeat revocation.
func (e *Engine) Logout(ctx context.Context, accessToken, refreshToken string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	var subject string
	for _, token := range []string{accessToken, refreshToken} {
		if token == "" {
			continue
		}
		s, err := e.revoke(ctx, token)
		if err != nil {
			return err
		}
		if s != "" {
			subject = s
		}
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, AuditLogout, true, subject, nil, nil)
	return nil
}

// RevokeToken blacklists a single token for its remaining lifetime.
// Administrative escape hatch; logout is the steady-state path.
func (e *Engine) RevokeToken(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	subject, err := e.revoke(ctx, token)
	if err != nil {
		return err
	}
	e.emitAudit(ctx, AuditTokenRevoked, true, subject, nil, nil)
	return nil
}

// revoke adds one token to the blacklist and reports its subject. Malformed
// or expired tokens are skipped without error: the former cannot
// authenticate anyway, the latter is already dead.
func (e *Engine) revoke(ctx context.Context, token string) (string, error) {
	expiry, err := e.codec.ExpiryOf(token)
	if err != nil {
		e.log.Debug().Err(err).Msg("unverifiable token presented for revocation")
		return "", nil
	}

	remaining := time.Until(expiry)
	if remaining <= 0 {
		e.log.Debug().Msg("token already expired, not blacklisting")
		return subjectOf(e, token), nil
	}

	if err := e.revocations.Add(ctx, token, remaining); err != nil {
		e.log.Error().Err(err).Msg("revocation store write failed")
		e.metricInc(MetricStoreUnavailable)
		return "", err
	}
	e.metricInc(MetricTokenRevoked)
	return subjectOf(e, token), nil
}

// RefreshResult carries the outcome of a successful token refresh.
type RefreshResult struct {
	AccessToken string
	Subject     string
}

// Refresh validates a refresh token through the same checks as the request
// pipeline and issues a new access token. The refresh token itself is not
// rotated; it stays valid until expiry or logout.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	claims, err := e.codec.Validate(refreshToken)
	if err != nil {
		e.log.Debug().Err(err).Msg("refresh token rejected")
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}
	subject := claims.Subject

	revoked, err := e.revocations.Contains(ctx, refreshToken)
	if err != nil {
		e.log.Error().Err(err).Msg("revocation store unreachable during refresh")
		e.metricInc(MetricStoreUnavailable)
		return nil, err
	}
	if revoked {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefresh, false, subject, ErrTokenRevoked, nil)
		return nil, ErrTokenRevoked
	}

	identity, err := e.identities.FindBySubject(ctx, subject)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}
	if err := identity.Usable(); err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, AuditRefresh, false, subject, err, nil)
		return nil, err
	}

	// The new access token embeds the identity's current authorities, so a
	// role change propagates on the next refresh.
	access, err := e.codec.IssueAccess(identity.Subject, identity.Authorities)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, AuditRefresh, true, subject, nil, nil)
	return &RefreshResult{AccessToken: access, Subject: identity.Subject}, nil
}

func subjectOf(e *Engine, token string) string {
	claims, err := e.codec.Validate(token)
	if err != nil {
		return ""
	}
	return claims.Subject
}
