package iamauth

import (
	"context"

	internalaudit "github.com/andyvr/iamauth/internal/audit"
)

// Audit event types emitted by the engine.
const (
	AuditLoginSuccess  = "login_success"
	AuditLoginFailure  = "login_failure"
	AuditLogout        = "logout"
	AuditRefresh       = "token_refresh"
	AuditTokenRevoked  = "token_revoked"
	AuditTokenRejected = "token_rejected"
)

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, subject string, cause error, metadata map[string]string) {
	if e == nil || e.audit == nil {
		return
	}
	event := internalaudit.Event{
		EventType: eventType,
		Subject:   subject,
		IP:        ClientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	e.audit.Emit(ctx, event)
}
