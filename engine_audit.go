package authcore

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignInSuccess     = "signin_success"
	auditEventSignInFailure     = "signin_failure"
	auditEventSignInRateLimited = "signin_rate_limited"
	auditEventSignUp            = "signup"
	auditEventProviderLogin     = "provider_login"
	auditEventIssue             = "session_issued"
	auditEventRefreshSuccess    = "refresh_success"
	auditEventRefreshInvalid    = "refresh_invalid"
	auditEventRefreshReuse      = "refresh_reuse_detected"
	auditEventRefreshRateLimit  = "refresh_rate_limited"
	auditEventRevokeSession     = "revoke_session"
	auditEventRevokeAll         = "revoke_all"
	auditEventValidateRevoked   = "validate_revoked"
)

// AuditErrorCode is the stable, low-cardinality error label recorded
// on failed events in place of raw error text.
type AuditErrorCode string

const (
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrUserNotFound       AuditErrorCode = "user_not_found"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrInvalidToken       AuditErrorCode = "invalid_token"
	auditErrExpiredToken       AuditErrorCode = "expired_token"
	auditErrRevokedToken       AuditErrorCode = "revoked_token"
	auditErrRefreshExpired     AuditErrorCode = "refresh_expired"
	auditErrRefreshReuse       AuditErrorCode = "refresh_reuse"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, ErrAccountExists):
		return auditErrDuplicate
	case errors.Is(err, ErrLoginRateLimited), errors.Is(err, ErrRefreshRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrTokenExpired):
		return auditErrExpiredToken
	case errors.Is(err, ErrTokenRevoked):
		return auditErrRevokedToken
	case errors.Is(err, ErrRefreshExpired):
		return auditErrRefreshExpired
	case errors.Is(err, ErrTokenInvalid), errors.Is(err, ErrRefreshInvalid):
		return auditErrInvalidToken
	case errors.Is(err, ErrStoreUnavailable), errors.Is(err, ErrDirectoryUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	userID string,
	sessionID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}
