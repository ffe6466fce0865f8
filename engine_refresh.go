package authcore

import (
	"context"
	"errors"

	"github.com/glasswing-io/authcore/internal/flows"
	"github.com/glasswing-io/authcore/internal/rate"
)

// Refresh consumes a refresh token and returns its successor pair.
//
// A structurally valid token that cannot rotate always fails with
// ErrRefreshExpired, whether it expired, was revoked, was already
// consumed, or lost a concurrent race for the same identifier. The
// winning caller of such a race gets the only valid successor.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.flows == nil {
		return nil, ErrEngineNotReady
	}

	if e.config.Security.EnableRefreshThrottle {
		if err := e.checkRefreshThrottle(ctx); err != nil {
			return nil, err
		}
	}

	result := e.flows.Refresh(ctx, refreshToken)

	switch result.Failure {
	case flows.RefreshFailureNone:

	case flows.RefreshFailureParseExpired:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, result.UserID, result.OldJTI, ErrRefreshExpired, nil)
		return nil, ErrRefreshExpired

	case flows.RefreshFailureParseInvalid:
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", "", ErrRefreshInvalid, nil)
		return nil, ErrRefreshInvalid

	case flows.RefreshFailureSessionGone, flows.RefreshFailureOwnerMismatch:
		// Replay of a consumed identifier and an owner mismatch are
		// both reuse signals internally, but the caller sees plain
		// expiry. Distinguishing them would hand an attacker an
		// oracle.
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricRefreshReuseDetected)
		e.emitAudit(ctx, auditEventRefreshReuse, false, result.UserID, result.OldJTI, ErrRefreshExpired, func() map[string]string {
			reason := "session_gone"
			if result.Failure == flows.RefreshFailureOwnerMismatch {
				reason = "owner_mismatch"
			}
			return map[string]string{"reason": reason}
		})
		return nil, ErrRefreshExpired

	case flows.RefreshFailureStore:
		e.metricInc(MetricRefreshFailure)
		e.metricInc(MetricStoreUnavailable)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, result.UserID, result.OldJTI, ErrStoreUnavailable, nil)
		return nil, ErrStoreUnavailable

	default:
		e.metricInc(MetricRefreshFailure)
		if result.Err != nil {
			warnf("refresh failed for user %s: %v", result.UserID, result.Err)
		}
		e.emitAudit(ctx, auditEventRefreshInvalid, false, result.UserID, result.OldJTI, ErrSessionCreationFailed, nil)
		return nil, ErrSessionCreationFailed
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, result.UserID, result.NewJTI, nil, nil)

	return &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, nil
}

// The refresh throttle is keyed by client IP because the identifier
// inside the token is unknown until after verification. Callers that
// never attach an IP are not throttled. Limiter transport failures do
// not block rotation; the throttle is a brake, not a gate.
func (e *Engine) checkRefreshThrottle(ctx context.Context) error {
	ip := clientIPFromContext(ctx)
	if ip == "" {
		return nil
	}

	err := e.rateLimiter.CheckRefresh(ctx, ip)
	if err == nil {
		return nil
	}
	if errors.Is(err, rate.ErrRateLimited) {
		e.metricInc(MetricRefreshRateLimited)
		e.emitAudit(ctx, auditEventRefreshRateLimit, false, "", "", ErrRefreshRateLimited, nil)
		return ErrRefreshRateLimited
	}

	warnf("refresh throttle check failed: %v", err)
	return nil
}
