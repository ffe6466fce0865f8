package authcore

import (
	"context"
	"fmt"
	"strconv"

	"github.com/glasswing-io/authcore/internal"
	"github.com/glasswing-io/authcore/internal/flows"
)

// Revoke ends the session named by a refresh token. Revoking a session
// that no longer exists succeeds: the caller wanted it dead and it is.
// The token itself must still verify; an unreadable token reveals
// nothing to revoke.
func (e *Engine) Revoke(ctx context.Context, refreshToken string) error {
	if e == nil || e.flows == nil {
		return ErrEngineNotReady
	}

	result := e.flows.Revoke(ctx, refreshToken)

	switch result.Failure {
	case flows.RevokeFailureNone:

	case flows.RevokeFailureParseExpired:
		return ErrRefreshExpired

	case flows.RevokeFailureParseInvalid:
		return ErrRefreshInvalid

	case flows.RevokeFailureStore:
		e.metricInc(MetricStoreUnavailable)
		return ErrStoreUnavailable

	default:
		return ErrRefreshInvalid
	}

	e.metricInc(MetricRevoke)
	e.emitAudit(ctx, auditEventRevokeSession, true, result.UserID, result.JTI, nil, nil)

	return nil
}

// RevokeSession ends the session named by its identifier, for callers
// that hold a jti rather than the refresh token itself: the SessionID
// of a validated session-bound access token, or an identifier read
// back from audit or mirror records. Revoking an identifier with no
// live session succeeds.
func (e *Engine) RevokeSession(ctx context.Context, jti string) error {
	if e == nil || e.flows == nil {
		return ErrEngineNotReady
	}

	if err := internal.ValidateJTI(jti); err != nil {
		return fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
	}

	result := e.flows.RevokeSession(ctx, jti)
	if result.Failure != flows.RevokeFailureNone {
		e.metricInc(MetricStoreUnavailable)
		return ErrStoreUnavailable
	}

	e.metricInc(MetricRevoke)
	e.emitAudit(ctx, auditEventRevokeSession, true, "", jti, nil, nil)

	return nil
}

// RevokeAll ends every live session owned by userID and returns how
// many the store dropped. Sessions issued concurrently with this call
// may survive; see the revocation store's bulk-delete semantics.
func (e *Engine) RevokeAll(ctx context.Context, userID string) (int, error) {
	if e == nil || e.flows == nil {
		return 0, ErrEngineNotReady
	}

	result := e.flows.RevokeAll(ctx, userID)
	if result.Failure != flows.RevokeFailureNone {
		e.metricInc(MetricStoreUnavailable)
		return 0, ErrStoreUnavailable
	}

	e.metricInc(MetricRevokeAll)
	e.emitAudit(ctx, auditEventRevokeAll, true, userID, "", nil, func() map[string]string {
		return map[string]string{"revoked": strconv.Itoa(result.Revoked)}
	})

	return result.Revoked, nil
}
