package authcore

import (
	"context"
	"time"

	"github.com/glasswing-io/authcore/internal/flows"
)

// Validate verifies an access token and returns the authenticated
// subject.
//
// Ordinary access tokens are validated statelessly. Session-bound
// tokens additionally require their session to be live; when the
// revocation store is unreachable those fail with ErrStoreUnavailable
// rather than pass unverified.
func (e *Engine) Validate(ctx context.Context, token string) (*AuthResult, error) {
	if e == nil || e.flows == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	result := e.flows.Validate(ctx, token)
	e.metricObserve(MetricValidateLatency, time.Since(start))

	switch result.Failure {
	case flows.ValidateFailureNone:

	case flows.ValidateFailureParseExpired:
		e.metricInc(MetricValidateFailure)
		return nil, ErrTokenExpired

	case flows.ValidateFailureParseInvalid:
		e.metricInc(MetricValidateFailure)
		return nil, ErrTokenInvalid

	case flows.ValidateFailureRevoked:
		e.metricInc(MetricValidateFailure)
		e.metricInc(MetricTokenRevokedHit)
		e.emitAudit(ctx, auditEventValidateRevoked, false, result.UserID, result.JTI, ErrTokenRevoked, nil)
		return nil, ErrTokenRevoked

	case flows.ValidateFailureStore:
		e.metricInc(MetricValidateFailure)
		e.metricInc(MetricStoreUnavailable)
		return nil, ErrStoreUnavailable

	default:
		e.metricInc(MetricValidateFailure)
		return nil, ErrTokenInvalid
	}

	e.metricInc(MetricValidateSuccess)

	return &AuthResult{
		UserID:    result.UserID,
		SessionID: result.JTI,
	}, nil
}

func (e *Engine) parseAccessInfo(token string) (flows.TokenInfo, error) {
	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		return flows.TokenInfo{}, err
	}

	info := flows.TokenInfo{
		UserID: claims.Subject,
		JTI:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

func (e *Engine) parseRefreshInfo(token string) (flows.TokenInfo, error) {
	claims, err := e.jwtManager.ParseRefresh(token)
	if err != nil {
		return flows.TokenInfo{}, err
	}

	info := flows.TokenInfo{
		UserID: claims.Subject,
		JTI:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}
