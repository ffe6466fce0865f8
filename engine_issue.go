package authcore

import (
	"context"
	"errors"

	"github.com/glasswing-io/authcore/internal/flows"
	"github.com/glasswing-io/authcore/revocation"
)

// Issue mints a fresh token pair for a user the host application has
// already authenticated by its own means. The refresh session is
// registered in the revocation store before either token is signed;
// a pair is never handed out unless its identifier is rotatable.
func (e *Engine) Issue(ctx context.Context, userID string) (*TokenPair, error) {
	if e == nil || e.flows == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrSessionCreationFailed
	}

	return e.issueSession(ctx, userID, false, auditEventIssue)
}

func (e *Engine) issueSession(ctx context.Context, userID string, bindAccess bool, auditEvent string) (*TokenPair, error) {
	result := e.flows.Issue(ctx, userID, bindAccess)
	if result.Failure != flows.IssueFailureNone {
		e.metricInc(MetricIssueFailure)

		err := ErrSessionCreationFailed
		if result.Failure == flows.IssueFailureRegister && errors.Is(result.Err, revocation.ErrUnavailable) {
			e.metricInc(MetricStoreUnavailable)
			err = ErrStoreUnavailable
		}
		if result.Err != nil {
			warnf("issue failed for user %s: %v", userID, result.Err)
		}
		e.emitAudit(ctx, auditEvent, false, userID, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricIssueSuccess)
	e.emitAudit(ctx, auditEvent, true, userID, result.JTI, nil, nil)

	return &TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}, nil
}
