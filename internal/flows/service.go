package flows

import (
	"context"
	"errors"
)

// Service binds the flow functions to one dependency set. It holds no
// mutable state; it exists so the Engine carries a single handle
// instead of rebuilding per-flow dependency structs on every call.
type Service struct {
	deps Deps
}

// New validates the dependency set and returns a flow service.
// Directory and limiter dependencies are optional (engines built
// without a credential surface skip them); everything else is
// required.
func New(deps Deps) (*Service, error) {
	switch {
	case deps.NewJTI == nil:
		return nil, errors.New("flows: NewJTI is required")
	case deps.RefreshTTL <= 0:
		return nil, errors.New("flows: RefreshTTL must be positive")
	case deps.SignAccess == nil || deps.SignRefresh == nil:
		return nil, errors.New("flows: signing funcs are required")
	case deps.ParseAccess == nil || deps.ParseRefresh == nil:
		return nil, errors.New("flows: parsing funcs are required")
	case deps.SessionStore == nil:
		return nil, errors.New("flows: SessionStore is required")
	}
	return &Service{deps: deps}, nil
}

// Issue mints a token pair for userID. bindAccess ties the access
// token to the session for the provider-login bridging window.
func (s *Service) Issue(ctx context.Context, userID string, bindAccess bool) IssueResult {
	return RunIssue(ctx, userID, IssueDeps{
		NewJTI:       s.deps.NewJTI,
		RefreshTTL:   s.deps.RefreshTTL,
		SignAccess:   s.deps.SignAccess,
		SignRefresh:  s.deps.SignRefresh,
		BindAccess:   bindAccess,
		SessionStore: s.deps.SessionStore,
		Mirror:       s.issueMirror(),
		Warn:         s.deps.Warn,
	})
}

// Refresh rotates the session named by a refresh token.
func (s *Service) Refresh(ctx context.Context, token string) RefreshResult {
	return RunRefresh(ctx, token, RefreshDeps{
		ParseRefresh: s.deps.ParseRefresh,
		IsExpiredErr: s.deps.IsExpiredErr,
		NewJTI:       s.deps.NewJTI,
		SignAccess:   s.deps.SignAccess,
		SignRefresh:  s.deps.SignRefresh,
		SessionStore: s.deps.SessionStore,
		Mirror:       s.refreshMirror(),
		Warn:         s.deps.Warn,
	})
}

// Validate verifies an access token.
func (s *Service) Validate(ctx context.Context, token string) ValidateResult {
	return RunValidate(ctx, token, ValidateDeps{
		ParseAccess:  s.deps.ParseAccess,
		IsExpiredErr: s.deps.IsExpiredErr,
		SessionStore: s.deps.SessionStore,
	})
}

// Revoke ends the session named by a refresh token.
func (s *Service) Revoke(ctx context.Context, token string) RevokeResult {
	return RunRevoke(ctx, token, s.revokeDeps())
}

// RevokeSession ends the session named directly by its identifier.
func (s *Service) RevokeSession(ctx context.Context, jti string) RevokeResult {
	return RunRevokeSession(ctx, jti, s.revokeDeps())
}

// RevokeAll ends every live session owned by userID.
func (s *Service) RevokeAll(ctx context.Context, userID string) RevokeAllResult {
	return RunRevokeAll(ctx, userID, s.revokeDeps())
}

// SignIn authenticates an email/password pair. clientIP scopes the
// optional per-IP throttle.
func (s *Service) SignIn(ctx context.Context, email, password, clientIP string) SignInResult {
	return RunSignIn(ctx, email, password, SignInDeps{
		FindByEmail:    s.deps.FindByEmail,
		IsNotFoundErr:  s.deps.IsNotFoundErr,
		VerifyPassword: s.deps.VerifyPassword,
		Limiter:        s.deps.Limiter,
		ClientIP:       clientIP,
		Warn:           s.deps.Warn,
	})
}

// HasDirectory reports whether the credential surface was wired.
func (s *Service) HasDirectory() bool {
	return s.deps.FindByEmail != nil && s.deps.VerifyPassword != nil
}

func (s *Service) revokeDeps() RevokeDeps {
	return RevokeDeps{
		ParseRefresh: s.deps.ParseRefresh,
		IsExpiredErr: s.deps.IsExpiredErr,
		SessionStore: s.deps.SessionStore,
		Mirror:       s.revokeMirror(),
		Warn:         s.deps.Warn,
	}
}

// A nil aggregate Mirror must narrow to a nil per-flow interface, not a
// non-nil interface wrapping nil.

func (s *Service) issueMirror() IssueMirror {
	if s.deps.Mirror == nil {
		return nil
	}
	return s.deps.Mirror
}

func (s *Service) refreshMirror() RefreshMirror {
	if s.deps.Mirror == nil {
		return nil
	}
	return s.deps.Mirror
}

func (s *Service) revokeMirror() RevokeMirror {
	if s.deps.Mirror == nil {
		return nil
	}
	return s.deps.Mirror
}
