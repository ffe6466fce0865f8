package authcore

import (
	"context"
	"errors"
	"strings"

	"github.com/glasswing-io/authcore/internal/flows"
)

// SignUpInput describes a new local account.
type SignUpInput struct {
	Email       string
	Password    string
	DisplayName string
}

// SignIn authenticates an email/password pair and mints a session.
// Unknown emails and wrong passwords are indistinguishable to the
// caller.
func (e *Engine) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	if e == nil || e.flows == nil {
		return nil, ErrEngineNotReady
	}
	if e.directory == nil {
		return nil, ErrDirectoryNotConfigured
	}

	result := e.flows.SignIn(ctx, email, password, clientIPFromContext(ctx))

	switch result.Failure {
	case flows.SignInFailureNone:

	case flows.SignInFailureRateLimited:
		e.metricInc(MetricSignInRateLimited)
		e.emitAudit(ctx, auditEventSignInRateLimited, false, "", "", ErrLoginRateLimited, nil)
		return nil, ErrLoginRateLimited

	case flows.SignInFailureUserNotFound, flows.SignInFailureBadPassword:
		e.metricInc(MetricSignInFailure)
		e.emitAudit(ctx, auditEventSignInFailure, false, result.UserID, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials

	case flows.SignInFailureDirectory, flows.SignInFailureVerifier:
		e.metricInc(MetricSignInFailure)
		if result.Err != nil {
			warnf("sign-in backend failure: %v", result.Err)
		}
		e.emitAudit(ctx, auditEventSignInFailure, false, result.UserID, "", ErrDirectoryUnavailable, nil)
		return nil, ErrDirectoryUnavailable

	case flows.SignInFailureLimiter:
		e.metricInc(MetricSignInFailure)
		e.metricInc(MetricStoreUnavailable)
		return nil, ErrStoreUnavailable

	default:
		e.metricInc(MetricSignInFailure)
		return nil, ErrInvalidCredentials
	}

	e.metricInc(MetricSignInSuccess)

	return e.issueSession(ctx, result.UserID, false, auditEventSignInSuccess)
}

// SignUp creates a local account and signs it in.
func (e *Engine) SignUp(ctx context.Context, input SignUpInput) (*TokenPair, error) {
	if e == nil || e.flows == nil {
		return nil, ErrEngineNotReady
	}
	if e.directory == nil {
		return nil, ErrDirectoryNotConfigured
	}

	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	hash, err := e.verifier.HashPassword(input.Password)
	if err != nil {
		warnf("password hashing failed: %v", err)
		return nil, ErrSessionCreationFailed
	}

	identity, err := e.directory.CreateUser(ctx, CreateIdentityInput{
		Email:        email,
		PasswordHash: hash,
		DisplayName:  input.DisplayName,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.emitAudit(ctx, auditEventSignUp, false, "", "", ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		warnf("account creation failed: %v", err)
		e.emitAudit(ctx, auditEventSignUp, false, "", "", ErrDirectoryUnavailable, nil)
		return nil, ErrDirectoryUnavailable
	}

	return e.issueSession(ctx, identity.ID, false, auditEventSignUp)
}

// ProviderLogin signs in an identity asserted by an external provider,
// creating the local identity on first contact.
//
// The access token of the returned pair is bound to its session, so a
// later RevokeAll cuts the bridging window short instead of waiting
// out the token's natural expiry.
func (e *Engine) ProviderLogin(ctx context.Context, profile ProviderProfile) (*TokenPair, error) {
	if e == nil || e.flows == nil {
		return nil, ErrEngineNotReady
	}
	if e.directory == nil {
		return nil, ErrDirectoryNotConfigured
	}

	if profile.Provider == "" || profile.Subject == "" {
		return nil, ErrProviderProfileInvalid
	}

	email := profile.Email
	if email == "" {
		// Providers may withhold the address; a deterministic
		// placeholder keeps first contact and every return visit
		// resolving to the same identity.
		email = profile.Subject + "@" + profile.Provider + ".local"
	}

	identity, err := e.directory.FindByEmail(ctx, email)
	switch {
	case err == nil:

	case errors.Is(err, ErrUserNotFound):
		identity, err = e.directory.CreateUser(ctx, CreateIdentityInput{
			Email:           email,
			DisplayName:     profile.DisplayName,
			Provider:        profile.Provider,
			ProviderSubject: profile.Subject,
		})
		if err != nil {
			warnf("provider identity creation failed: %v", err)
			e.emitAudit(ctx, auditEventProviderLogin, false, "", "", ErrDirectoryUnavailable, nil)
			return nil, ErrDirectoryUnavailable
		}

	default:
		warnf("provider identity lookup failed: %v", err)
		e.emitAudit(ctx, auditEventProviderLogin, false, "", "", ErrDirectoryUnavailable, nil)
		return nil, ErrDirectoryUnavailable
	}

	return e.issueSession(ctx, identity.ID, true, auditEventProviderLogin)
}

func (e *Engine) findDirectoryUser(ctx context.Context, email string) (flows.DirectoryUser, error) {
	identity, err := e.directory.FindByEmail(ctx, email)
	if err != nil {
		return flows.DirectoryUser{}, err
	}
	return flows.DirectoryUser{
		ID:           identity.ID,
		PasswordHash: identity.PasswordHash,
	}, nil
}
