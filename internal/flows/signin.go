package flows

import "context"

// SignInFailureKind classifies credential authentication failures.
type SignInFailureKind int

const (
	SignInFailureNone SignInFailureKind = iota
	SignInFailureRateLimited
	SignInFailureUserNotFound
	SignInFailureBadPassword
	SignInFailureDirectory
	SignInFailureVerifier
	SignInFailureLimiter
)

// SignInResult carries the authenticated user ID or failure metadata.
type SignInResult struct {
	Failure SignInFailureKind
	Err     error
	UserID  string
}

// DirectoryUser is the slice of an identity record the sign-in flow
// needs.
type DirectoryUser struct {
	ID           string
	PasswordHash string
}

// SignInLimiter throttles credential attempts per identifier and,
// optionally, per client IP.
type SignInLimiter interface {
	CheckLogin(ctx context.Context, identifier, ip string) (bool, error)
	IncrementLogin(ctx context.Context, identifier, ip string) error
	ResetLogin(ctx context.Context, identifier, ip string) error
}

// SignInDeps captures sign-in flow dependencies.
type SignInDeps struct {
	FindByEmail    func(ctx context.Context, email string) (DirectoryUser, error)
	IsNotFoundErr  func(error) bool
	VerifyPassword func(hash, password string) (bool, error)

	Limiter  SignInLimiter
	ClientIP string
	Warn     func(string, ...any)
}

// RunSignIn authenticates an email/password pair against the identity
// directory. It only establishes WHO the caller is; minting the session
// is a separate issuance step so that provider logins and sign-ups
// share it.
//
// An unknown email and a wrong password both count against the limiter
// and both surface as distinct kinds here; the root package collapses
// them into one caller-facing error to avoid an account oracle.
func RunSignIn(ctx context.Context, email, password string, deps SignInDeps) SignInResult {
	if deps.Limiter != nil {
		allowed, err := deps.Limiter.CheckLogin(ctx, email, deps.ClientIP)
		if err != nil {
			return SignInResult{Failure: SignInFailureLimiter, Err: err}
		}
		if !allowed {
			return SignInResult{Failure: SignInFailureRateLimited}
		}
	}

	user, err := deps.FindByEmail(ctx, email)
	if err != nil {
		if deps.IsNotFoundErr != nil && deps.IsNotFoundErr(err) {
			countFailedAttempt(ctx, email, deps)
			return SignInResult{Failure: SignInFailureUserNotFound, Err: err}
		}
		return SignInResult{Failure: SignInFailureDirectory, Err: err}
	}

	ok, err := deps.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return SignInResult{Failure: SignInFailureVerifier, Err: err, UserID: user.ID}
	}
	if !ok {
		countFailedAttempt(ctx, email, deps)
		return SignInResult{Failure: SignInFailureBadPassword, UserID: user.ID}
	}

	if deps.Limiter != nil {
		if err := deps.Limiter.ResetLogin(ctx, email, deps.ClientIP); err != nil && deps.Warn != nil {
			deps.Warn("authcore: login limiter reset failed")
		}
	}

	return SignInResult{Failure: SignInFailureNone, UserID: user.ID}
}

func countFailedAttempt(ctx context.Context, email string, deps SignInDeps) {
	if deps.Limiter == nil {
		return
	}
	if err := deps.Limiter.IncrementLogin(ctx, email, deps.ClientIP); err != nil && deps.Warn != nil {
		deps.Warn("authcore: login limiter increment failed")
	}
}
