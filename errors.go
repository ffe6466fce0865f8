package authcore

import "errors"

var (
	// ErrInvalidCredentials is returned by SignIn for a wrong password
	// and for an unknown email alike, so callers cannot probe which
	// accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is the sentinel a Directory implementation must
	// return (or wrap) when a lookup matches no identity.
	ErrUserNotFound = errors.New("user not found")
	// ErrAccountExists is the sentinel a Directory implementation must
	// return (or wrap) when CreateUser hits a duplicate email.
	ErrAccountExists = errors.New("account already exists")
	// ErrLoginRateLimited is returned by SignIn while the credential
	// throttle window is active.
	ErrLoginRateLimited = errors.New("login rate limited")
	// ErrRefreshRateLimited is returned by Refresh while the refresh
	// throttle window is active.
	ErrRefreshRateLimited = errors.New("refresh rate limited")
	// ErrTokenInvalid is returned for access tokens that fail
	// signature, claim, or shape checks.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrTokenExpired is returned for access tokens past their expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is returned for session-bound access tokens
	// whose backing session is no longer live.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrRefreshInvalid is returned for refresh tokens that fail
	// signature, claim, or shape checks.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshExpired is returned whenever a structurally valid
	// refresh token cannot rotate: natural expiry, prior revocation,
	// replay of a consumed identifier, owner mismatch, or losing a
	// concurrent rotation race. The causes are deliberately
	// indistinguishable to the caller.
	ErrRefreshExpired = errors.New("refresh token expired or revoked")
	// ErrStoreUnavailable is returned when the revocation store cannot
	// be reached. Operations fail closed rather than assume liveness.
	ErrStoreUnavailable = errors.New("revocation store unavailable")
	// ErrDirectoryUnavailable is returned when the identity directory
	// fails for reasons other than a missing record.
	ErrDirectoryUnavailable = errors.New("identity directory unavailable")
	// ErrProviderProfileInvalid is returned by ProviderLogin when the
	// external profile lacks a provider name or subject identifier.
	ErrProviderProfileInvalid = errors.New("invalid provider profile")
	// ErrSessionCreationFailed is returned when a token pair could not
	// be minted after the caller was authenticated.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrDirectoryNotConfigured is returned by the credential
	// operations of an Engine built without a Directory.
	ErrDirectoryNotConfigured = errors.New("identity directory not configured")
	// ErrEngineNotReady is returned when an operation is invoked on a
	// nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
