package authcore

import "context"

// TokenPair is the product of every successful issuance: a short-lived
// access token and the refresh token that can replace the pair exactly
// once.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is the outcome of validating an access token.
type AuthResult struct {
	UserID string
	// SessionID is set only for session-bound access tokens; ordinary
	// access tokens carry no session linkage.
	SessionID string
}

// Identity is the directory record the Engine needs. PasswordHash is
// empty for identities created through an external provider.
type Identity struct {
	ID           string
	Email        string
	PasswordHash string
}

// CreateIdentityInput describes a new identity for Directory.CreateUser.
type CreateIdentityInput struct {
	Email        string
	PasswordHash string
	DisplayName  string
	// Provider and ProviderSubject are set for identities created
	// through an external provider login.
	Provider        string
	ProviderSubject string
}

// Directory is the host application's identity backend. The Engine
// owns sessions and tokens; it never owns user records.
//
// Implementations must return (or wrap) ErrUserNotFound for missing
// records and ErrAccountExists for duplicate emails, so the Engine can
// distinguish those outcomes from backend failures.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (Identity, error)
	FindByID(ctx context.Context, id string) (Identity, error)
	CreateUser(ctx context.Context, input CreateIdentityInput) (Identity, error)
}

// CredentialVerifier abstracts the password hash scheme. The Engine
// never sees hash parameters; it delegates both directions to the host.
type CredentialVerifier interface {
	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) (bool, error)
}

// ProviderProfile is the identity asserted by an external provider
// after the host application completed that provider's own flow.
type ProviderProfile struct {
	// Provider names the source, e.g. "google".
	Provider string
	// Subject is the provider's stable identifier for this user.
	Subject string
	// Email may be empty; some providers withhold it. The Engine
	// synthesizes a placeholder address when creating the identity.
	Email       string
	DisplayName string
}
