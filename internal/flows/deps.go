package flows

import (
	"context"
	"time"
)

// SessionStore is the full revocation-store surface the flows use.
// Per-flow dependency structs narrow it to what each flow touches.
type SessionStore interface {
	IssueSessionStore
	RefreshSessionStore
	ValidateSessionStore
	RevokeSessionStore
}

// Mirror is the full durable-mirror surface the flows use. Optional;
// every mirror call is best-effort on the hot path.
type Mirror interface {
	IssueMirror
	RefreshMirror
	RevokeMirror
}

// Deps aggregates everything the flow service needs. The Engine builds
// one of these at construction time; flows never reach outside it.
type Deps struct {
	NewJTI     func() (string, error)
	RefreshTTL time.Duration

	SignAccess   func(userID, jti string) (string, error)
	SignRefresh  func(userID, jti string, ttl time.Duration) (string, error)
	ParseAccess  func(token string) (TokenInfo, error)
	ParseRefresh func(token string) (TokenInfo, error)
	IsExpiredErr func(error) bool

	SessionStore SessionStore
	Mirror       Mirror

	FindByEmail    func(ctx context.Context, email string) (DirectoryUser, error)
	IsNotFoundErr  func(error) bool
	VerifyPassword func(hash, password string) (bool, error)
	Limiter        SignInLimiter

	Warn func(string, ...any)
}
