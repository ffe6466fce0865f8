package flows

import (
	"context"
	"time"
)

// IssueFailureKind classifies issuance failures for root-level mapping.
type IssueFailureKind int

const (
	IssueFailureNone IssueFailureKind = iota
	IssueFailureNewJTI
	IssueFailureRegister
	IssueFailureSignAccess
	IssueFailureSignRefresh
)

// IssueResult carries either the issued token pair or failure metadata.
type IssueResult struct {
	Failure      IssueFailureKind
	Err          error
	UserID       string
	JTI          string
	AccessToken  string
	RefreshToken string
}

type IssueSessionStore interface {
	Register(ctx context.Context, jti, userID string, ttl time.Duration) error
	Delete(ctx context.Context, jti string) error
}

// IssueMirror receives a durable copy of each issued identifier. The
// mirror is non-authoritative; failures are reported through Warn and
// never fail issuance.
type IssueMirror interface {
	Record(ctx context.Context, jti, userID string, issuedAt, expiresAt time.Time) error
}

// IssueDeps captures issuance flow dependencies.
type IssueDeps struct {
	NewJTI      func() (string, error)
	RefreshTTL  time.Duration
	SignAccess  func(userID, jti string) (string, error)
	SignRefresh func(userID, jti string, ttl time.Duration) (string, error)

	// BindAccess puts the jti into the access token so it stays
	// revocable through the store. Used for the provider-login
	// bridging window; ordinary issuance leaves access tokens
	// unbound.
	BindAccess bool

	SessionStore IssueSessionStore
	Mirror       IssueMirror
	Warn         func(string, ...any)
}

// RunIssue mints a token pair for userID. The refresh identifier is
// registered in the revocation store before any token is signed: a pair
// whose identifier was never registered would later fail rotation
// spuriously, so registration failure aborts the whole issuance.
func RunIssue(ctx context.Context, userID string, deps IssueDeps) IssueResult {
	jti, err := deps.NewJTI()
	if err != nil {
		return IssueResult{
			Failure: IssueFailureNewJTI,
			Err:     err,
			UserID:  userID,
		}
	}

	now := time.Now()
	if err := deps.SessionStore.Register(ctx, jti, userID, deps.RefreshTTL); err != nil {
		return IssueResult{
			Failure: IssueFailureRegister,
			Err:     err,
			UserID:  userID,
			JTI:     jti,
		}
	}

	if deps.Mirror != nil {
		if err := deps.Mirror.Record(ctx, jti, userID, now, now.Add(deps.RefreshTTL)); err != nil && deps.Warn != nil {
			deps.Warn("authcore: mirror record failed")
		}
	}

	accessJTI := ""
	if deps.BindAccess {
		accessJTI = jti
	}
	access, err := deps.SignAccess(userID, accessJTI)
	if err != nil {
		unregisterOnFailure(ctx, deps, jti)
		return IssueResult{
			Failure: IssueFailureSignAccess,
			Err:     err,
			UserID:  userID,
			JTI:     jti,
		}
	}

	refresh, err := deps.SignRefresh(userID, jti, 0)
	if err != nil {
		unregisterOnFailure(ctx, deps, jti)
		return IssueResult{
			Failure: IssueFailureSignRefresh,
			Err:     err,
			UserID:  userID,
			JTI:     jti,
		}
	}

	return IssueResult{
		Failure:      IssueFailureNone,
		UserID:       userID,
		JTI:          jti,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}

// A registered identifier whose tokens never reached the caller is an
// orphan; best-effort cleanup, TTL covers the rest.
func unregisterOnFailure(ctx context.Context, deps IssueDeps, jti string) {
	if err := deps.SessionStore.Delete(ctx, jti); err != nil && deps.Warn != nil {
		deps.Warn("authcore: orphaned session cleanup failed")
	}
}
