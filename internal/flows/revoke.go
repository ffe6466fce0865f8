package flows

import "context"

// RevokeFailureKind classifies revocation failures.
type RevokeFailureKind int

const (
	RevokeFailureNone RevokeFailureKind = iota
	RevokeFailureParseExpired
	RevokeFailureParseInvalid
	RevokeFailureStore
)

// RevokeResult reports the outcome of a single-session revocation.
type RevokeResult struct {
	Failure RevokeFailureKind
	Err     error
	UserID  string
	JTI     string
}

type RevokeSessionStore interface {
	Delete(ctx context.Context, jti string) error
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
}

// RevokeMirror marks rows revoked in durable storage. Failures never
// affect the store-side outcome.
type RevokeMirror interface {
	Revoke(ctx context.Context, jti string) error
	RevokeAllByUser(ctx context.Context, userID string) (int, error)
}

// RevokeDeps captures revocation flow dependencies.
type RevokeDeps struct {
	ParseRefresh func(token string) (TokenInfo, error)
	IsExpiredErr func(error) bool

	SessionStore RevokeSessionStore
	Mirror       RevokeMirror
	Warn         func(string, ...any)
}

// RunRevoke ends the session named by a refresh token. Revoking a
// session that is already gone succeeds; the caller's intent (that the
// session be dead) already holds.
func RunRevoke(ctx context.Context, token string, deps RevokeDeps) RevokeResult {
	info, err := deps.ParseRefresh(token)
	if err != nil {
		kind := RevokeFailureParseInvalid
		if deps.IsExpiredErr != nil && deps.IsExpiredErr(err) {
			kind = RevokeFailureParseExpired
		}
		return RevokeResult{Failure: kind, Err: err}
	}

	result := RunRevokeSession(ctx, info.JTI, deps)
	result.UserID = info.UserID
	return result
}

// RunRevokeSession ends the session named directly by its identifier,
// for callers that hold a jti rather than the refresh token itself.
// Deleting an identifier with no live session is a no-op success.
func RunRevokeSession(ctx context.Context, jti string, deps RevokeDeps) RevokeResult {
	if err := deps.SessionStore.Delete(ctx, jti); err != nil {
		return RevokeResult{
			Failure: RevokeFailureStore,
			Err:     err,
			JTI:     jti,
		}
	}

	if deps.Mirror != nil {
		if err := deps.Mirror.Revoke(ctx, jti); err != nil && deps.Warn != nil {
			deps.Warn("authcore: mirror revoke failed")
		}
	}

	return RevokeResult{
		Failure: RevokeFailureNone,
		JTI:     jti,
	}
}

// RevokeAllResult reports the outcome of an owner-scoped bulk
// revocation.
type RevokeAllResult struct {
	Failure RevokeFailureKind
	Err     error
	UserID  string
	Revoked int
}

// RunRevokeAll ends every live session owned by userID.
func RunRevokeAll(ctx context.Context, userID string, deps RevokeDeps) RevokeAllResult {
	revoked, err := deps.SessionStore.DeleteAllForUser(ctx, userID)
	if err != nil {
		return RevokeAllResult{
			Failure: RevokeFailureStore,
			Err:     err,
			UserID:  userID,
		}
	}

	if deps.Mirror != nil {
		if _, err := deps.Mirror.RevokeAllByUser(ctx, userID); err != nil && deps.Warn != nil {
			deps.Warn("authcore: mirror bulk revoke failed")
		}
	}

	return RevokeAllResult{
		Failure: RevokeFailureNone,
		UserID:  userID,
		Revoked: revoked,
	}
}
