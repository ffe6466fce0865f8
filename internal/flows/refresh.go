package flows

import (
	"context"
	"errors"
	"time"

	"github.com/glasswing-io/authcore/revocation"
)

// RefreshFailureKind classifies rotation failures for root-level
// mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureParseExpired
	RefreshFailureParseInvalid
	RefreshFailureNewJTI
	RefreshFailureSessionGone
	RefreshFailureOwnerMismatch
	RefreshFailureStore
	RefreshFailureSignAccess
	RefreshFailureSignRefresh
)

// RefreshResult carries either the rotated token pair or failure
// metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	UserID       string
	OldJTI       string
	NewJTI       string
	AccessToken  string
	RefreshToken string
}

// TokenInfo is the decoded shape of a verified token that flow
// functions care about.
type TokenInfo struct {
	UserID    string
	JTI       string
	ExpiresAt time.Time
}

type RefreshSessionStore interface {
	Rotate(ctx context.Context, oldJti, userID, newJti string, ttl time.Duration) error
	Delete(ctx context.Context, jti string) error
}

// RefreshMirror records the lineage step in durable storage. Failures
// never affect the rotation outcome.
type RefreshMirror interface {
	Rotate(ctx context.Context, oldJti, newJti, userID string, expiresAt time.Time) error
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	ParseRefresh func(token string) (TokenInfo, error)
	IsExpiredErr func(error) bool
	NewJTI       func() (string, error)
	SignAccess   func(userID, jti string) (string, error)
	SignRefresh  func(userID, jti string, ttl time.Duration) (string, error)

	SessionStore RefreshSessionStore
	Mirror       RefreshMirror
	Warn         func(string, ...any)
}

// RunRefresh consumes a refresh token and mints its successor pair.
//
// The successor inherits the remaining lifetime of the presented token
// rather than a fresh full window, so a chain of rotations can never
// outlive the session's original expiry. The store-side swap is the
// only authority on whether the presented identifier was still live;
// a token that parses fine but lost the swap gets the same rejection
// as one that was never registered.
func RunRefresh(ctx context.Context, token string, deps RefreshDeps) RefreshResult {
	info, err := deps.ParseRefresh(token)
	if err != nil {
		kind := RefreshFailureParseInvalid
		if deps.IsExpiredErr != nil && deps.IsExpiredErr(err) {
			kind = RefreshFailureParseExpired
		}
		return RefreshResult{Failure: kind, Err: err}
	}

	remaining := time.Until(info.ExpiresAt)
	if remaining <= 0 {
		return RefreshResult{
			Failure: RefreshFailureParseExpired,
			UserID:  info.UserID,
			OldJTI:  info.JTI,
		}
	}

	newJti, err := deps.NewJTI()
	if err != nil {
		return RefreshResult{
			Failure: RefreshFailureNewJTI,
			Err:     err,
			UserID:  info.UserID,
			OldJTI:  info.JTI,
		}
	}

	if err := deps.SessionStore.Rotate(ctx, info.JTI, info.UserID, newJti, remaining); err != nil {
		result := RefreshResult{
			Err:    err,
			UserID: info.UserID,
			OldJTI: info.JTI,
			NewJTI: newJti,
		}
		switch {
		case errors.Is(err, revocation.ErrSessionNotFound):
			result.Failure = RefreshFailureSessionGone
		case errors.Is(err, revocation.ErrOwnerMismatch):
			result.Failure = RefreshFailureOwnerMismatch
		default:
			result.Failure = RefreshFailureStore
		}
		return result
	}

	if deps.Mirror != nil {
		if err := deps.Mirror.Rotate(ctx, info.JTI, newJti, info.UserID, info.ExpiresAt); err != nil && deps.Warn != nil {
			deps.Warn("authcore: mirror rotate failed")
		}
	}

	access, err := deps.SignAccess(info.UserID, "")
	if err != nil {
		dropRotatedSession(ctx, deps, newJti)
		return RefreshResult{
			Failure: RefreshFailureSignAccess,
			Err:     err,
			UserID:  info.UserID,
			OldJTI:  info.JTI,
			NewJTI:  newJti,
		}
	}

	refresh, err := deps.SignRefresh(info.UserID, newJti, remaining)
	if err != nil {
		dropRotatedSession(ctx, deps, newJti)
		return RefreshResult{
			Failure: RefreshFailureSignRefresh,
			Err:     err,
			UserID:  info.UserID,
			OldJTI:  info.JTI,
			NewJTI:  newJti,
		}
	}

	return RefreshResult{
		Failure:      RefreshFailureNone,
		UserID:       info.UserID,
		OldJTI:       info.JTI,
		NewJTI:       newJti,
		AccessToken:  access,
		RefreshToken: refresh,
	}
}

// Signing failed after the swap committed, so the caller gets no
// successor token. Leaving the successor identifier live would strand
// an unreachable session until TTL; dropping it closes the session now,
// which is the fail-closed direction.
func dropRotatedSession(ctx context.Context, deps RefreshDeps, jti string) {
	if err := deps.SessionStore.Delete(ctx, jti); err != nil && deps.Warn != nil {
		deps.Warn("authcore: post-rotation session cleanup failed")
	}
}
