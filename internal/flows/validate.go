package flows

import "context"

// ValidateFailureKind classifies access validation failures.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureParseExpired
	ValidateFailureParseInvalid
	ValidateFailureRevoked
	ValidateFailureStore
)

// ValidateResult carries the authenticated user or failure metadata.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	UserID  string
	JTI     string
}

type ValidateSessionStore interface {
	IsLive(ctx context.Context, jti string) (bool, error)
}

// ValidateDeps captures access validation dependencies.
type ValidateDeps struct {
	ParseAccess  func(token string) (TokenInfo, error)
	IsExpiredErr func(error) bool

	SessionStore ValidateSessionStore
}

// RunValidate verifies an access token and returns the subject user ID.
//
// Most access tokens carry no session identifier and are valid purely
// by signature and expiry. A token that does carry one is bound to its
// issuing session and additionally requires that session to still be
// live in the store, so revoking the session kills the token before
// its natural expiry.
func RunValidate(ctx context.Context, token string, deps ValidateDeps) ValidateResult {
	info, err := deps.ParseAccess(token)
	if err != nil {
		kind := ValidateFailureParseInvalid
		if deps.IsExpiredErr != nil && deps.IsExpiredErr(err) {
			kind = ValidateFailureParseExpired
		}
		return ValidateResult{Failure: kind, Err: err}
	}

	if info.JTI == "" {
		return ValidateResult{Failure: ValidateFailureNone, UserID: info.UserID}
	}

	live, err := deps.SessionStore.IsLive(ctx, info.JTI)
	if err != nil {
		return ValidateResult{
			Failure: ValidateFailureStore,
			Err:     err,
			UserID:  info.UserID,
			JTI:     info.JTI,
		}
	}
	if !live {
		return ValidateResult{
			Failure: ValidateFailureRevoked,
			UserID:  info.UserID,
			JTI:     info.JTI,
		}
	}

	return ValidateResult{
		Failure: ValidateFailureNone,
		UserID:  info.UserID,
		JTI:     info.JTI,
	}
}
