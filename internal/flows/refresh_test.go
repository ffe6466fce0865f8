package flows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glasswing-io/authcore/revocation"
)

type fakeRefreshStore struct {
	rotateErr  error
	rotateTTLs []time.Duration
	deleted    []string
}

func (s *fakeRefreshStore) Rotate(_ context.Context, _, _, _ string, ttl time.Duration) error {
	if s.rotateErr != nil {
		return s.rotateErr
	}
	s.rotateTTLs = append(s.rotateTTLs, ttl)
	return nil
}

func (s *fakeRefreshStore) Delete(_ context.Context, jti string) error {
	s.deleted = append(s.deleted, jti)
	return nil
}

func refreshDeps(store *fakeRefreshStore, expiresAt time.Time) RefreshDeps {
	return RefreshDeps{
		ParseRefresh: func(token string) (TokenInfo, error) {
			if token != "good" {
				return TokenInfo{}, errors.New("bad signature")
			}
			return TokenInfo{UserID: "user-1", JTI: "old-jti", ExpiresAt: expiresAt}, nil
		},
		IsExpiredErr: func(err error) bool { return false },
		NewJTI:       func() (string, error) { return "new-jti", nil },
		SignAccess: func(userID, jti string) (string, error) {
			return "access:" + userID + ":" + jti, nil
		},
		SignRefresh: func(userID, jti string, ttl time.Duration) (string, error) {
			return "refresh:" + userID + ":" + jti, nil
		},
		SessionStore: store,
	}
}

func TestRunRefreshSuccessorInheritsRemainingLifetime(t *testing.T) {
	store := &fakeRefreshStore{}
	deps := refreshDeps(store, time.Now().Add(30*time.Minute))

	var signedTTL time.Duration
	deps.SignRefresh = func(userID, jti string, ttl time.Duration) (string, error) {
		signedTTL = ttl
		return "refresh:" + jti, nil
	}

	result := RunRefresh(context.Background(), "good", deps)
	if result.Failure != RefreshFailureNone {
		t.Fatalf("refresh failed: %v / %v", result.Failure, result.Err)
	}
	if result.OldJTI != "old-jti" || result.NewJTI != "new-jti" {
		t.Fatalf("unexpected identifiers: %q -> %q", result.OldJTI, result.NewJTI)
	}

	// Both the store registration and the signed token must use the
	// remaining window, never a fresh one.
	if len(store.rotateTTLs) != 1 || store.rotateTTLs[0] > 30*time.Minute {
		t.Fatalf("store ttl exceeds remaining lifetime: %v", store.rotateTTLs)
	}
	if signedTTL > 30*time.Minute || signedTTL < 29*time.Minute {
		t.Fatalf("signed ttl not the remaining lifetime: %v", signedTTL)
	}
}

func TestRunRefreshRejectsSpentWindow(t *testing.T) {
	store := &fakeRefreshStore{}
	deps := refreshDeps(store, time.Now().Add(-time.Second))

	result := RunRefresh(context.Background(), "good", deps)
	if result.Failure != RefreshFailureParseExpired {
		t.Fatalf("expected RefreshFailureParseExpired, got %v", result.Failure)
	}
	if len(store.rotateTTLs) != 0 {
		t.Fatal("a spent token must not reach the store")
	}
}

func TestRunRefreshClassifiesStoreOutcomes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want RefreshFailureKind
	}{
		{"consumed identifier", revocation.ErrSessionNotFound, RefreshFailureSessionGone},
		{"foreign owner", revocation.ErrOwnerMismatch, RefreshFailureOwnerMismatch},
		{"transport failure", errors.New("connection refused"), RefreshFailureStore},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := &fakeRefreshStore{rotateErr: tc.err}
			deps := refreshDeps(store, time.Now().Add(time.Hour))

			result := RunRefresh(context.Background(), "good", deps)
			if result.Failure != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, result.Failure)
			}
			if result.AccessToken != "" || result.RefreshToken != "" {
				t.Fatal("no tokens may survive a failed swap")
			}
		})
	}
}

func TestRunRefreshSignFailureDropsSuccessor(t *testing.T) {
	store := &fakeRefreshStore{}
	deps := refreshDeps(store, time.Now().Add(time.Hour))
	deps.SignAccess = func(string, string) (string, error) {
		return "", errors.New("signer broken")
	}

	result := RunRefresh(context.Background(), "good", deps)
	if result.Failure != RefreshFailureSignAccess {
		t.Fatalf("expected RefreshFailureSignAccess, got %v", result.Failure)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "new-jti" {
		t.Fatalf("unreachable successor not dropped: %v", store.deleted)
	}
}

func TestRunRefreshParseExpiryClassification(t *testing.T) {
	expiredErr := errors.New("token is expired")
	deps := refreshDeps(&fakeRefreshStore{}, time.Time{})
	deps.ParseRefresh = func(string) (TokenInfo, error) { return TokenInfo{}, expiredErr }
	deps.IsExpiredErr = func(err error) bool { return errors.Is(err, expiredErr) }

	result := RunRefresh(context.Background(), "whatever", deps)
	if result.Failure != RefreshFailureParseExpired {
		t.Fatalf("expected RefreshFailureParseExpired, got %v", result.Failure)
	}

	deps.IsExpiredErr = func(error) bool { return false }
	result = RunRefresh(context.Background(), "whatever", deps)
	if result.Failure != RefreshFailureParseInvalid {
		t.Fatalf("expected RefreshFailureParseInvalid, got %v", result.Failure)
	}
}

type fakeRefreshMirror struct {
	calls int
	err   error
}

func (m *fakeRefreshMirror) Rotate(_ context.Context, _, _, _ string, _ time.Time) error {
	m.calls++
	return m.err
}

func TestRunRefreshMirrorFailureIsNonFatal(t *testing.T) {
	store := &fakeRefreshStore{}
	mirror := &fakeRefreshMirror{err: errors.New("postgres down")}

	warned := false
	deps := refreshDeps(store, time.Now().Add(time.Hour))
	deps.Mirror = mirror
	deps.Warn = func(string, ...any) { warned = true }

	result := RunRefresh(context.Background(), "good", deps)
	if result.Failure != RefreshFailureNone {
		t.Fatalf("mirror failure must not fail rotation: %v", result.Failure)
	}
	if mirror.calls != 1 {
		t.Fatalf("mirror not consulted: %d calls", mirror.calls)
	}
	if !warned {
		t.Fatal("mirror failure must be reported through Warn")
	}
}
