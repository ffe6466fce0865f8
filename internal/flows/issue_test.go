package flows

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeIssueStore struct {
	registered  []string
	deleted     []string
	registerBy  map[string]string
	registerErr error
}

func (s *fakeIssueStore) Register(_ context.Context, jti, userID string, ttl time.Duration) error {
	if s.registerErr != nil {
		return s.registerErr
	}
	s.registered = append(s.registered, jti)
	if s.registerBy == nil {
		s.registerBy = map[string]string{}
	}
	s.registerBy[jti] = userID
	return nil
}

func (s *fakeIssueStore) Delete(_ context.Context, jti string) error {
	s.deleted = append(s.deleted, jti)
	return nil
}

type fakeIssueMirror struct {
	recorded []string
	err      error
}

func (m *fakeIssueMirror) Record(_ context.Context, jti, _ string, _, _ time.Time) error {
	if m.err != nil {
		return m.err
	}
	m.recorded = append(m.recorded, jti)
	return nil
}

func issueDeps(store *fakeIssueStore) IssueDeps {
	return IssueDeps{
		NewJTI:     func() (string, error) { return "jti-1", nil },
		RefreshTTL: time.Hour,
		SignAccess: func(userID, jti string) (string, error) {
			return "access:" + userID + ":" + jti, nil
		},
		SignRefresh: func(userID, jti string, ttl time.Duration) (string, error) {
			return "refresh:" + userID + ":" + jti, nil
		},
		SessionStore: store,
	}
}

func TestRunIssueRegistersBeforeSigning(t *testing.T) {
	store := &fakeIssueStore{}
	deps := issueDeps(store)

	signed := false
	inner := deps.SignAccess
	deps.SignAccess = func(userID, jti string) (string, error) {
		if len(store.registered) == 0 {
			t.Error("signing ran before the identifier was registered")
		}
		signed = true
		return inner(userID, jti)
	}

	result := RunIssue(context.Background(), "user-1", deps)
	if result.Failure != IssueFailureNone {
		t.Fatalf("issue failed: %v / %v", result.Failure, result.Err)
	}
	if !signed {
		t.Fatal("access token was never signed")
	}
	if store.registerBy["jti-1"] != "user-1" {
		t.Fatalf("identifier registered to wrong owner: %v", store.registerBy)
	}
	if result.AccessToken != "access:user-1:" {
		t.Fatalf("access token must be unbound by default: %q", result.AccessToken)
	}
	if result.RefreshToken != "refresh:user-1:jti-1" {
		t.Fatalf("unexpected refresh token: %q", result.RefreshToken)
	}
}

func TestRunIssueBindAccess(t *testing.T) {
	store := &fakeIssueStore{}
	deps := issueDeps(store)
	deps.BindAccess = true

	result := RunIssue(context.Background(), "user-1", deps)
	if result.Failure != IssueFailureNone {
		t.Fatalf("issue failed: %v", result.Failure)
	}
	if result.AccessToken != "access:user-1:jti-1" {
		t.Fatalf("bound access token must carry the session identifier: %q", result.AccessToken)
	}
}

func TestRunIssueRegisterFailureAbortsSigning(t *testing.T) {
	store := &fakeIssueStore{registerErr: errors.New("redis down")}
	deps := issueDeps(store)
	deps.SignAccess = func(string, string) (string, error) {
		t.Error("signing must not run when registration failed")
		return "", nil
	}

	result := RunIssue(context.Background(), "user-1", deps)
	if result.Failure != IssueFailureRegister {
		t.Fatalf("expected IssueFailureRegister, got %v", result.Failure)
	}
	if result.AccessToken != "" || result.RefreshToken != "" {
		t.Fatal("no tokens may survive a registration failure")
	}
}

func TestRunIssueSignFailureCleansUpSession(t *testing.T) {
	store := &fakeIssueStore{}
	deps := issueDeps(store)
	deps.SignRefresh = func(string, string, time.Duration) (string, error) {
		return "", errors.New("signer broken")
	}

	result := RunIssue(context.Background(), "user-1", deps)
	if result.Failure != IssueFailureSignRefresh {
		t.Fatalf("expected IssueFailureSignRefresh, got %v", result.Failure)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "jti-1" {
		t.Fatalf("orphaned identifier not cleaned up: %v", store.deleted)
	}
}

func TestRunIssueMirrorFailureIsNonFatal(t *testing.T) {
	store := &fakeIssueStore{}
	mirror := &fakeIssueMirror{err: errors.New("postgres down")}

	warned := false
	deps := issueDeps(store)
	deps.Mirror = mirror
	deps.Warn = func(string, ...any) { warned = true }

	result := RunIssue(context.Background(), "user-1", deps)
	if result.Failure != IssueFailureNone {
		t.Fatalf("mirror failure must not fail issuance: %v", result.Failure)
	}
	if !warned {
		t.Fatal("mirror failure must be reported through Warn")
	}
}

func TestRunIssueMirrorRecordsIdentifier(t *testing.T) {
	store := &fakeIssueStore{}
	mirror := &fakeIssueMirror{}

	deps := issueDeps(store)
	deps.Mirror = mirror

	result := RunIssue(context.Background(), "user-1", deps)
	if result.Failure != IssueFailureNone {
		t.Fatalf("issue failed: %v", result.Failure)
	}
	if len(mirror.recorded) != 1 || mirror.recorded[0] != "jti-1" {
		t.Fatalf("mirror missed the identifier: %v", mirror.recorded)
	}
}
