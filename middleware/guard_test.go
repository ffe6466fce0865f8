package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	authcore "github.com/glasswing-io/authcore"
)

func newGuardedEngine(t *testing.T) (*authcore.Engine, func()) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis run failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg, err := authcore.ConfigFromEnv()
	if err != nil {
		t.Fatalf("ConfigFromEnv failed: %v", err)
	}
	cfg.JWT.AccessSecret = []byte("guard-access-secret-0123456789")
	cfg.JWT.RefreshSecret = []byte("guard-refresh-secret-0123456789")

	engine, err := authcore.New().WithConfig(cfg).WithRedis(rdb).Build()
	if err != nil {
		t.Fatalf("engine build failed: %v", err)
	}

	return engine, func() {
		engine.Close()
		_ = rdb.Close()
		mr.Close()
	}
}

func okHandler(t *testing.T, sawResult **authcore.AuthResult) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := AuthResultFromContext(r.Context())
		if !ok {
			t.Error("auth result missing from request context")
		}
		if sawResult != nil {
			*sawResult = res
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireBearerPassesValidToken(t *testing.T) {
	engine, done := newGuardedEngine(t)
	defer done()

	pair, err := engine.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	var seen *authcore.AuthResult
	handler := RequireBearer(engine)(okHandler(t, &seen))

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.UserID != "user-1" {
		t.Fatalf("unexpected auth result: %+v", seen)
	}
}

func TestGuardRejectsMissingAndBadTokens(t *testing.T) {
	engine, done := newGuardedEngine(t)
	defer done()

	handler := RequireBearer(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a valid token")
	}))

	cases := []struct {
		name  string
		setup func(*http.Request)
	}{
		{"no credential", func(r *http.Request) {}},
		{"garbage token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer garbage") }},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic dXNlcjpwdw==") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			tc.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestRequireCookieReadsAccessCookie(t *testing.T) {
	engine, done := newGuardedEngine(t)
	defer done()

	pair, err := engine.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	handler := RequireCookie(engine, "at")(okHandler(t, nil))

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.AddCookie(&http.Cookie{Name: "at", Value: pair.AccessToken})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestGuardWithNilEngine(t *testing.T) {
	handler := RequireBearer(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with nil engine")
	}))

	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	req.Header.Set("Authorization", "Bearer whatever")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestRemoteIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.9:54321"
	if got := remoteIP(r); got != "203.0.113.9" {
		t.Fatalf("expected host part, got %q", got)
	}

	r.RemoteAddr = "203.0.113.9"
	if got := remoteIP(r); got != "203.0.113.9" {
		t.Fatalf("expected raw addr, got %q", got)
	}
}
