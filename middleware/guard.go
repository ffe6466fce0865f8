package middleware

import (
	"context"
	"net/http"

	authcore "github.com/glasswing-io/authcore"
	"github.com/glasswing-io/authcore/strategy"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the validation result a Guard stored
// for the current request.
func AuthResultFromContext(ctx context.Context) (*authcore.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authcore.AuthResult)
	return res, ok
}

// Guard wraps a handler with access-token validation. The extractor
// decides where the token rides; the Engine decides whether it is
// good. Requests without a valid token get 401 and never reach next.
func Guard(engine *authcore.Engine, extractor strategy.Extractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			cred, err := extractor.Extract(r)
			if err != nil || cred.Kind != strategy.KindAccess {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := authcore.WithClientIP(r.Context(), remoteIP(r))
			ctx = authcore.WithUserAgent(ctx, r.UserAgent())

			res, err := engine.Validate(ctx, cred.Token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx = context.WithValue(ctx, authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireBearer guards with Authorization-header access tokens.
func RequireBearer(engine *authcore.Engine) func(http.Handler) http.Handler {
	return Guard(engine, strategy.Access(""))
}

// RequireCookie guards with access tokens carried in the named cookie,
// still accepting a bearer header when present.
func RequireCookie(engine *authcore.Engine, cookieName string) func(http.Handler) http.Handler {
	return Guard(engine, strategy.Access(cookieName))
}
