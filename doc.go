// Package authcore is an embeddable session lifecycle core: it mints
// short-lived access tokens paired with long-lived, single-use refresh
// tokens, and keeps the set of live refresh sessions in a Redis-backed
// revocation store.
//
// # Model
//
// Access tokens are stateless bearer credentials, valid by signature
// and expiry alone. Refresh tokens are stateful: each carries a unique
// identifier registered in the revocation store, and consuming one
// atomically retires that identifier and installs its successor.
// Presenting a refresh token twice can therefore never yield two valid
// sessions, no matter how many server processes race on it.
//
// # Usage
//
//	engine, err := authcore.New().
//		WithRedis(client).
//		WithConfig(cfg).
//		Build()
//	if err != nil {
//		// ...
//	}
//	defer engine.Close()
//
//	pair, err := engine.Issue(ctx, userID)
//	pair, err = engine.Refresh(ctx, pair.RefreshToken)
//	res, err := engine.Validate(ctx, pair.AccessToken)
//
// Engines built with WithDirectory additionally expose SignIn, SignUp,
// and ProviderLogin against the host's identity backend; WithMirror
// adds a durable Postgres lineage record beside the Redis store.
//
// The Engine is safe for concurrent use and holds no mutable global
// state; multiple engines with different configurations coexist in one
// process.
package authcore
