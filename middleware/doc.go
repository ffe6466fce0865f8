// Package middleware exposes HTTP adapters over Engine validation.
//
// # Guards
//
//   - [Guard] validates an access token extracted by a strategy
//     extractor and injects the result into the request context.
//   - [RequireBearer] reads Authorization-header access tokens.
//   - [RequireCookie] reads cookie-borne access tokens.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. All
// decisions are delegated to Engine.Validate; the middleware never
// parses tokens itself and never touches Redis.
package middleware
