// Package strategy maps HTTP requests to the credential shapes the
// Engine understands.
//
// The credential kinds form a closed set (local password, access
// token, refresh token, provider assertion). Each extractor is a
// tagged value, not a pluggable interface: every kind the Engine can
// act on is known at compile time, and adding one is an API change,
// not a runtime registration.
package strategy
