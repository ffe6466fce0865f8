// Package internal contains shared helpers used by the engine and its
// flow runners: refresh-session identifier generation and validation.
//
// Nothing in this package is part of the public API.
package internal
