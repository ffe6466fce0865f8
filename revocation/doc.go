// Package revocation adapts a shared, TTL-capable Redis store into the
// authoritative record of live refresh sessions.
//
// Each live session is one key mapping a rotation identifier (jti) to
// its owning user ID; key TTL enforces expiry. The load-bearing
// primitive is Rotate: a Lua compare-then-swap generalized to two keys
// (conditional delete of the old identifier plus insert of its
// successor) that all server processes observe as a single atomic
// step. Everything above this package delegates cross-process
// coordination to that one operation.
package revocation
