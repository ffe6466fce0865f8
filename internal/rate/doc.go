// Package rate implements the Redis-backed throttles guarding the
// credential and rotation surfaces.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key
// prefixes:
//   - ac:l:  sign-in per-email
//   - ac:li: sign-in per-IP
//   - ac:r:  refresh per-caller
package rate
