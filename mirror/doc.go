// Package mirror keeps a durable Postgres copy of refresh session
// lineage: which identifier was issued when, which one replaced it,
// and when each was revoked.
//
// The mirror is non-authoritative. Liveness questions are always
// answered by the revocation store; the mirror exists to survive a
// Redis flush and to give operators an audit trail with history, which
// the TTL-expiring store cannot provide. Hot-path callers treat every
// mirror write as best-effort.
package mirror
