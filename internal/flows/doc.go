// Package flows contains pure-function orchestrators for every Engine
// operation.
//
// Each flow function (RunIssue, RunRefresh, RunValidate, RunRevoke,
// RunSignIn) accepts a typed dependency struct and returns a result
// carrying either the operation outcome or failure metadata. This keeps
// the Engine type thin and lets every branch be unit-tested with mock
// dependencies.
//
// # Architecture boundaries
//
// Flow functions coordinate the revocation store, token codec, rate
// limiter, and durable mirror. They do NOT own any of these resources;
// ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import the root package (to avoid import cycles).
//   - Perform I/O directly; all I/O is mediated through dependency
//     interfaces.
package flows
