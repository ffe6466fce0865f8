// Package prometheus renders authcore metrics in Prometheus text
// exposition format.
//
// [NewExporter] accepts an [authcore.Engine] and exposes an
// http.Handler serving every counter and the validate latency
// histogram. Counter names are prefixed authcore_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry; callers mount
//     the Handler.
//   - Mutate engine state.
package prometheus
