// Package otel binds authcore metrics to OpenTelemetry instruments.
//
// [NewExporter] registers an Int64ObservableCounter per core counter
// and Int64ObservableGauge per histogram bucket. A single callback
// reads the engine snapshot on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider; callers supply the Meter.
//   - Mutate engine state.
package otel
