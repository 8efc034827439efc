// Package telemetry wires OpenTelemetry metrics for the tenant pipeline.
//
// Setup installs a global meter provider exporting over OTLP/gRPC when an
// endpoint is configured. NewMetrics creates the instruments used by the
// tenant directory, rate limiter and scoped data gate. A nil *Metrics is valid
// and records nothing, so components can treat metrics as optional.
//
// HTTPMiddleware wraps handlers with otelhttp instrumentation.
package telemetry
