// Package instrumentation provides OpenTelemetry metrics for workspace-mcp,
// exported in Prometheus format.
//
// The Provider owns the meter provider and a Prometheus registry that the
// metrics HTTP server scrapes. Instrumentation can be disabled entirely via
// INSTRUMENTATION_ENABLED=false, in which case all recording methods are
// no-ops.
package instrumentation
