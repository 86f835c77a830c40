package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys.
const (
	attrResult    = "result"
	attrOperation = "operation"
	attrTool      = "tool"
)

// Result values for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Metrics records observability metrics. The zero value is a no-op recorder,
// used when instrumentation is disabled.
type Metrics struct {
	authFlowsTotal    metric.Int64Counter
	tokenRefreshTotal metric.Int64Counter
	storeOpsTotal     metric.Int64Counter

	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram
}

// NewMetrics creates a Metrics recorder on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error
	m.authFlowsTotal, err = meter.Int64Counter(
		"oauth_flows_total",
		metric.WithDescription("Total number of completed OAuth authorization flows"),
		metric.WithUnit("{flow}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating oauth_flows_total counter: %w", err)
	}

	m.tokenRefreshTotal, err = meter.Int64Counter(
		"oauth_token_refresh_total",
		metric.WithDescription("Total number of OAuth token refresh attempts"),
		metric.WithUnit("{refresh}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating oauth_token_refresh_total counter: %w", err)
	}

	m.storeOpsTotal, err = meter.Int64Counter(
		"credential_store_operations_total",
		metric.WithDescription("Total number of credential store operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating credential_store_operations_total counter: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"tool_duration_seconds",
		metric.WithDescription("MCP tool invocation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordAuthFlow records a completed authorization flow.
func (m *Metrics) RecordAuthFlow(ctx context.Context, result string) {
	if m == nil || m.authFlowsTotal == nil {
		return
	}
	m.authFlowsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordTokenRefresh records a token refresh attempt.
func (m *Metrics) RecordTokenRefresh(ctx context.Context, result string) {
	if m == nil || m.tokenRefreshTotal == nil {
		return
	}
	m.tokenRefreshTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordStoreOperation records a credential store operation.
func (m *Metrics) RecordStoreOperation(ctx context.Context, operation, result string) {
	if m == nil || m.storeOpsTotal == nil {
		return
	}
	m.storeOpsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrResult, result),
	))
}

// RecordToolInvocation records an MCP tool invocation with its duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, result string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrResult, result),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}
