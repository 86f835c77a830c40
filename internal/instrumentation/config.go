package instrumentation

import (
	"os"
)

// Environment variables for instrumentation configuration.
const (
	EnvEnabled     = "INSTRUMENTATION_ENABLED"
	EnvMetricsAddr = "METRICS_ADDR"
)

// DefaultMetricsAddr is the default listen address for the metrics server.
const DefaultMetricsAddr = ":9090"

// Config holds the instrumentation configuration.
type Config struct {
	// ServiceName identifies the service in exported metrics.
	ServiceName string

	// ServiceVersion is the build version.
	ServiceVersion string

	// Enabled determines if instrumentation is active (default: true).
	// Set INSTRUMENTATION_ENABLED=false to disable.
	Enabled bool

	// MetricsAddr is the listen address for the metrics HTTP server.
	MetricsAddr string
}

// DefaultConfig returns the configuration from the environment.
func DefaultConfig() Config {
	cfg := Config{
		ServiceName: "workspace-mcp",
		Enabled:     true,
		MetricsAddr: DefaultMetricsAddr,
	}

	if os.Getenv(EnvEnabled) == "false" {
		cfg.Enabled = false
	}
	if addr := os.Getenv(EnvMetricsAddr); addr != "" {
		cfg.MetricsAddr = addr
	}

	return cfg
}
