package observability

import (
	"fmt"
	"net"
	"strconv"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

var (
	// TelemetrySystem is the global telemetry system
	TelemetrySystem *telemetry.System

	// PrometheusExporter is the prometheus metrics exporter
	PrometheusExporter *exporters.PrometheusExporter

	// metricsPort stores the port the Prometheus exporter is listening on
	metricsPort int
)

// MetricsOptions configures the Prometheus exporter.
type MetricsOptions struct {
	Enabled   bool
	Port      int
	Namespace string
}

// InitMetrics initializes the telemetry system. With metrics disabled a
// disabled system is installed so client counters become no-ops; otherwise a
// Prometheus exporter listens on opts.Port (0 picks a free port).
func InitMetrics(serviceName string, opts MetricsOptions) error {
	if !opts.Enabled {
		sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false})
		if err != nil {
			return err
		}
		TelemetrySystem = sys
		PrometheusExporter = nil
		metricsPort = 0
		return nil
	}

	requestedPort := opts.Port
	if requestedPort < 0 {
		requestedPort = 0
	}
	// Store requested port as default in case discovery fails
	metricsPort = requestedPort

	// Use namespace if provided, otherwise use service name
	metricNamespace := serviceName
	if opts.Namespace != "" {
		metricNamespace = opts.Namespace
	}

	endpoint := fmt.Sprintf(":%d", requestedPort)

	// Create Prometheus exporter with namespace
	PrometheusExporter = exporters.NewPrometheusExporter(metricNamespace, endpoint)

	// Start Prometheus HTTP server
	if err := PrometheusExporter.Start(); err != nil {
		return err
	}

	// Update metricsPort with the actual port the exporter bound to
	if actualPort, err := resolvePort(PrometheusExporter.GetAddr()); err == nil {
		metricsPort = actualPort
	} else if requestedPort == 0 {
		// Fall back to default port if we requested :0 and could not determine actual port
		metricsPort = 9090
	}

	// Create telemetry system with Prometheus exporter
	config := &telemetry.Config{
		Enabled: true,
		Emitter: PrometheusExporter,
	}

	sys, err := telemetry.NewSystem(config)
	if err != nil {
		return err
	}

	TelemetrySystem = sys

	// Client metrics (manacube_requests_total, manacube_queue_depth, ...) are
	// registered on first use; see internal/metrics/client.go.

	return nil
}

// GetMetricsPort returns the port the Prometheus exporter is listening on
func GetMetricsPort() int {
	return metricsPort
}

func resolvePort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, err
	}
	return port, nil
}
