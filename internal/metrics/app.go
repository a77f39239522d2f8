package metrics

import (
	"time"

	"github.com/manacube/manacube-go/internal/observability"
)

// Gateway-level metrics following Prometheus conventions
var (
	// Proxy metrics
	GatewayRequestsTotal = "manacube_gateway_requests_total"

	// Health check metrics
	HealthCheckTotal    = "manacube_health_check_total"
	HealthCheckDuration = "manacube_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "manacube_server_start_time_seconds"
)

// RecordGatewayRequest counts a proxied request by outcome: the error code
// returned to the caller, or "ok".
func RecordGatewayRequest(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			GatewayRequestsTotal,
			1,
			map[string]string{
				"outcome": outcome,
			},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
