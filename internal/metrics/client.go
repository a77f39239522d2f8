package metrics

import (
	"strconv"
	"time"

	"github.com/manacube/manacube-go/internal/observability"
)

// Client-side request and queue metrics
const (
	UpstreamRequestsTotal   = "manacube_requests_total"
	UpstreamRequestDuration = "manacube_request_duration_ms"
	RateLimitHitsTotal      = "manacube_rate_limit_hits_total"
	RetriesTotal            = "manacube_retries_total"
	FailFastTotal           = "manacube_fail_fast_total"
	QueueDepth              = "manacube_queue_depth"
	QueueRejectionsTotal    = "manacube_queue_rejections_total"
	QueueAnomaliesTotal     = "manacube_queue_anomalies_total"
)

// RecordRequest records one upstream GET and its outcome.
func RecordRequest(status int, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	labels := map[string]string{"status": statusLabel(status)}
	_ = observability.TelemetrySystem.Counter(UpstreamRequestsTotal, 1, labels)
	_ = observability.TelemetrySystem.Histogram(UpstreamRequestDuration, duration, labels)
}

// RecordRateLimitHit records a rate-limit response and the backoff it opened.
func RecordRateLimitHit(source string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitHitsTotal,
			1,
			map[string]string{"source": source},
		)
	}
}

// RecordRetry records a rate-limited request going back into the queue.
func RecordRetry(attempt int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RetriesTotal,
			1,
			map[string]string{"attempt": strconv.Itoa(attempt)},
		)
	}
}

// RecordFailFast records a call rejected without contacting the server.
func RecordFailFast() {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(FailFastTotal, 1, nil)
	}
}

// RecordRejection records a queued request settled with an error by the queue.
func RecordRejection(reason string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			QueueRejectionsTotal,
			1,
			map[string]string{"reason": reason},
		)
	}
}

// SetQueueDepth sets the number of requests waiting in the queue.
func SetQueueDepth(depth int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(QueueDepth, float64(depth), nil)
	}
}

// RecordQueueAnomaly records the processor stopping for an unexpected reason.
func RecordQueueAnomaly(kind string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			QueueAnomaliesTotal,
			1,
			map[string]string{"kind": kind},
		)
	}
}

func statusLabel(status int) string {
	if status <= 0 {
		return "error"
	}
	return strconv.Itoa(status)
}
