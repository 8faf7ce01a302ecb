package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics bundles every application metric. The HTTP middleware, the auth
// service, the reporting engine and the activity worker each record into
// their slice of it; one bundle is built per process at startup.
type AppMetrics struct {
	// HTTP layer, recorded by the metrics middleware.
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPRequestSize     HistogramVec
	HTTPResponseSize    HistogramVec
	HTTPActiveRequests  GaugeVec

	// Auth layer.
	AuthAttemptsTotal CounterVec

	// Reporting engine.
	ReportGenerationsTotal   CounterVec
	ReportGenerationDuration HistogramVec
	ReportArtifactBytes      HistogramVec

	// Activity worker.
	ActivityRecordsTotal   CounterVec
	MessageProcessDuration HistogramVec

	// Health and errors.
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

// Default buckets.
var (
	DefaultHTTPDurationBuckets   = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultReportDurationBuckets = []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120}
	DefaultSizeBuckets           = []float64{100, 1000, 10000, 100000, 1000000, 10000000}
)

// NewAppMetrics registers the full bundle against the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPRequestSize = collector.RegisterHistogram("http_request_size_bytes", "HTTP request body size", DefaultSizeBuckets, "method", "path")
	m.HTTPResponseSize = collector.RegisterHistogram("http_response_size_bytes", "HTTP response body size", DefaultSizeBuckets, "method", "path")
	// In-flight requests are counted before routing, so only the method is
	// known; a path label here would explode cardinality on raw URLs.
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.AuthAttemptsTotal = collector.RegisterCounter("auth_attempts_total", "Login attempts", "result", "failure_reason")

	m.ReportGenerationsTotal = collector.RegisterCounter("report_generations_total", "Report generation runs", "kind", "format", "status")
	m.ReportGenerationDuration = collector.RegisterHistogram("report_generation_duration_seconds", "Report generation duration", DefaultReportDurationBuckets, "kind")
	m.ReportArtifactBytes = collector.RegisterHistogram("report_artifact_bytes", "Rendered report artifact size", DefaultSizeBuckets, "format")

	m.ActivityRecordsTotal = collector.RegisterCounter("activity_records_total", "Activity records written by the worker", "status")
	m.MessageProcessDuration = collector.RegisterHistogram("message_process_duration_seconds", "Activity message handling duration", DefaultHTTPDurationBuckets, "topic")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Dependency health (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// RecordHTTPRequest records one finished request across the HTTP vectors.
// All Record helpers accept a nil bundle and do nothing, so callers wired
// without metrics need no guards of their own.
func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration, reqSize, respSize int64) {
	if m == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.HTTPResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordAuthAttempt records a login outcome. failureReason is empty on
// success.
func RecordAuthAttempt(m *AppMetrics, success bool, failureReason string) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.AuthAttemptsTotal.WithLabelValues(result, failureReason).Inc()
}

// RecordReportGeneration records one report run and the size of its
// rendered artifact. Failed runs carry no artifact and observe no size.
func RecordReportGeneration(m *AppMetrics, kind, format string, success bool, duration time.Duration, artifactBytes int64) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.ReportGenerationsTotal.WithLabelValues(kind, format, status).Inc()
	m.ReportGenerationDuration.WithLabelValues(kind).Observe(duration.Seconds())
	if success && artifactBytes > 0 {
		m.ReportArtifactBytes.WithLabelValues(format).Observe(float64(artifactBytes))
	}
}

// RecordActivityWrite records one worker attempt to persist an activity row.
func RecordActivityWrite(m *AppMetrics, topic string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "written"
	if !success {
		status = "failed"
	}
	m.ActivityRecordsTotal.WithLabelValues(status).Inc()
	m.MessageProcessDuration.WithLabelValues(topic).Observe(duration.Seconds())
}

// RecordHealthCheck flags a dependency up or down on the health gauge.
func RecordHealthCheck(m *AppMetrics, component string, healthy bool) {
	if m == nil {
		return
	}
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(value)
}

// RecordError counts an error against a component and error code.
func RecordError(m *AppMetrics, component, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}
