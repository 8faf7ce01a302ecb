package prometheus

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	cfg := CollectorConfig{
		Namespace: "test",
		Subsystem: "unit",
	}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector(t *testing.T) {
	c := newTestCollector(t)
	assert.NotNil(t, c)
}

func TestNewMetricsCollector_EmptyNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{Subsystem: "unit"}, logging.NewNopLogger())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestNewMetricsCollector_ProcessAndGoMetrics(t *testing.T) {
	cfg := CollectorConfig{
		Namespace:            "test",
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "process_cpu_seconds_total")
	assert.Contains(t, output, "go_goroutines")
}

func TestRegisterCounter(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("requests_total", "Total requests", "method")
	counter.WithLabelValues("GET").Inc()
	counter.With(map[string]string{"method": "POST"}).Add(2)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_requests_total{method="GET"} 1`)
	assert.Contains(t, output, `test_unit_requests_total{method="POST"} 2`)
}

func TestRegisterCounter_SameNameSharesVector(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("dup_total", "help").WithLabelValues().Inc()
	c.RegisterCounter("dup_total", "help").WithLabelValues().Inc()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_dup_total 2")
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)
	gauge := c.RegisterGauge("active_sessions", "Active sessions", "role")
	g := gauge.WithLabelValues("manager")
	g.Set(10)
	g.Inc()
	g.Sub(3)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_active_sessions{role="manager"} 8`)
}

func TestRegisterHistogram_DefaultBuckets(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("latency_seconds", "Latency", nil)
	hist.WithLabelValues().Observe(0.1)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_latency_seconds_bucket")
	assert.Contains(t, output, "test_unit_latency_seconds_count 1")
}

func TestRegisterHistogram_CustomBuckets(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("payload_bytes", "Payload size", []float64{10, 100}, "format")
	hist.WithLabelValues("csv").Observe(42)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_payload_bytes_bucket{format="csv",le="10"} 0`)
	assert.Contains(t, output, `test_unit_payload_bytes_bucket{format="csv",le="100"} 1`)
}

func TestConstLabels(t *testing.T) {
	cfg := CollectorConfig{
		Namespace:   "test",
		ConstLabels: map[string]string{"service": "leadtrack"},
	}
	c, err := NewMetricsCollector(cfg, logging.NewNopLogger())
	require.NoError(t, err)

	c.RegisterCounter("labeled_total", "help").WithLabelValues().Inc()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_labeled_total{service="leadtrack"} 1`)
}

// A name collision across metric types must not panic the caller; the
// second registration degrades to a no-op and the original keeps scraping.
func TestRegister_TypeConflictReturnsNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterCounter("conflict_total", "help").WithLabelValues().Inc()

	gauge := c.RegisterGauge("conflict_total", "help")
	gauge.WithLabelValues().Set(10)
	gauge.With(map[string]string{}).Inc()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "# TYPE test_unit_conflict_total counter")
	assert.Contains(t, output, "test_unit_conflict_total 1")
}

func TestTimer(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("op_duration_seconds", "Duration", nil)

	timer := NewTimer(hist.WithLabelValues())
	time.Sleep(5 * time.Millisecond)
	timer.ObserveDuration()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_unit_op_duration_seconds_count 1")
}

func TestTimer_NilHistogram(t *testing.T) {
	assert.NotPanics(t, func() {
		NewTimer(nil).ObserveDuration()
	})
}

func TestConcurrentRegistration(t *testing.T) {
	c := newTestCollector(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("concurrent_total", "help", "id").WithLabelValues("1").Inc()
		}()
	}
	wg.Wait()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_unit_concurrent_total{id="1"} 50`)
}

func TestMustRegister(t *testing.T) {
	c := newTestCollector(t)
	pc := prometheus.NewCounter(prometheus.CounterOpts{Name: "custom_collector_total"})
	c.MustRegister(pc)
	pc.Inc()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "custom_collector_total 1")
}

func TestUnregister(t *testing.T) {
	c := newTestCollector(t)
	pc := prometheus.NewCounter(prometheus.CounterOpts{Name: "short_lived_total"})
	c.MustRegister(pc)

	assert.True(t, c.Unregister(pc))
	assert.NotContains(t, scrapeMetrics(t, c), "short_lived_total")
}
