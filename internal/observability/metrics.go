package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpstreamAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_builder_upstream_attempts_total",
			Help: "Total number of upstream generative API attempts by key tier and outcome",
		},
		[]string{"tier", "outcome"},
	)
	UpstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resume_builder_upstream_duration_seconds",
			Help:    "Upstream generative API attempt duration in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15, 20},
		},
		[]string{"tier"},
	)
	SectionEnhancementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_builder_section_enhancements_total",
			Help: "Total number of section enhancements by section and result",
		},
		[]string{"section", "result"},
	)
	SkillFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_builder_skill_fallbacks_total",
			Help: "Total number of skill slots filled without an accepted generated token",
		},
		[]string{"kind"},
	)
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "resume_builder_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resume_builder_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
		},
		[]string{"method"},
	)
)

var registerOnce sync.Once

// InitMetrics registers the collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(UpstreamAttemptsTotal)
		prometheus.MustRegister(UpstreamDuration)
		prometheus.MustRegister(SectionEnhancementsTotal)
		prometheus.MustRegister(SkillFallbacksTotal)
		prometheus.MustRegister(HTTPRequestsTotal)
		prometheus.MustRegister(HTTPRequestDuration)
	})
}

// ObserveUpstreamAttempt records one upstream attempt.
func ObserveUpstreamAttempt(tier, outcome string, elapsed time.Duration) {
	UpstreamAttemptsTotal.WithLabelValues(tier, outcome).Inc()
	UpstreamDuration.WithLabelValues(tier).Observe(elapsed.Seconds())
}

// ObserveSection records the result of one section enhancement.
func ObserveSection(section string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	SectionEnhancementsTotal.WithLabelValues(section, result).Inc()
}

// ObserveSkillFallback records a skill slot filled from the fallback vocabulary or a placeholder.
func ObserveSkillFallback(kind string) {
	SkillFallbacksTotal.WithLabelValues(kind).Inc()
}

// MetricsHandler serves the default registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// HTTPMetricsMiddleware records request count and latency.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		HTTPRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(rec.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}
