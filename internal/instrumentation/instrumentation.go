// Package instrumentation holds the Prometheus metrics exposed on /metrics.
package instrumentation

import (
	"net/http"
	"strconv"
	"time"

	"github.com/maxscottrutherford/LiftIQ-sub000/internal/analysis"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "liftiq"

type Instrumentation struct {
	registry *prometheus.Registry

	// counters
	CounterRequests        *prometheus.CounterVec
	CounterPanics          prometheus.Counter
	CounterAnalyses        *prometheus.CounterVec
	CounterRecommendations *prometheus.CounterVec

	// gauges
	GaugeRequestsInFlight prometheus.Gauge

	// histograms
	HistRequestDuration  *prometheus.HistogramVec
	HistAnalysisDuration *prometheus.HistogramVec
	HistAnalysisScore    prometheus.Histogram
}

// New registers the metrics together with the Go runtime and process collectors on a fresh registry.
func New() *Instrumentation {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}), //nolint:exhaustruct // defaults.
	)
	factory := promauto.With(reg)

	return &Instrumentation{
		registry: reg,
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "The total number of handled requests",
		}, []string{"method", "route", "status"}),
		CounterPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "panics_total",
			Help:      "The total number of recovered handler panics",
		}),
		CounterAnalyses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "The total number of workout analyses",
		}, []string{"variant"}),
		CounterRecommendations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "recommendations_total",
			Help:      "The total number of generated recommendations",
		}, []string{"type", "priority"}),
		GaugeRequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of requests being served",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of handled requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		HistAnalysisDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Duration of the analysis computation without loading sessions",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8), //nolint:mnd // 100µs to ~1.6s.
		}, []string{"variant"}),
		HistAnalysisScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "overall_score",
			Help:      "Distribution of overall scores of analyses with data",
			Buckets:   prometheus.LinearBuckets(10, 10, 10), //nolint:mnd // 10 to 100.
		}),
	}
}

// ObserveAnalysis records one analysis run.
func (i *Instrumentation) ObserveAnalysis(enhanced bool, duration time.Duration, a analysis.Analysis) {
	variant := "basic"
	if enhanced {
		variant = "enhanced"
	}
	i.CounterAnalyses.WithLabelValues(variant).Inc()
	i.HistAnalysisDuration.WithLabelValues(variant).Observe(duration.Seconds())
	if a.SessionsAnalyzed > 0 {
		i.HistAnalysisScore.Observe(float64(a.OverallScore))
	}
	for _, r := range a.Recommendations {
		i.CounterRecommendations.WithLabelValues(string(r.Kind), string(r.Priority)).Inc()
	}
}

// ObserveRequest records one handled request.
func (i *Instrumentation) ObserveRequest(method, route string, status int, duration time.Duration) {
	i.CounterRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	i.HistRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (i *Instrumentation) Handler() http.Handler {
	return promhttp.HandlerFor(i.registry, promhttp.HandlerOpts{}) //nolint:exhaustruct // defaults.
}
