package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by route and status.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	DatasetsAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "datasets_analyzed_total",
			Help: "Total number of observation datasets analyzed",
		},
	)

	ObservationsAnalyzed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "observations_analyzed_total",
			Help: "Total number of historical observations analyzed",
		},
	)

	// AnomaliesDetected counts rolling-window anomalies across all cities.
	// City names come from uploaded files, so they are not used as labels.
	AnomaliesDetected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "anomalies_detected_total",
			Help: "Total number of rolling-window anomalies detected",
		},
	)

	AnalysisLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_latency_seconds",
			Help:    "Dataset analysis latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	CitiesLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cities_loaded",
			Help: "Number of cities in the current dataset",
		},
	)

	// LiveChecks counts live normality checks by result: normal, abnormal or error.
	LiveChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "live_checks_total",
			Help: "Total number of live temperature checks",
		},
		[]string{"result"},
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "temperature_fetch_errors_total",
			Help: "Total number of failed live temperature fetches",
		},
		[]string{"reason"},
	)
)
