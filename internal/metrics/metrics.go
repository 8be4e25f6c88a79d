package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "licitasearch",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "licitasearch",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"method", "path"})

	ModalityRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "licitasearch",
		Name:      "modality_requests_total",
		Help:      "Total upstream page requests by modality code and result status.",
	}, []string{"modality", "status"})

	ModalityRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "licitasearch",
		Name:      "modality_request_duration_seconds",
		Help:      "Upstream page request duration in seconds.",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
	}, []string{"modality"})

	ModalityAvailable = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "licitasearch",
		Name:      "modality_available",
		Help:      "Whether a modality facet is available (1) or blocked after repeated failures (0).",
	}, []string{"modality"})

	PagesFetchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "licitasearch",
		Name:      "pages_fetched_total",
		Help:      "Total publication pages fetched from the procurement API.",
	})

	RecordsFetchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "licitasearch",
		Name:      "records_fetched_total",
		Help:      "Total raw procurement records fetched before filtering.",
	})

	RecordsMatchedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "licitasearch",
		Name:      "records_matched_total",
		Help:      "Total procurement records remaining after the relevance filter.",
	})

	RateLimitRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "licitasearch",
		Name:      "rate_limit_rejected_total",
		Help:      "Total requests rejected by the per-client rate limiter.",
	})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ModalityRequestsTotal,
		ModalityRequestDuration,
		ModalityAvailable,
		PagesFetchedTotal,
		RecordsFetchedTotal,
		RecordsMatchedTotal,
		RateLimitRejectedTotal,
	)
}
