package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "folio_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	ChatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_chat_requests_total",
			Help: "Total number of chat queries handled, by query type.",
		},
		[]string{"query_type"},
	)

	ChatDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_chat_duration_seconds",
			Help:    "End-to-end chat handling time in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
	)

	SubQueriesPerRequest = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "folio_chat_sub_queries",
			Help:    "Number of sub-queries a chat query was split into.",
			Buckets: []float64{1, 2, 3, 4, 6},
		},
	)

	StageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "folio_stage_failures_total",
			Help: "Total number of degraded pipeline stages.",
		},
		[]string{"stage"},
	)

	SafetyRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_safety_rejections_total",
			Help: "Total number of queries rejected by the safety filter.",
		},
	)

	SessionsSweptTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "folio_sessions_swept_total",
			Help: "Total number of idle conversation sessions removed.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		ChatRequestsTotal,
		ChatDuration,
		SubQueriesPerRequest,
		StageFailuresTotal,
		SafetyRejectionsTotal,
		SessionsSweptTotal,
	)
}

// RegisterActiveSessions exposes the live session count as a gauge.
func RegisterActiveSessions(count func() int) error {
	return prometheus.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "folio_active_sessions",
			Help: "Number of conversation sessions held in memory.",
		},
		func() float64 { return float64(count()) },
	))
}
