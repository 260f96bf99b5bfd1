package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starset_http_requests_total",
		Help: "HTTP requests processed, by method and status code.",
	}, []string{"method", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "starset_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	// SubmissionsTotal counts stored submissions by kind (audio/image/text).
	SubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starset_submissions_total",
		Help: "Submissions stored, by kind.",
	}, []string{"kind"})

	// UploadReauths counts storage session re-authentications triggered by
	// an expired upload token.
	UploadReauths = promauto.NewCounter(prometheus.CounterOpts{
		Name: "starset_upload_reauths_total",
		Help: "Object storage re-authentications after an auth failure.",
	})
)

// Instrument wraps next with request count and latency collection.
func Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(requestsTotal,
		promhttp.InstrumentHandlerDuration(requestDuration, next))
}

// Handler exposes the default registry for GET /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
