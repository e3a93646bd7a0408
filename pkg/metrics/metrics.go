package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sitecms", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sitecms", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	ContentWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sitecms", Name: "content_writes_total", Help: "Content document merges by document and result."},
		[]string{"document", "result"},
	)
	Uploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sitecms", Name: "uploads_total", Help: "Upload requests by backend and result."},
		[]string{"backend", "result"},
	)
	UploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "sitecms", Name: "upload_bytes_total", Help: "Bytes stored by the upload handler."},
	)
	ProxyRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sitecms", Name: "cdn_requests_total", Help: "CDN passthrough requests by outcome."},
		[]string{"outcome"},
	)
	FragmentChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "sitecms", Name: "fragment_changes_total", Help: "Observed fragment file changes by event type."},
		[]string{"event"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(ContentWrites)
	reg.MustRegister(Uploads)
	reg.MustRegister(UploadBytes)
	reg.MustRegister(ProxyRequests)
	reg.MustRegister(FragmentChanges)
}
