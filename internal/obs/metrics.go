package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "auth"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests by method and status code",
	}, []string{"method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	Signins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace, Name: "signins_total", Help: "Signin attempts by outcome",
	}, []string{"outcome"})

	AccessRenewals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "access_token_renewals_total", Help: "Access tokens minted from a refresh cookie during request authentication",
	})

	TokenRotations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "refresh_rotations_total", Help: "Refresh token rotations via PUT /auth/token",
	})

	RevokeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "refresh_revoke_failures_total", Help: "Background refresh token revocations that failed",
	})
)
