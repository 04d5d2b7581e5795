package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	// BannerOperationsTotal counts priority-mutating banner operations by op
	// (insert, move, delete, image) and result (ok, not_found, error).
	BannerOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banner_operations_total",
			Help: "Total number of banner write operations",
		},
		[]string{"op", "result"},
	)

	OrdersCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of order batches created",
		},
		[]string{"user_type"},
	)

	PushNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_notifications_total",
			Help: "Total number of push notifications sent",
		},
		[]string{"result"},
	)
)
