package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP метрики
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "coupon_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	HTTPRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "coupon_http_requests_in_flight",
		Help: "Current number of HTTP requests in flight",
	})

	// Жизненный цикл купонов
	CouponOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_operations_total",
		Help: "Coupon lifecycle operations by outcome",
	}, []string{"operation", "outcome"})

	EventPublishErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_event_publish_errors_total",
		Help: "Coupon events that failed to publish",
	}, []string{"type"})

	EventsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "coupon_events_consumed_total",
		Help: "Coupon events read back from Kafka by the audit consumer",
	}, []string{"type"})
)

const (
	OperationCreate = "create"
	OperationDelete = "delete"

	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)
