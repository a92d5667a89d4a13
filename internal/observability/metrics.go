package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsCreated   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flycabs", Name: "requests_created_total", Help: "Total ride requests created"})
	RequestsAccepted  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flycabs", Name: "requests_accepted_total", Help: "Total ride requests accepted by a driver"})
	RequestsCompleted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flycabs", Name: "requests_completed_total", Help: "Total ride requests completed"})
	RequestsCancelled = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flycabs", Name: "requests_cancelled_total", Help: "Total ride requests cancelled by the passenger"})
	RequestsEvicted   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flycabs", Name: "requests_evicted_total", Help: "Total ride requests removed by the retention sweep"})
	AcceptConflicts   = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flycabs", Name: "accept_conflicts_total", Help: "Accept attempts that lost the race or targeted a missing request"})

	DriversOnline = promauto.NewGauge(prometheus.GaugeOpts{Namespace: "flycabs", Name: "drivers_online", Help: "Number of drivers currently visible"})
	ChatMessages  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flycabs", Name: "chat_messages_total", Help: "Total chat messages appended"})

	PushDeliveries = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flycabs", Name: "push_deliveries_total", Help: "Push notifications delivered"})
	PushPruned     = promauto.NewCounter(prometheus.CounterOpts{Namespace: "flycabs", Name: "push_pruned_total", Help: "Push subscriptions pruned after a gone response"})

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "flycabs", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "flycabs",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
