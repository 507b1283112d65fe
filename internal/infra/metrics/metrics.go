package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DispatchTotal tracks dispatched operations per priority and endpoint
	DispatchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solgate_dispatch_total",
			Help: "Total number of dispatched RPC operations",
		},
		[]string{"priority", "method", "endpoint"},
	)

	// DispatchErrors tracks failed operations per priority and endpoint
	DispatchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solgate_dispatch_errors_total",
			Help: "Total number of failed RPC operations",
		},
		[]string{"priority", "endpoint"},
	)

	// DispatchLatency tracks operation latency per priority and method
	DispatchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "solgate_dispatch_latency_seconds",
			Help:    "RPC operation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"priority", "method"},
	)

	// QueueDepth tracks pending operations per priority class
	QueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solgate_queue_depth",
			Help: "Number of operations waiting for a worker",
		},
		[]string{"priority"},
	)

	// InFlight tracks operations currently executing per priority class
	InFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solgate_inflight_operations",
			Help: "Number of operations currently executing",
		},
		[]string{"priority"},
	)

	// EndpointDown tracks whether an endpoint is marked down (1) or up (0)
	EndpointDown = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "solgate_endpoint_down",
			Help: "Whether the endpoint is currently marked down",
		},
		[]string{"endpoint"},
	)

	// EndpointFailures tracks failure reports per endpoint
	EndpointFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solgate_endpoint_failures_total",
			Help: "Total number of failures reported against an endpoint",
		},
		[]string{"endpoint"},
	)

	// RetryAttempts tracks retry attempts beyond the first per method
	RetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solgate_retry_attempts_total",
			Help: "Total number of retry attempts after a failed first attempt",
		},
		[]string{"method"},
	)

	// CacheHits tracks result cache hits and misses
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "solgate_cache_requests_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
