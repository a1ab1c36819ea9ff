package gql

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal tracks GQL requests by operation and outcome.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drops_gql_requests_total",
			Help: "Total number of GQL requests",
		},
		[]string{"operation", "result"},
	)

	// RequestDurationSeconds tracks GQL request latency.
	RequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drops_gql_request_duration_seconds",
			Help:    "GQL request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)
