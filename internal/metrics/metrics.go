package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TracesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paisatrail_traces_total",
		Help: "Total number of trace runs, labelled by outcome.",
	}, []string{"outcome"})

	RowsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paisatrail_rows_dropped_total",
		Help: "Input rows discarded during normalization, labelled by reason.",
	}, []string{"reason"})

	RowsRetained = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paisatrail_rows_retained_total",
		Help: "Input rows kept for tracing after normalization.",
	})

	WithdrawalsFlagged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paisatrail_withdrawals_total",
		Help: "Withdrawals found on traced accounts, labelled by severity.",
	}, []string{"severity"})

	TraceDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "paisatrail_trace_duration_ms",
		Help:    "End-to-end trace latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	})

	GraphQueries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paisatrail_graph_queries_total",
		Help: "Read queries sent to the graph database, labelled by query and outcome.",
	}, []string{"query", "outcome"})

	GraphQueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paisatrail_graph_query_duration_ms",
		Help:    "Graph read latency in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	}, []string{"query"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paisatrail_http_requests_total",
		Help: "HTTP requests served, labelled by route and status code.",
	}, []string{"route", "code"})
)
