package http

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics
var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lancamentos_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lancamentos_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "endpoint"})

	recordsAppendedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lancamentos_records_appended_total",
		Help: "Records accepted and persisted",
	})

	validationRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lancamentos_validation_rejections_total",
		Help: "Submissions rejected by the validator",
	}, []string{"kind"})

	ledgerRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lancamentos_ledger_records",
		Help: "Records in the last loaded ledger snapshot",
	})
)
