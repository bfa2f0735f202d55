package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "tuitionpay",
		Subsystem: "gateway",
		Name:      "request_duration_seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	}, []string{"endpoint"})
	errorsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tuitionpay",
		Subsystem: "gateway",
		Name:      "errors_total",
	}, []string{"kind"})
)
