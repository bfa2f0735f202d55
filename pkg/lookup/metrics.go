package lookup

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	issuedCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tuitionpay",
		Name:      "lookups_issued_total",
	}, []string{"trigger"})
	droppedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tuitionpay",
		Name:      "lookups_dropped_total",
		Help:      "Lookup outcomes discarded because a newer query was issued.",
	})
)
