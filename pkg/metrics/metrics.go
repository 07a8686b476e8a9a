package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Stream metrics
	RecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "drift_records_total",
			Help: "Total number of stream records dispatched",
		},
	)

	// Protocol metrics
	RoundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_rounds_total",
			Help: "Total number of protocol rounds by network",
		},
		[]string{"network"},
	)

	SubroundsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_subrounds_total",
			Help: "Total number of protocol sub-rounds by network",
		},
		[]string{"network"},
	)

	ViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_local_violations_total",
			Help: "Total number of local safe-zone violations by network",
		},
		[]string{"network"},
	)

	QueryEstimate = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "drift_query_estimate",
			Help: "Current global query estimate by network",
		},
		[]string{"network"},
	)

	// Traffic metrics
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_messages_total",
			Help: "Total number of simulated messages by network and endpoint",
		},
		[]string{"network", "endpoint"},
	)

	BytesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drift_bytes_total",
			Help: "Total number of simulated bytes by network and endpoint",
		},
		[]string{"network", "endpoint"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(RecordsTotal)
	prometheus.MustRegister(RoundsTotal)
	prometheus.MustRegister(SubroundsTotal)
	prometheus.MustRegister(ViolationsTotal)
	prometheus.MustRegister(QueryEstimate)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(BytesTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
