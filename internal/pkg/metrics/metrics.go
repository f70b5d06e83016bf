package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// FetchTotal counts fetch sessions by outcome.
	// outcome: succeeded/failed/cancelled/empty
	FetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celdash_fetch_total",
			Help: "Total number of fetch sessions by outcome.",
		},
		[]string{"outcome"},
	)

	// FetchDuration records the wall time of a fetch session.
	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "celdash_fetch_duration_seconds",
			Help:    "Duration of fetch sessions.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	// WindowsFetched counts completed time windows per record kind.
	// kind: faults/trips
	WindowsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celdash_windows_fetched_total",
			Help: "Total number of time windows fetched.",
		},
		[]string{"kind"},
	)

	// RecordsFetched counts fetched records per kind.
	// kind: cel_faults/obd_faults/trips
	RecordsFetched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celdash_records_fetched_total",
			Help: "Total number of records fetched.",
		},
		[]string{"kind"},
	)

	// BatchRetries counts re-issued batched calls.
	BatchRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "celdash_batch_retries_total",
			Help: "Total number of batched call retries.",
		},
	)

	// FleetCelPercent is the fleet CEL percentage of the latest snapshot.
	FleetCelPercent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "celdash_fleet_cel_percent",
			Help: "Fleet mean CEL percentage of the current snapshot.",
		},
	)

	// SelectedDevices is the device count of the latest snapshot.
	SelectedDevices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "celdash_selected_devices",
			Help: "Number of devices in the current snapshot.",
		},
	)

	// SummaryPublishTotal counts summary notifications per sink and status.
	// sink: mqtt/kafka, status: success/failed
	SummaryPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "celdash_summary_publish_total",
			Help: "Total number of fetch summaries published.",
		},
		[]string{"sink", "status"},
	)
)

// Registered with the default registry so promhttp.Handler exposes them on /metrics.
func init() {
	prometheus.MustRegister(FetchTotal)
	prometheus.MustRegister(FetchDuration)
	prometheus.MustRegister(WindowsFetched)
	prometheus.MustRegister(RecordsFetched)
	prometheus.MustRegister(BatchRetries)
	prometheus.MustRegister(FleetCelPercent)
	prometheus.MustRegister(SelectedDevices)
	prometheus.MustRegister(SummaryPublishTotal)
}
