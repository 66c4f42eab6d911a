// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resafraud_records_generated_total",
		Help: "Synthetic reservation records generated",
	}, []string{"label"})

	GenerationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name: "resafraud_generation_duration_seconds",
		Help: "Time spent building one synthetic dataset",
	})

	RecordsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resafraud_records_stored_total",
		Help: "Records copied to Postgres",
	})

	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resafraud_predictions_total",
		Help: "Predictions served, by verdict",
	}, []string{"verdict"})

	PredictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resafraud_prediction_duration_seconds",
		Help:    "Time spent scoring one reservation",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	})
)

// WriteTextfile dumps every registered collector in the node_exporter
// textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
