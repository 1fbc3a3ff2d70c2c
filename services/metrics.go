package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bündelt alle Prometheus-Collector der Pipeline.
type Metrics struct {
	RecordsWritten   *prometheus.CounterVec
	FetchFailures    *prometheus.CounterVec
	RunDuration      *prometheus.HistogramVec
	LastRunSuccess   *prometheus.GaugeVec
	ArticlesEnriched *prometheus.CounterVec
	TableRows        *prometheus.GaugeVec
	StoreUp          prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RecordsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civicwatch_records_total",
			Help: "Records handled by the writer, by entity and outcome (written, skipped, failed).",
		}, []string{"entity", "outcome"}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civicwatch_fetch_failures_total",
			Help: "Endpoints that failed after all retry attempts.",
		}, []string{"source"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "civicwatch_job_duration_seconds",
			Help:    "Duration of scheduled jobs.",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 1800, 3600},
		}, []string{"job"}),
		LastRunSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "civicwatch_job_last_success_timestamp_seconds",
			Help: "Unix time of the last job run that finished without a run-level error.",
		}, []string{"job"}),
		ArticlesEnriched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "civicwatch_articles_enriched_total",
			Help: "Articles labelled by the enrichment step, by status (enriched, fallback).",
		}, []string{"status"}),
		TableRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "civicwatch_table_rows",
			Help: "Row count per table as of the last health probe.",
		}, []string{"table"}),
		StoreUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "civicwatch_store_up",
			Help: "1 when the last health probe reached the database.",
		}),
	}
	reg.MustRegister(m.RecordsWritten, m.FetchFailures, m.RunDuration, m.LastRunSuccess,
		m.ArticlesEnriched, m.TableRows, m.StoreUp)
	return m
}

func (m *Metrics) observeBatch(entity string, written, skipped, failed int) {
	m.RecordsWritten.WithLabelValues(entity, "written").Add(float64(written))
	m.RecordsWritten.WithLabelValues(entity, "skipped").Add(float64(skipped))
	m.RecordsWritten.WithLabelValues(entity, "failed").Add(float64(failed))
}
