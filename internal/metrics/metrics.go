// Package metrics exposes the Prometheus instrumentation for the report
// pipeline. A single Metrics value owns its registry so tests can create
// isolated instances.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the pipeline collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	ReportsGenerated *prometheus.CounterVec
	ReportsDelivered *prometheus.CounterVec
	ReportsFailed    *prometheus.CounterVec
	MessagesFetched  *prometheus.CounterVec
	CompletionTokens prometheus.Counter
	PipelineDuration *prometheus.HistogramVec
	CleanupFiles     prometheus.Counter
	CleanupBytes     prometheus.Counter
}

// New creates a Metrics with all collectors registered, alongside the
// standard Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		ReportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wirereport_reports_generated_total",
			Help: "Reports generated and saved, by channel and timeframe.",
		}, []string{"channel", "timeframe"}),
		ReportsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wirereport_reports_delivered_total",
			Help: "Reports delivered to notification sinks.",
		}, []string{"channel", "timeframe"}),
		ReportsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wirereport_reports_failed_total",
			Help: "Report cycles that ended in an error.",
		}, []string{"channel", "timeframe"}),
		MessagesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wirereport_messages_fetched_total",
			Help: "Messages accepted into report windows.",
		}, []string{"channel"}),
		CompletionTokens: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wirereport_completion_tokens_total",
			Help: "Tokens consumed by summarization completions.",
		}),
		PipelineDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wirereport_pipeline_duration_seconds",
			Help:    "Wall time of one report cycle.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"timeframe"}),
		CleanupFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wirereport_cleanup_files_removed_total",
			Help: "Files removed by the age-based retention sweep.",
		}),
		CleanupBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wirereport_cleanup_bytes_freed_total",
			Help: "Bytes freed by the age-based retention sweep.",
		}),
	}

	reg.MustRegister(
		m.ReportsGenerated,
		m.ReportsDelivered,
		m.ReportsFailed,
		m.MessagesFetched,
		m.CompletionTokens,
		m.PipelineDuration,
		m.CleanupFiles,
		m.CleanupBytes,
	)
	return m
}

// Registry returns the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
