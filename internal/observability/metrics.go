package observability

import (
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "cartola"
	metricsSubsystem = "ingest"
)

// RunMetrics holds the gauges of a single ingest invocation. The process is short lived,
// so metrics are flushed to a node_exporter textfile instead of being scraped.
type RunMetrics struct {
	registry *prometheus.Registry

	rows        *prometheus.GaugeVec
	duration    prometheus.Gauge
	success     prometheus.Gauge
	lastSuccess prometheus.Gauge
	dryRun      prometheus.Gauge
}

func NewRunMetrics() *RunMetrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &RunMetrics{
		registry: registry,
		rows: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "rows",
			Help:      "Rows built for each table during the last run",
		}, []string{"table"}),
		duration: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
		success: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "last_run_success",
			Help:      "1 when the last run finished without error",
		}),
		lastSuccess: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run",
		}),
		dryRun: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "last_run_dry_run",
			Help:      "1 when the last run skipped backend writes",
		}),
	}
}

// Observe records one run. rows maps table names to the number of rows built for them.
func (m *RunMetrics) Observe(rows map[string]int, dryRun bool, elapsed time.Duration, finishedAt time.Time, runErr error) {
	for table, count := range rows {
		m.rows.WithLabelValues(table).Set(float64(count))
	}
	m.duration.Set(elapsed.Seconds())
	m.dryRun.Set(boolGauge(dryRun))
	if runErr != nil {
		m.success.Set(0)
		return
	}
	m.success.Set(1)
	m.lastSuccess.Set(float64(finishedAt.Unix()))
}

// WriteTextfile writes the registry in the text exposition format. The write goes through
// a temp file and a rename, so a collector never reads a partial file.
func (m *RunMetrics) WriteTextfile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return crerr.Wrapf(err, "write metrics textfile %s", path)
	}
	return nil
}

func (m *RunMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func boolGauge(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
