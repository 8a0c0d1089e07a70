package importer

import "github.com/prometheus/client_golang/prometheus"

var (
	rowsImported = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "siteboard",
		Subsystem: "importer",
		Name:      "rows_imported_total",
		Help:      "Number of CSV rows imported successfully.",
	})

	rowsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "siteboard",
		Subsystem: "importer",
		Name:      "rows_failed_total",
		Help:      "Number of CSV rows that failed and were skipped.",
	})

	rowsSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "siteboard",
		Subsystem: "importer",
		Name:      "rows_skipped_total",
		Help:      "Number of CSV rows skipped for missing contract identity.",
	})

	issuesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "siteboard",
		Subsystem: "importer",
		Name:      "issues_created_total",
		Help:      "Number of issue records derived from inspection notes.",
	})

	importDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "siteboard",
		Subsystem: "importer",
		Name:      "run_duration_seconds",
		Help:      "Time spent importing one CSV document.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)

func init() {
	prometheus.MustRegister(rowsImported, rowsFailed, rowsSkipped, issuesCreated, importDuration)
}
