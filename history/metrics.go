package history

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dvidseg",
		Subsystem: "history",
		Name:      "snapshots_total",
		Help:      "Snapshots committed to undo history by mode",
	}, []string{"mode"})

	pushesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dvidseg",
		Subsystem: "history",
		Name:      "pushes_suppressed_total",
		Help:      "Pushes collapsed into an earlier snapshot by debouncing",
	})

	pendingCompressions = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "dvidseg",
		Subsystem: "history",
		Name:      "pending_compressions",
		Help:      "Background snapshot compressions submitted but not yet handled",
	})

	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dvidseg",
		Subsystem: "history",
		Name:      "steps_total",
		Help:      "Undo and redo requests by result",
	}, []string{"operation", "result"})

	snapshotBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dvidseg",
		Subsystem: "history",
		Name:      "snapshot_bytes",
		Help:      "Compressed snapshot size in bytes",
		Buckets:   prometheus.ExponentialBuckets(256, 4, 10), // 256 B to 64 MB
	})

	compressSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "dvidseg",
		Subsystem: "history",
		Name:      "compress_duration_seconds",
		Help:      "Time to compress a volume snapshot",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14),
	})

	persistErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "dvidseg",
		Subsystem: "history",
		Name:      "persist_errors_total",
		Help:      "Failed writes of history to the snapshot store",
	})
)
