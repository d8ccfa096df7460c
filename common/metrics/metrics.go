// Package metrics provides Prometheus metrics for the version engine
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the version engine
type Metrics struct {
	// Commit metrics
	CommitsTotal        *prometheus.CounterVec // by storage kind (snapshot|patch|noop)
	CommitConflictsTotal prometheus.Counter
	CommitDuration      prometheus.Histogram

	// Reconstruction metrics
	ReconstructionsTotal   prometheus.Counter
	ReconstructionDuration prometheus.Histogram
	PatchReplayDepth       prometheus.Histogram

	// Comparison cache metrics
	CompareCacheHitsTotal   prometheus.Counter
	CompareCacheMissesTotal prometheus.Counter

	// Snapshot compression metrics
	SnapshotsCompressedTotal prometheus.Counter

	ServerStartTime time.Time
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	m := &Metrics{
		ServerStartTime: time.Now(),
	}

	m.CommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pluginvcs_commits_total",
			Help: "Total number of commits by stored kind",
		},
		[]string{"kind"},
	)

	m.CommitConflictsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pluginvcs_commit_conflicts_total",
			Help: "Total number of concurrent commit conflicts observed",
		},
	)

	m.CommitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pluginvcs_commit_duration_seconds",
			Help:    "Duration of commit operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	m.ReconstructionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pluginvcs_reconstructions_total",
			Help: "Total number of state reconstructions",
		},
	)

	m.ReconstructionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pluginvcs_reconstruction_duration_seconds",
			Help:    "Duration of state reconstructions in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	m.PatchReplayDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pluginvcs_patch_replay_depth",
			Help:    "Number of patches replayed per reconstruction",
			Buckets: []float64{0, 1, 2, 3, 5, 8, 10, 15, 20},
		},
	)

	m.CompareCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pluginvcs_compare_cache_hits_total",
			Help: "Comparison cache hits",
		},
	)

	m.CompareCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pluginvcs_compare_cache_misses_total",
			Help: "Comparison cache misses",
		},
	)

	m.SnapshotsCompressedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pluginvcs_snapshots_compressed_total",
			Help: "Snapshots compressed by the background worker",
		},
	)

	return m
}

// ObserveCommit records a completed commit
func (m *Metrics) ObserveCommit(kind string, start time.Time) {
	m.CommitsTotal.WithLabelValues(kind).Inc()
	m.CommitDuration.Observe(time.Since(start).Seconds())
}

// ObserveReconstruction records a completed reconstruction
func (m *Metrics) ObserveReconstruction(replayDepth int, start time.Time) {
	m.ReconstructionsTotal.Inc()
	m.PatchReplayDepth.Observe(float64(replayDepth))
	m.ReconstructionDuration.Observe(time.Since(start).Seconds())
}
