// Package metrics records per-run pipeline counters in a private Prometheus
// registry and writes them in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Stage labels for StageDuration.
const (
	StageLoad      = "load"
	StageNormalize = "normalize"
	StageLink      = "link"
	StageMerge     = "merge"
)

// Recorder holds the counters of one run. A nil *Recorder ignores every call.
type Recorder struct {
	namespace   string
	buckets     []float64
	constLabels prometheus.Labels
	registry    *prometheus.Registry

	rowsLoaded       *prometheus.CounterVec
	combineRewritten prometheus.Counter
	linkConflicts    prometheus.Counter
	joinRows         prometheus.Counter
	collisions       prometheus.Counter
	heightMissing    prometheus.Counter
	stageDuration    *prometheus.HistogramVec
}

// New returns a Recorder backed by a fresh registry.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "draftlink",
		buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.init()
	return r
}

func (r *Recorder) init() {
	f := promauto.With(r.registry)
	r.rowsLoaded = f.NewCounterVec(prometheus.CounterOpts{
		Namespace:   r.namespace,
		Name:        "rows_loaded_total",
		Help:        "Rows read from each input source.",
		ConstLabels: r.constLabels,
	}, []string{"source"})
	r.combineRewritten = f.NewCounter(prometheus.CounterOpts{
		Namespace:   r.namespace,
		Name:        "link_combine_rewritten_total",
		Help:        "Combine rows whose school was assigned from a draft row.",
		ConstLabels: r.constLabels,
	})
	r.linkConflicts = f.NewCounter(prometheus.CounterOpts{
		Namespace:   r.namespace,
		Name:        "link_conflicts_total",
		Help:        "Combine rows claimed by draft rows with differing schools.",
		ConstLabels: r.constLabels,
	})
	r.joinRows = f.NewCounter(prometheus.CounterOpts{
		Namespace:   r.namespace,
		Name:        "merge_join_rows_total",
		Help:        "Rows produced by the left join before deduplication.",
		ConstLabels: r.constLabels,
	})
	r.collisions = f.NewCounter(prometheus.CounterOpts{
		Namespace:   r.namespace,
		Name:        "merge_collisions_total",
		Help:        "Rows dropped by key deduplication.",
		ConstLabels: r.constLabels,
	})
	r.heightMissing = f.NewCounter(prometheus.CounterOpts{
		Namespace:   r.namespace,
		Name:        "normalize_height_missing_total",
		Help:        "Combine rows whose height was empty or malformed.",
		ConstLabels: r.constLabels,
	})
	r.stageDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   r.namespace,
		Name:        "stage_duration_seconds",
		Help:        "Wall time of each pipeline stage.",
		Buckets:     r.buckets,
		ConstLabels: r.constLabels,
	}, []string{"stage"})
}

// Registry exposes the underlying registry for gathering.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// RowsLoaded adds n rows read from source.
func (r *Recorder) RowsLoaded(source string, n int) {
	if r == nil {
		return
	}
	r.rowsLoaded.WithLabelValues(source).Add(float64(n))
}

// HeightsMissing adds n undecodable heights.
func (r *Recorder) HeightsMissing(n int) {
	if r == nil {
		return
	}
	r.heightMissing.Add(float64(n))
}

// Linked records the outcome of the school reconciliation.
func (r *Recorder) Linked(rewritten, conflicts int) {
	if r == nil {
		return
	}
	r.combineRewritten.Add(float64(rewritten))
	r.linkConflicts.Add(float64(conflicts))
}

// Merged records the join size and the rows dropped by deduplication.
func (r *Recorder) Merged(joinRows, collisions int) {
	if r == nil {
		return
	}
	r.joinRows.Add(float64(joinRows))
	r.collisions.Add(float64(collisions))
}

// StageDuration observes the wall time of stage.
func (r *Recorder) StageDuration(stage string, d time.Duration) {
	if r == nil {
		return
	}
	r.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// WriteTextfile writes every metric to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
