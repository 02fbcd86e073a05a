// Package metrics exports Prometheus instrumentation for the engine.
//
// It implements the observability hook interfaces and registers itself
// into the global hook registry, so the libraries stay free of any
// Prometheus dependency. Call Register once at startup; binaries that
// never call it pay nothing.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/photogridlab/photogrid/pkg/observability"
)

var (
	cacheOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photogrid",
			Subsystem: "cache",
			Name:      "ops_total",
			Help:      "Cache operations by cache kind and operation",
		},
		[]string{"kind", "op"},
	)

	cacheSetBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photogrid",
			Subsystem: "cache",
			Name:      "set_bytes_total",
			Help:      "Bytes written into caches by cache kind",
		},
		[]string{"kind"},
	)

	layoutDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photogrid",
			Subsystem: "layout",
			Name:      "solve_duration_seconds",
			Help:      "Duration of layout solves in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"policy"},
	)

	layoutRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photogrid",
			Subsystem: "layout",
			Name:      "rows_total",
			Help:      "Rows produced by layout solves",
		},
		[]string{"policy"},
	)

	scanImages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "photogrid",
			Subsystem: "scan",
			Name:      "images_total",
			Help:      "Images discovered by gallery scans",
		},
	)

	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "photogrid",
			Subsystem: "scan",
			Name:      "duration_seconds",
			Help:      "Duration of gallery scans in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	warmOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photogrid",
			Subsystem: "thumbs",
			Name:      "warm_outcomes_total",
			Help:      "Thumbnail warm decode outcomes",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		cacheOpsTotal,
		cacheSetBytes,
		layoutDuration,
		layoutRows,
		scanImages,
		scanDuration,
		warmOutcomes,
	)
}

// Register installs the Prometheus-backed hooks into the global
// observability registry. Call once at startup, before the pipeline runs.
func Register() {
	observability.SetCacheHooks(cacheHooks{})
	observability.SetPipelineHooks(pipelineHooks{})
}

type cacheHooks struct{}

var _ observability.CacheHooks = cacheHooks{}

func (cacheHooks) OnCacheHit(_ context.Context, kind string) {
	cacheOpsTotal.WithLabelValues(kind, "hit").Inc()
}

func (cacheHooks) OnCacheMiss(_ context.Context, kind string) {
	cacheOpsTotal.WithLabelValues(kind, "miss").Inc()
}

func (cacheHooks) OnCacheSet(_ context.Context, kind string, size int) {
	cacheOpsTotal.WithLabelValues(kind, "set").Inc()
	if size > 0 {
		cacheSetBytes.WithLabelValues(kind).Add(float64(size))
	}
}

func (cacheHooks) OnCacheEvict(_ context.Context, kind string) {
	cacheOpsTotal.WithLabelValues(kind, "evict").Inc()
}

type pipelineHooks struct{}

var _ observability.PipelineHooks = pipelineHooks{}

func (pipelineHooks) OnScanStart(context.Context, string) {}

func (pipelineHooks) OnScanComplete(_ context.Context, _ string, imageCount int, d time.Duration, err error) {
	if err != nil {
		return
	}
	scanImages.Add(float64(imageCount))
	scanDuration.Observe(d.Seconds())
}

func (pipelineHooks) OnLayoutStart(context.Context, string, int) {}

func (pipelineHooks) OnLayoutComplete(_ context.Context, policy string, rowCount int, d time.Duration, err error) {
	if err != nil {
		return
	}
	layoutDuration.WithLabelValues(policy).Observe(d.Seconds())
	layoutRows.WithLabelValues(policy).Add(float64(rowCount))
}

func (pipelineHooks) OnWarmStart(context.Context, int) {}

func (pipelineHooks) OnWarmComplete(_ context.Context, decoded, failed int, _ time.Duration) {
	warmOutcomes.WithLabelValues("decoded").Add(float64(decoded))
	warmOutcomes.WithLabelValues("failed").Add(float64(failed))
}
