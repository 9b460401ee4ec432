package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFilesTotal       = "deepscan.analysis.files.total"
	metricStagesTotal      = "deepscan.analysis.stages.total"
	metricStageDuration    = "deepscan.analysis.stage.duration.seconds"
	metricCacheHitsTotal   = "deepscan.analysis.cache.hits.total"
	metricCacheMissesTotal = "deepscan.analysis.cache.misses.total"

	attrCache = "cache"
)

// AnalysisMetrics holds OTel instruments for analysis-specific metrics.
type AnalysisMetrics struct {
	filesTotal    metric.Int64Counter
	stagesTotal   metric.Int64Counter
	stageDuration metric.Float64Histogram
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
}

// AnalysisStats holds the statistics for a single internal/pipeline run,
// decoupled from the pipeline's own types.
type AnalysisStats struct {
	Files            int64
	Stages           int
	StageDurations   []time.Duration
	ParseCacheHits   int64
	ParseCacheMisses int64
	TdgCacheHits     int64
	TdgCacheMisses   int64
}

// NewAnalysisMetrics creates analysis metric instruments from the given meter.
func NewAnalysisMetrics(mt metric.Meter) (*AnalysisMetrics, error) {
	files, err := mt.Int64Counter(metricFilesTotal,
		metric.WithDescription("Total files analyzed"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFilesTotal, err)
	}

	stages, err := mt.Int64Counter(metricStagesTotal,
		metric.WithDescription("Total pipeline stages completed"),
		metric.WithUnit("{stage}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricStagesTotal, err)
	}

	stageDur, err := mt.Float64Histogram(metricStageDuration,
		metric.WithDescription("Per-stage processing duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricStageDuration, err)
	}

	hits, err := mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("Cache hits by type"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricCacheMissesTotal,
		metric.WithDescription("Cache misses by type"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMissesTotal, err)
	}

	return &AnalysisMetrics{
		filesTotal:    files,
		stagesTotal:   stages,
		stageDuration: stageDur,
		cacheHits:     hits,
		cacheMisses:   misses,
	}, nil
}

// RecordRun records analysis statistics for a completed pipeline run.
// Safe to call on a nil receiver (no-op), so callers that didn't wire up
// observability don't need a nil check at every call site.
func (am *AnalysisMetrics) RecordRun(ctx context.Context, stats AnalysisStats) {
	if am == nil {
		return
	}

	am.filesTotal.Add(ctx, stats.Files)
	am.stagesTotal.Add(ctx, int64(stats.Stages))

	for _, d := range stats.StageDurations {
		am.stageDuration.Record(ctx, d.Seconds())
	}

	parseAttrs := metric.WithAttributes(attribute.String(attrCache, "parse"))
	am.cacheHits.Add(ctx, stats.ParseCacheHits, parseAttrs)
	am.cacheMisses.Add(ctx, stats.ParseCacheMisses, parseAttrs)

	tdgAttrs := metric.WithAttributes(attribute.String(attrCache, "tdg"))
	am.cacheHits.Add(ctx, stats.TdgCacheHits, tdgAttrs)
	am.cacheMisses.Add(ctx, stats.TdgCacheMisses, tdgAttrs)
}
