package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCacheHitsGauge   = "deepscan.cache.hits"
	metricCacheMissesGauge = "deepscan.cache.misses"
)

// CacheStatsProvider exposes a cache's running hit/miss counters,
// implemented by pkg/cache.Layered[V].Stats's caller-facing wrapper for
// the two caches a pipeline run keeps live: the parse-stage
// *ast.FileContext cache and the TDG duplication-index cache.
type CacheStatsProvider interface {
	CacheHits() int64
	CacheMisses() int64
}

// RegisterCacheMetrics registers observable gauges reporting parse and
// tdg's current hit/miss counts on every collection cycle, tagged by a
// "cache" attribute ("parse"/"tdg") the same way RED/analysis metrics tag
// their own dimensions. Either provider may be nil — that cache simply
// contributes no data points, rather than RegisterCacheMetrics failing.
func RegisterCacheMetrics(mt metric.Meter, parse, tdg CacheStatsProvider) error {
	hits, err := mt.Int64ObservableGauge(metricCacheHitsGauge,
		metric.WithDescription("Current cache hit count by cache"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheHitsGauge, err)
	}

	misses, err := mt.Int64ObservableGauge(metricCacheMissesGauge,
		metric.WithDescription("Current cache miss count by cache"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return fmt.Errorf("create %s: %w", metricCacheMissesGauge, err)
	}

	observe := func(_ context.Context, obs metric.Observer) error {
		observeCacheStats(obs, hits, misses, "parse", parse)
		observeCacheStats(obs, hits, misses, "tdg", tdg)

		return nil
	}

	if _, err := mt.RegisterCallback(observe, hits, misses); err != nil {
		return fmt.Errorf("register cache metrics callback: %w", err)
	}

	return nil
}

func observeCacheStats(
	obs metric.Observer,
	hits, misses metric.Int64ObservableGauge,
	name string,
	provider CacheStatsProvider,
) {
	if provider == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("cache", name))

	obs.ObserveInt64(hits, provider.CacheHits(), attrs)
	obs.ObserveInt64(misses, provider.CacheMisses(), attrs)
}
