package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/boardbridge/cache"
)

// Metrics records operation telemetry.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOperation records one operation with duration and error status.
	RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordRetry records a retry sleep for an operation.
	RecordRetry(ctx context.Context, meta OpMeta, attempt int)
}

type metricsImpl struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	retryCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates a Metrics instance backed by the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	totalCount, err := meter.Int64Counter(
		"bridge.op.total",
		metric.WithDescription("Total number of bridge operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"bridge.op.errors",
		metric.WithDescription("Total number of failed bridge operations"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	retryCount, err := meter.Int64Counter(
		"bridge.op.retries",
		metric.WithDescription("Total number of retry attempts"),
		metric.WithUnit("{retry}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"bridge.op.duration_ms",
		metric.WithDescription("Bridge operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:        meter,
		totalCount:   totalCount,
		errorCount:   errorCount,
		retryCount:   retryCount,
		durationHist: durationHist,
	}, nil
}

func (m *metricsImpl) RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("op.id", meta.OpID()),
		attribute.String("op.name", meta.Name),
	}
	if meta.Service != "" {
		attrs = append(attrs, attribute.String("op.service", meta.Service))
	}
	if meta.Project != "" {
		attrs = append(attrs, attribute.String("op.project", meta.Project))
	}

	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	if err != nil {
		m.errorCount.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordRetry(ctx context.Context, meta OpMeta, attempt int) {
	m.retryCount.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op.id", meta.OpID()),
		attribute.Int("retry.attempt", attempt),
	))
}

// RegisterCacheMetrics exposes a cache's hit/miss/eviction counters as
// observable gauges. Values are read lazily at collection time.
func RegisterCacheMetrics(meter metric.Meter, name string, c *cache.Cache) error {
	hits, err := meter.Int64ObservableGauge(
		"bridge.cache.hits",
		metric.WithDescription("Cache hits since startup"),
	)
	if err != nil {
		return err
	}
	misses, err := meter.Int64ObservableGauge(
		"bridge.cache.misses",
		metric.WithDescription("Cache misses since startup"),
	)
	if err != nil {
		return err
	}
	size, err := meter.Int64ObservableGauge(
		"bridge.cache.size",
		metric.WithDescription("Live cache entries"),
	)
	if err != nil {
		return err
	}
	evictions, err := meter.Int64ObservableGauge(
		"bridge.cache.evictions",
		metric.WithDescription("Entries evicted to stay within capacity"),
	)
	if err != nil {
		return err
	}

	opt := metric.WithAttributes(attribute.String("cache.name", name))
	_, err = meter.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			stats := c.Stats()
			o.ObserveInt64(hits, stats.Hits, opt)
			o.ObserveInt64(misses, stats.Misses, opt)
			o.ObserveInt64(size, int64(stats.Size), opt)
			o.ObserveInt64(evictions, stats.Evictions, opt)
			return nil
		},
		hits, misses, size, evictions,
	)
	return err
}

// NoopMetrics is a metrics implementation that records nothing.
type NoopMetrics struct{}

func (NoopMetrics) RecordOperation(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
}

func (NoopMetrics) RecordRetry(ctx context.Context, meta OpMeta, attempt int) {}
