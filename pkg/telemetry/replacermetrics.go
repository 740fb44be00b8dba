package telemetry

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
)

// ReplacerMetrics counts LRU-K replacer lifecycle events (accesses,
// evictions) as OpenTelemetry counters and reports the current evictable
// count as a gauge, satisfying core/storage/replacer.Metrics.
type ReplacerMetrics struct {
	accesses  metric.Int64Counter
	evictions metric.Int64Counter

	evictableSize atomic.Int64

	ctx context.Context
}

// NewReplacerMetrics registers the replacer's counters and gauge against meter.
func NewReplacerMetrics(meter metric.Meter) (*ReplacerMetrics, error) {
	m := &ReplacerMetrics{ctx: context.Background()}

	var err error
	if m.accesses, err = meter.Int64Counter("replacer.accesses"); err != nil {
		return nil, err
	}
	if m.evictions, err = meter.Int64Counter("replacer.evictions"); err != nil {
		return nil, err
	}
	if _, err = meter.Int64ObservableGauge("replacer.evictable_size",
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(m.evictableSize.Load())
			return nil
		}),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *ReplacerMetrics) Access()                { m.accesses.Add(m.ctx, 1) }
func (m *ReplacerMetrics) Evicted()               { m.evictions.Add(m.ctx, 1) }
func (m *ReplacerMetrics) SetEvictableSize(n int) { m.evictableSize.Store(int64(n)) }
