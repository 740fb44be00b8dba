package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/metric"
)

// BufferPoolMetrics counts buffer-pool lifecycle events (hits, misses,
// evictions, pool-exhausted refusals, flushes, deletes) as OpenTelemetry
// counters, satisfying core/storage/buffer.Metrics. It is the concrete
// instrumentation the teacher's pkg/telemetry.Meter was built to back.
type BufferPoolMetrics struct {
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	poolExhausted metric.Int64Counter
	evictions     metric.Int64Counter
	flushes       metric.Int64Counter
	deletes       metric.Int64Counter
	ctx           context.Context
}

// NewBufferPoolMetrics registers the buffer pool's counters against meter.
func NewBufferPoolMetrics(meter metric.Meter) (*BufferPoolMetrics, error) {
	m := &BufferPoolMetrics{ctx: context.Background()}
	var err error
	if m.hits, err = meter.Int64Counter("bufferpool.hits"); err != nil {
		return nil, err
	}
	if m.misses, err = meter.Int64Counter("bufferpool.misses"); err != nil {
		return nil, err
	}
	if m.poolExhausted, err = meter.Int64Counter("bufferpool.pool_exhausted"); err != nil {
		return nil, err
	}
	if m.evictions, err = meter.Int64Counter("bufferpool.evictions"); err != nil {
		return nil, err
	}
	if m.flushes, err = meter.Int64Counter("bufferpool.flushes"); err != nil {
		return nil, err
	}
	if m.deletes, err = meter.Int64Counter("bufferpool.deletes"); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *BufferPoolMetrics) Hit()           { m.hits.Add(m.ctx, 1) }
func (m *BufferPoolMetrics) Miss()          { m.misses.Add(m.ctx, 1) }
func (m *BufferPoolMetrics) PoolExhausted() { m.poolExhausted.Add(m.ctx, 1) }
func (m *BufferPoolMetrics) Eviction()      { m.evictions.Add(m.ctx, 1) }
func (m *BufferPoolMetrics) Flush()         { m.flushes.Add(m.ctx, 1) }
func (m *BufferPoolMetrics) Delete()        { m.deletes.Add(m.ctx, 1) }
