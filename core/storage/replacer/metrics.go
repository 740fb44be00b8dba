package replacer

// Metrics receives replacer lifecycle events. The concrete OpenTelemetry
// implementation lives in pkg/telemetry, mirroring how core/storage/buffer
// keeps its own Metrics interface free of a hard dependency on the metrics
// backend.
type Metrics interface {
	Access()
	Evicted()
	SetEvictableSize(n int)
}

type noopMetrics struct{}

func (noopMetrics) Access()              {}
func (noopMetrics) Evicted()             {}
func (noopMetrics) SetEvictableSize(int) {}
