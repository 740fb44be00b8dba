package buffer

// Metrics receives buffer-pool lifecycle events. The concrete OpenTelemetry
// implementation lives in pkg/telemetry so this package stays free of a
// hard dependency on the metrics backend; callers that don't care about
// observability get noopMetrics.
type Metrics interface {
	Hit()
	Miss()
	PoolExhausted()
	Eviction()
	Flush()
	Delete()
}

type noopMetrics struct{}

func (noopMetrics) Hit()           {}
func (noopMetrics) Miss()          {}
func (noopMetrics) PoolExhausted() {}
func (noopMetrics) Eviction()      {}
func (noopMetrics) Flush()         {}
func (noopMetrics) Delete()        {}
