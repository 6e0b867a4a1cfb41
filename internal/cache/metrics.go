package cache

// Metrics receives cache lifecycle events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// Hit is called when a Get returns a fresh value.
	Hit()
	// Miss is called when a Get finds no entry at all.
	Miss()
	// Stale is called when a Get finds an entry past its TTL.
	Stale()
	// Write is called on every Set.
	Write()
	// Invalidate is called on Delete and Clear.
	Invalidate()
}

// NoopMetrics ignores all events, so callers that do not care about
// instrumentation can skip nil checks.
type NoopMetrics struct{}

func (NoopMetrics) Hit()        {}
func (NoopMetrics) Miss()       {}
func (NoopMetrics) Stale()      {}
func (NoopMetrics) Write()      {}
func (NoopMetrics) Invalidate() {}
