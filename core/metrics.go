package core

// Metrics records the application counters.
type Metrics interface {
	SessionStarted()
	RecordMarked(status string)
	ScanRejected(reason string)
	EventDropped(topic string)
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) SessionStarted()     {}
func (NopMetrics) RecordMarked(string) {}
func (NopMetrics) ScanRejected(string) {}
func (NopMetrics) EventDropped(string) {}

var _ Metrics = NopMetrics{}
