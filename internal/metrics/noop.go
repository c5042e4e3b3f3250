package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncSessionCreated()                 {}
func (n *NoopRecorder) IncSessionDeleted()                 {}
func (n *NoopRecorder) IncDangerFlagSet(bool)              {}
func (n *NoopRecorder) IncStoreError(string)               {}
func (n *NoopRecorder) IncDangerCacheHit()                 {}
func (n *NoopRecorder) IncDangerCacheMiss()                {}
func (n *NoopRecorder) ObserveStatusRefresh(time.Duration) {}
func (n *NoopRecorder) SetPresent(bool)                    {}
func (n *NoopRecorder) IncLogin(string)                    {}
