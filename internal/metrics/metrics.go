// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Login outcomes passed to IncLogin.
const (
	LoginSuccess     = "success"
	LoginFailure     = "failure"
	LoginRateLimited = "rate_limited"
)

// Recorder captures metric events for the application.
type Recorder interface {
	// Schedule mutations
	IncSessionCreated()
	IncSessionDeleted()
	IncDangerFlagSet(on bool)

	// Store health; op names the failing operation, e.g. "list_sessions".
	IncStoreError(op string)

	// Danger flag cache
	IncDangerCacheHit()
	IncDangerCacheMiss()

	// Status refresh
	ObserveStatusRefresh(duration time.Duration)
	SetPresent(present bool)

	// Authentication
	IncLogin(result string)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
