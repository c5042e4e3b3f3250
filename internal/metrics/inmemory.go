package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	SessionsCreated      uint64
	SessionsDeleted      uint64
	DangerFlagSets       uint64
	DangerCacheHits      uint64
	DangerCacheMisses    uint64
	StatusRefreshes      uint64
	StatusRefreshTotalNs int64
	Present              bool
	StoreErrors          map[string]uint64
	Logins               map[string]uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	sessionsCreated      uint64
	sessionsDeleted      uint64
	dangerFlagSets       uint64
	dangerCacheHits      uint64
	dangerCacheMisses    uint64
	statusRefreshes      uint64
	statusRefreshTotalNs int64
	present              atomic.Bool

	mu          sync.Mutex
	storeErrors map[string]uint64
	logins      map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		storeErrors: make(map[string]uint64),
		logins:      make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	storeErrors := make(map[string]uint64, len(m.storeErrors))
	for k, v := range m.storeErrors {
		storeErrors[k] = v
	}
	logins := make(map[string]uint64, len(m.logins))
	for k, v := range m.logins {
		logins[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		SessionsCreated:      atomic.LoadUint64(&m.sessionsCreated),
		SessionsDeleted:      atomic.LoadUint64(&m.sessionsDeleted),
		DangerFlagSets:       atomic.LoadUint64(&m.dangerFlagSets),
		DangerCacheHits:      atomic.LoadUint64(&m.dangerCacheHits),
		DangerCacheMisses:    atomic.LoadUint64(&m.dangerCacheMisses),
		StatusRefreshes:      atomic.LoadUint64(&m.statusRefreshes),
		StatusRefreshTotalNs: atomic.LoadInt64(&m.statusRefreshTotalNs),
		Present:              m.present.Load(),
		StoreErrors:          storeErrors,
		Logins:               logins,
	}
}

// IncSessionCreated increments the session created counter.
func (m *InMemoryRecorder) IncSessionCreated() {
	atomic.AddUint64(&m.sessionsCreated, 1)
}

// IncSessionDeleted increments the session deleted counter.
func (m *InMemoryRecorder) IncSessionDeleted() {
	atomic.AddUint64(&m.sessionsDeleted, 1)
}

// IncDangerFlagSet counts flag writes regardless of value.
func (m *InMemoryRecorder) IncDangerFlagSet(bool) {
	atomic.AddUint64(&m.dangerFlagSets, 1)
}

// IncStoreError counts a failed store call by operation.
func (m *InMemoryRecorder) IncStoreError(op string) {
	m.mu.Lock()
	m.storeErrors[op]++
	m.mu.Unlock()
}

// IncDangerCacheHit increments the cache hit counter.
func (m *InMemoryRecorder) IncDangerCacheHit() {
	atomic.AddUint64(&m.dangerCacheHits, 1)
}

// IncDangerCacheMiss increments the cache miss counter.
func (m *InMemoryRecorder) IncDangerCacheMiss() {
	atomic.AddUint64(&m.dangerCacheMisses, 1)
}

// ObserveStatusRefresh records one status computation.
func (m *InMemoryRecorder) ObserveStatusRefresh(duration time.Duration) {
	atomic.AddUint64(&m.statusRefreshes, 1)
	atomic.AddInt64(&m.statusRefreshTotalNs, duration.Nanoseconds())
}

// SetPresent stores the latest presence value.
func (m *InMemoryRecorder) SetPresent(present bool) {
	m.present.Store(present)
}

// IncLogin counts a login attempt by outcome.
func (m *InMemoryRecorder) IncLogin(result string) {
	m.mu.Lock()
	m.logins[result]++
	m.mu.Unlock()
}
