package realtime

import (
	"sync"
	"time"
)

// PresenceTracker records last-seen timestamps per device and derives
// online/offline from the staleness window. Online status is computed, never
// stored authoritatively.
type PresenceTracker struct {
	mu        sync.RWMutex
	lastSeen  map[string]time.Time
	staleness time.Duration
}

func NewPresenceTracker(staleness time.Duration) *PresenceTracker {
	return &PresenceTracker{
		lastSeen:  make(map[string]time.Time),
		staleness: staleness,
	}
}

// Touch records that the device was seen at t.
func (p *PresenceTracker) Touch(deviceID string, t time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSeen[deviceID] = t
}

// IsOnline reports whether the device was seen within the staleness window.
// A device that was never touched is offline.
func (p *PresenceTracker) IsOnline(deviceID string, now time.Time) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	seen, ok := p.lastSeen[deviceID]
	if !ok {
		return false
	}
	return now.Sub(seen) < p.staleness
}

// LastSeen returns the recorded timestamp and whether one exists.
func (p *PresenceTracker) LastSeen(deviceID string) (time.Time, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	seen, ok := p.lastSeen[deviceID]
	return seen, ok
}
