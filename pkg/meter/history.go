package meter

import (
	"sync"
	"time"
)

// History keeps the snapshots received within a sliding time window and
// notifies listeners on every update. The window is inclusive: a snapshot
// exactly window older than the newest one is kept. The ground station feeds it from the
// telemetry stream and draws the scope from it.
type History struct {
	window time.Duration

	// Ordered oldest first. Removal is based on Timestamp, not count.
	snapshots []Snapshot
	peak      Snapshot // highest thrust seen since the last Reset
	mu        sync.RWMutex

	callbacks []func(snapshots []Snapshot)
	cbMu      sync.RWMutex

	// Set when the input channel closes, prevents further callbacks.
	shutdown bool
}

// NewHistory creates a history holding window worth of snapshots.
func NewHistory(window time.Duration) *History {
	return &History{
		window:    window,
		snapshots: make([]Snapshot, 0),
	}
}

// ProcessSnapshots consumes input until it is closed.
func (h *History) ProcessSnapshots(input <-chan Snapshot) {
	for s := range input {
		h.Add(s)
	}
	h.mu.Lock()
	h.shutdown = true
	h.mu.Unlock()
}

// Add appends s, drops snapshots that fell out of the window and notifies
// listeners.
func (h *History) Add(s Snapshot) {
	h.mu.Lock()
	h.snapshots = append(h.snapshots, s)

	cutoff := s.Timestamp.Add(-h.window)
	drop := 0
	for drop < len(h.snapshots) && h.snapshots[drop].Timestamp.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		h.snapshots = h.snapshots[drop:]
	}

	if s.Thrust > h.peak.Thrust {
		h.peak = s
	}

	notify := !h.shutdown
	h.mu.Unlock()

	if notify {
		h.notifyCallbacks()
	}
}

// Snapshots returns a copy of the buffered snapshots, oldest first.
func (h *History) Snapshots() []Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	result := make([]Snapshot, len(h.snapshots))
	copy(result, h.snapshots)
	return result
}

// Latest returns the newest snapshot, if any.
func (h *History) Latest() (Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.snapshots) == 0 {
		return Snapshot{}, false
	}
	return h.snapshots[len(h.snapshots)-1], true
}

// Peak returns the snapshot with the highest thrust since the last Reset.
func (h *History) Peak() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.peak
}

// Reset clears the buffer and the peak and re-enables callbacks. Call it
// before feeding a new stream.
func (h *History) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshots = h.snapshots[:0]
	h.peak = Snapshot{}
	h.shutdown = false
}

// OnUpdate registers a callback invoked after every Add with a copy of the
// buffer. Callbacks should return quickly.
func (h *History) OnUpdate(callback func(snapshots []Snapshot)) {
	h.cbMu.Lock()
	defer h.cbMu.Unlock()
	h.callbacks = append(h.callbacks, callback)
}

func (h *History) notifyCallbacks() {
	snapshots := h.Snapshots()

	h.cbMu.RLock()
	callbacks := make([]func([]Snapshot), len(h.callbacks))
	copy(callbacks, h.callbacks)
	h.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(snapshots)
		}
	}
}
