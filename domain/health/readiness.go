// Package health tracks process readiness: whether the default model
// loaded and the configuration validated.
package health

import "sync"

// State is a consistent snapshot of readiness.
type State struct {
	Ready       bool
	ModelLoaded bool
	ConfigValid bool
	Detail      string
}

// Tracker is the process-wide readiness cell. It is written by the
// startup sequence and read by concurrent health-check callers;
// snapshots are taken under a read lock so the three fields are never
// observed torn.
//
// The state machine is monotonic: once NotReady is latched (startup
// failure or MarkUnusable), the tracker never reports Ready again. An
// operator restart is the only recovery path.
type Tracker struct {
	mu          sync.RWMutex
	modelLoaded bool
	configValid bool
	detail      string
	latched     bool
}

// NewTracker creates a Tracker in the not-ready startup state.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetConfigValid records the configuration validation result. Ignored
// once NotReady has been latched.
func (t *Tracker) SetConfigValid(valid bool, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.latched {
		return
	}
	t.configValid = valid
	if !valid {
		t.detail = detail
		t.latched = true
	}
}

// SetModelLoaded records the default model load result. Ignored once
// NotReady has been latched.
func (t *Tracker) SetModelLoaded(loaded bool, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.latched {
		return
	}
	t.modelLoaded = loaded
	if !loaded {
		t.detail = detail
		t.latched = true
	}
}

// MarkUnusable permanently latches NotReady, recording why. Used when
// the engine is observed to be broken after a successful startup (e.g. a
// probe encode fails).
func (t *Tracker) MarkUnusable(detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.modelLoaded = false
	t.detail = detail
	t.latched = true
}

// Snapshot returns a consistent view of the readiness state.
func (t *Tracker) Snapshot() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return State{
		Ready:       t.modelLoaded && t.configValid,
		ModelLoaded: t.modelLoaded,
		ConfigValid: t.configValid,
		Detail:      t.detail,
	}
}
