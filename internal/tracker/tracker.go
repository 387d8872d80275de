// Package tracker turns raw playback positions into checkpoint triggers.
package tracker

import (
	"math"

	"github.com/abhisek/vidquiz/internal/schedule"
)

// ResolvedFunc reports whether a checkpoint has been answered correctly in
// the current sub-session.
type ResolvedFunc func(checkpointID string) bool

// Tracker wraps raw position samples from the media surface into
// deduplicated checkpoint triggers for one sub-session.
//
// A checkpoint fires when a sample window (previous position, current
// position] covers its trigger time. Each checkpoint fires at most once until
// Reset, except that seeking backwards re-arms unresolved checkpoints whose
// window is re-entered.
type Tracker struct {
	schedule  *schedule.Schedule
	last      float64
	triggered map[string]bool
}

// New creates a tracker positioned before the start of the video.
func New(s *schedule.Schedule) *Tracker {
	return &Tracker{
		schedule:  s,
		last:      math.Inf(-1),
		triggered: make(map[string]bool),
	}
}

// Advance consumes one raw position sample and returns the IDs of newly
// triggered checkpoints ordered by trigger time. Resolved checkpoints never
// fire. resolved may be nil.
func (t *Tracker) Advance(raw float64, resolved ResolvedFunc) []string {
	if math.IsNaN(raw) {
		return nil
	}

	if raw < t.last {
		t.rewind(raw, resolved)
		t.last = raw
		return nil
	}

	var fired []string
	for _, cp := range t.schedule.Checkpoints() {
		if cp.TriggerTime > raw {
			break
		}
		if cp.TriggerTime <= t.last || t.triggered[cp.ID] {
			continue
		}
		t.triggered[cp.ID] = true
		if resolved != nil && resolved(cp.ID) {
			continue
		}
		fired = append(fired, cp.ID)
	}
	t.last = raw
	return fired
}

// rewind re-arms unresolved checkpoints at or after raw. Resolved ones stay
// triggered so a scrub back never re-asks an answered question.
func (t *Tracker) rewind(raw float64, resolved ResolvedFunc) {
	for _, cp := range t.schedule.Checkpoints() {
		if cp.TriggerTime <= raw || !t.triggered[cp.ID] {
			continue
		}
		if resolved != nil && resolved(cp.ID) {
			continue
		}
		delete(t.triggered, cp.ID)
	}
}

// Triggered reports whether id has fired in this sub-session.
func (t *Tracker) Triggered(id string) bool {
	return t.triggered[id]
}

// Position returns the last sample seen, or -Inf before the first one.
func (t *Tracker) Position() float64 {
	return t.last
}

// Reset clears every trigger marker and rewinds to before the start.
// Called on restart.
func (t *Tracker) Reset() {
	t.last = math.Inf(-1)
	clear(t.triggered)
}
