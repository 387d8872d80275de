// Package quiz drives one viewer's pass through a video with timestamped
// checkpoints: it pauses playback at each checkpoint, grades answers with a
// two-attempt limit and restarts the video when both attempts are wrong.
package quiz

import (
	"errors"
	"time"

	"github.com/abhisek/vidquiz/internal/ledger"
	"github.com/abhisek/vidquiz/internal/schedule"
	"github.com/abhisek/vidquiz/internal/tracker"
)

var (
	// ErrInvalidTransition is returned when an input is not accepted in the
	// current state. The session is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrIgnoredTick is returned for position samples that arrive while no
	// playback is being watched (question open, not started, finished).
	ErrIgnoredTick = errors.New("tick ignored")

	// ErrSessionClosed is returned by a Runner after Close.
	ErrSessionClosed = errors.New("session closed")
)

// DefaultPassThreshold is the minimum score that passes a session.
const DefaultPassThreshold = 0.6

// State is the phase of a quiz session.
type State int

const (
	NotStarted       State = iota // Created, record not yet requested
	AwaitingPlayback              // Video playing or ready to play
	QuestionOpen                  // Playback paused on a checkpoint
	Restarting                    // Transient, both attempts used on a checkpoint
	Finished                      // Video ended, score computed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case AwaitingPlayback:
		return "awaiting_playback"
	case QuestionOpen:
		return "question_open"
	case Restarting:
		return "restarting"
	case Finished:
		return "finished"
	default:
		return "unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Viewer identifies who is watching which video.
type Viewer struct {
	EmployeeID string
	VideoID    string
}

// SessionContext is the runtime state of one quiz session.
type SessionContext struct {
	// SessionID identifies this session in emitted events.
	SessionID string

	Viewer Viewer

	// RecordID is the persisted attempt ID. Empty when the session runs
	// offline because the record could not be created.
	RecordID string

	// RestartCount is the number of restarts so far. Never decreases.
	RestartCount int

	State State

	// Current is the open checkpoint, nil unless State is QuestionOpen.
	Current *schedule.Checkpoint

	// Pending holds checkpoints that fired together with Current and wait
	// their turn, ordered by trigger time.
	Pending []string

	Ledger  *ledger.Ledger
	Tracker *tracker.Tracker

	// ViewLogged is set once the first play of the sub-session was logged.
	ViewLogged bool

	// LastWrongAnswer is the rejected answer for the open checkpoint, if any.
	LastWrongAnswer    string
	HasLastWrongAnswer bool

	Score  float64
	Passed bool

	StartedAt  time.Time
	FinishedAt time.Time
}

// newSessionContext creates a context in NotStarted.
func newSessionContext(sessionID string, v Viewer, s *schedule.Schedule) SessionContext {
	return SessionContext{
		SessionID: sessionID,
		Viewer:    v,
		State:     NotStarted,
		Ledger:    ledger.New(),
		Tracker:   tracker.New(s),
	}
}

// resetSubSession discards everything tied to the current pass through the
// video. RestartCount and the record are kept.
func (c *SessionContext) resetSubSession() {
	c.Ledger.ResetAll()
	c.Tracker.Reset()
	c.Pending = nil
	c.Current = nil
	c.ViewLogged = false
	c.clearWrongAnswer()
}

func (c *SessionContext) clearWrongAnswer() {
	c.LastWrongAnswer = ""
	c.HasLastWrongAnswer = false
}
