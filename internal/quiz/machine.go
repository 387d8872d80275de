package quiz

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/vidquiz/internal/ledger"
	"github.com/abhisek/vidquiz/internal/logger"
	"github.com/abhisek/vidquiz/internal/schedule"
)

// SessionRecorder creates the persisted attempt record a session reports
// its completion against. store.AttemptRepo satisfies it.
type SessionRecorder interface {
	Start(ctx context.Context, employeeID, videoID string, at time.Time) (string, error)
}

// Options configures a Machine. The zero value is usable.
type Options struct {
	// SessionID defaults to a fresh UUID.
	SessionID string

	// PassThreshold defaults to DefaultPassThreshold.
	PassThreshold float64

	// Recorder may be nil, in which case the session runs offline.
	Recorder SessionRecorder

	Logger *logger.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Machine is the quiz state machine for one session. It is not safe for
// concurrent use; wrap it in a Runner to serialize inputs.
type Machine struct {
	sc        SessionContext
	schedule  *schedule.Schedule
	recorder  SessionRecorder
	threshold float64
	log       *logger.Logger
	now       func() time.Time
}

// NewMachine creates a machine in NotStarted for viewer v over s.
func NewMachine(s *schedule.Schedule, v Viewer, opts Options) *Machine {
	if opts.SessionID == "" {
		opts.SessionID = uuid.New().String()
	}
	if opts.PassThreshold <= 0 {
		opts.PassThreshold = DefaultPassThreshold
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if v.VideoID == "" {
		v.VideoID = s.VideoID
	}
	return &Machine{
		sc:        newSessionContext(opts.SessionID, v, s),
		schedule:  s,
		recorder:  opts.Recorder,
		threshold: opts.PassThreshold,
		log:       opts.Logger.With("session_id", opts.SessionID, "employee_id", v.EmployeeID, "video_id", v.VideoID),
		now:       opts.Now,
	}
}

// SessionID returns the session identifier used in events.
func (m *Machine) SessionID() string { return m.sc.SessionID }

// State returns the current state.
func (m *Machine) State() State { return m.sc.State }

// Context returns a copy of the session context. The ledger and tracker are
// shared with the machine and must not be mutated.
func (m *Machine) Context() SessionContext { return m.sc }

// Start creates the session record and moves to AwaitingPlayback. A record
// failure is logged and the session continues offline.
func (m *Machine) Start(ctx context.Context) (Transition, error) {
	if m.sc.State != NotStarted {
		return Transition{}, m.invalid("start")
	}

	now := m.now()
	m.sc.StartedAt = now
	if m.recorder != nil {
		id, err := m.recorder.Start(ctx, m.sc.Viewer.EmployeeID, m.sc.Viewer.VideoID, now)
		if err != nil {
			m.log.Warn("session record not created, continuing offline", "error", err)
		} else {
			m.sc.RecordID = id
		}
	}

	return m.move(AwaitingPlayback, Transition{}), nil
}

// Play reports that playback started. The first play of each sub-session
// queues a view record.
func (m *Machine) Play() (Transition, error) {
	if m.sc.State != AwaitingPlayback {
		return Transition{}, m.invalid("play")
	}

	var tr Transition
	if !m.sc.ViewLogged {
		m.sc.ViewLogged = true
		tr.Intents = append(tr.Intents, ViewEvent{
			SessionID:  m.sc.SessionID,
			EmployeeID: m.sc.Viewer.EmployeeID,
			VideoID:    m.sc.Viewer.VideoID,
			At:         m.now(),
		})
	}
	return m.move(AwaitingPlayback, tr), nil
}

// Tick consumes one playback position sample in seconds. When the sample
// crosses one or more checkpoints the earliest one opens and playback is
// paused; the others wait in the pending queue.
func (m *Machine) Tick(raw float64) (Transition, error) {
	if m.sc.State != AwaitingPlayback {
		return Transition{}, ErrIgnoredTick
	}

	if raw < m.sc.Tracker.Position() {
		m.dropPendingAfter(raw)
	}
	for _, id := range m.sc.Tracker.Advance(raw, m.sc.Ledger.Resolved) {
		m.enqueue(id)
	}
	if len(m.sc.Pending) == 0 {
		return m.move(AwaitingPlayback, Transition{}), nil
	}

	m.openNext()
	return m.move(QuestionOpen, Transition{Commands: []Command{pause()}}), nil
}

// Answer grades an answer to the open checkpoint.
func (m *Machine) Answer(answer string) (Transition, error) {
	if m.sc.State != QuestionOpen || m.sc.Current == nil {
		return Transition{}, m.invalid("answer")
	}

	cp := *m.sc.Current
	res, err := m.sc.Ledger.RecordAnswer(cp, answer)
	if err != nil {
		return Transition{}, fmt.Errorf("record answer for %s: %w", cp.ID, err)
	}

	tr := Transition{
		Outcome: res.Outcome,
		Intents: []Intent{AnswerEvent{
			SessionID:     m.sc.SessionID,
			EmployeeID:    m.sc.Viewer.EmployeeID,
			VideoID:       m.sc.Viewer.VideoID,
			CheckpointID:  cp.ID,
			Answer:        answer,
			Correct:       res.Correct,
			AttemptNumber: res.AttemptNumber,
			Outcome:       res.Outcome,
			At:            m.now(),
		}},
	}

	switch res.Outcome {
	case ledger.CorrectAdvance:
		// Queued checkpoints open on the next tick.
		m.sc.Current = nil
		m.sc.clearWrongAnswer()
		tr.Commands = append(tr.Commands, resume())
		return m.move(AwaitingPlayback, tr), nil

	case ledger.IncorrectRetry:
		m.sc.LastWrongAnswer = answer
		m.sc.HasLastWrongAnswer = true
		return m.move(QuestionOpen, tr), nil

	default:
		return m.restart(tr), nil
	}
}

// restart runs the Restarting phase. The restart intent is queued before
// any in-memory state is discarded.
func (m *Machine) restart(tr Transition) Transition {
	m.sc.State = Restarting
	tr.Restarted = true
	tr.Intents = append(tr.Intents, RestartEvent{
		SessionID:    m.sc.SessionID,
		EmployeeID:   m.sc.Viewer.EmployeeID,
		VideoID:      m.sc.Viewer.VideoID,
		RestartIndex: m.sc.RestartCount + 1,
		At:           m.now(),
	})
	m.sc.RestartCount++
	m.sc.resetSubSession()
	tr.Commands = append(tr.Commands, seek(0), resume())

	m.log.Info("session restarted", "restart_count", m.sc.RestartCount)

	tr.From = QuestionOpen
	tr.To = AwaitingPlayback
	m.sc.State = AwaitingPlayback
	return tr
}

// Ended reports that the video played to the end. Checkpoints still queued
// are asked first: the next one opens and the session finishes on a later
// Ended once the queue is empty. The score is the share of checkpoints
// resolved in the current sub-session.
func (m *Machine) Ended() (Transition, error) {
	if m.sc.State != AwaitingPlayback {
		return Transition{}, m.invalid("ended")
	}
	if len(m.sc.Pending) > 0 {
		m.openNext()
		return m.move(QuestionOpen, Transition{Commands: []Command{pause()}}), nil
	}

	if n := m.schedule.Len(); n > 0 {
		m.sc.Score = float64(m.sc.Ledger.ResolvedCount()) / float64(n)
	}
	m.sc.Passed = m.sc.Score >= m.threshold
	m.sc.FinishedAt = m.now()

	var tr Transition
	if m.sc.RecordID != "" {
		tr.Intents = append(tr.Intents, Completion{
			SessionID:  m.sc.SessionID,
			RecordID:   m.sc.RecordID,
			EmployeeID: m.sc.Viewer.EmployeeID,
			VideoID:    m.sc.Viewer.VideoID,
			Score:      m.sc.Score,
			Passed:     m.sc.Passed,
			At:         m.sc.FinishedAt,
		})
	}

	m.log.Info("session finished", "score", m.sc.Score, "passed", m.sc.Passed, "restart_count", m.sc.RestartCount)
	return m.move(Finished, tr), nil
}

// dropPendingAfter removes queued checkpoints the viewer seeked back in
// front of. The tracker re-arms them, so they fire again when playback
// reaches them.
func (m *Machine) dropPendingAfter(raw float64) {
	kept := m.sc.Pending[:0]
	for _, id := range m.sc.Pending {
		if cp, ok := m.schedule.Get(id); ok && cp.TriggerTime > raw {
			continue
		}
		kept = append(kept, id)
	}
	if len(kept) == 0 {
		kept = nil
	}
	m.sc.Pending = kept
}

func (m *Machine) enqueue(id string) {
	if m.sc.Current != nil && m.sc.Current.ID == id {
		return
	}
	if m.sc.Ledger.Resolved(id) {
		return
	}
	for _, p := range m.sc.Pending {
		if p == id {
			return
		}
	}
	m.sc.Pending = append(m.sc.Pending, id)
	// Keep trigger-time order across merges.
	for i := len(m.sc.Pending) - 1; i > 0; i-- {
		if m.schedule.Index(m.sc.Pending[i]) >= m.schedule.Index(m.sc.Pending[i-1]) {
			break
		}
		m.sc.Pending[i], m.sc.Pending[i-1] = m.sc.Pending[i-1], m.sc.Pending[i]
	}
}

// openNext pops the earliest pending checkpoint. Pending must be non-empty.
func (m *Machine) openNext() {
	id := m.sc.Pending[0]
	m.sc.Pending = m.sc.Pending[1:]
	if len(m.sc.Pending) == 0 {
		m.sc.Pending = nil
	}
	cp, _ := m.schedule.Get(id)
	m.sc.Current = &cp
	m.sc.clearWrongAnswer()
}

func (m *Machine) move(to State, tr Transition) Transition {
	tr.From = m.sc.State
	tr.To = to
	m.sc.State = to
	return tr
}

func (m *Machine) invalid(input string) error {
	return fmt.Errorf("%s in state %s: %w", input, m.sc.State, ErrInvalidTransition)
}
