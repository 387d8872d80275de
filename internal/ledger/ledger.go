// Package ledger keeps per-checkpoint attempt bookkeeping for one
// sub-session of a quiz.
package ledger

import (
	"errors"

	"github.com/abhisek/vidquiz/internal/schedule"
)

// MaxAttempts is the number of answers a viewer gets per checkpoint before
// the session restarts.
const MaxAttempts = 2

// ErrAlreadyResolved is returned when an answer arrives for a checkpoint
// that was already answered correctly in this sub-session.
var ErrAlreadyResolved = errors.New("checkpoint already resolved")

// Outcome is the verdict on one submitted answer.
type Outcome int

const (
	CorrectAdvance     Outcome = iota + 1 // Answer correct; resume playback
	IncorrectRetry                        // First wrong answer; ask again
	IncorrectExhausted                    // Second wrong answer; restart the session
)

func (o Outcome) String() string {
	switch o {
	case CorrectAdvance:
		return "correct_advance"
	case IncorrectRetry:
		return "incorrect_retry"
	case IncorrectExhausted:
		return "incorrect_exhausted"
	default:
		return "unknown"
	}
}

// AttemptState is the bookkeeping for one checkpoint.
type AttemptState struct {
	AttemptsUsed  int    // 0, 1 or 2
	LastAnswer    string // last wrong answer, for highlighting
	HasLastAnswer bool
	Resolved      bool
}

// Result is returned by RecordAnswer.
type Result struct {
	Outcome Outcome

	// AttemptNumber is the 1-based number of the attempt just recorded.
	AttemptNumber int

	// Correct is true only for CorrectAdvance.
	Correct bool
}

// Ledger tracks attempts per checkpoint. It is not safe for concurrent use;
// the quiz machine serializes access.
type Ledger struct {
	states map[string]*AttemptState
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{states: make(map[string]*AttemptState)}
}

// RecordAnswer grades answer against cp and updates its attempt state.
// A wrong answer on the last allowed attempt reports IncorrectExhausted;
// the ledger does not reset itself, the caller restarts via ResetAll.
func (l *Ledger) RecordAnswer(cp schedule.Checkpoint, answer string) (Result, error) {
	st := l.states[cp.ID]
	if st == nil {
		st = &AttemptState{}
		l.states[cp.ID] = st
	}
	if st.Resolved {
		return Result{}, ErrAlreadyResolved
	}

	attempt := st.AttemptsUsed + 1

	if cp.IsCorrect(answer) {
		st.AttemptsUsed = attempt
		st.Resolved = true
		return Result{Outcome: CorrectAdvance, AttemptNumber: attempt, Correct: true}, nil
	}

	st.LastAnswer = answer
	st.HasLastAnswer = true
	if st.AttemptsUsed >= MaxAttempts-1 {
		st.AttemptsUsed = MaxAttempts
		return Result{Outcome: IncorrectExhausted, AttemptNumber: MaxAttempts}, nil
	}
	st.AttemptsUsed = attempt
	return Result{Outcome: IncorrectRetry, AttemptNumber: attempt}, nil
}

// State returns a copy of the attempt state for id. Unknown checkpoints
// report the zero state.
func (l *Ledger) State(id string) AttemptState {
	if st := l.states[id]; st != nil {
		return *st
	}
	return AttemptState{}
}

// Resolved reports whether id was answered correctly in this sub-session.
func (l *Ledger) Resolved(id string) bool {
	st := l.states[id]
	return st != nil && st.Resolved
}

// ResolvedCount returns the number of resolved checkpoints.
func (l *Ledger) ResolvedCount() int {
	n := 0
	for _, st := range l.states {
		if st.Resolved {
			n++
		}
	}
	return n
}

// ResetAll discards every attempt state. Only the quiz machine calls this,
// on restart.
func (l *Ledger) ResetAll() {
	clear(l.states)
}
