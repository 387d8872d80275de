package quiz

import (
	"time"

	"github.com/abhisek/vidquiz/internal/ledger"
)

// CommandKind is an instruction for the media surface.
type CommandKind int

const (
	CommandPause CommandKind = iota + 1
	CommandResume
	CommandSeek
)

func (k CommandKind) String() string {
	switch k {
	case CommandPause:
		return "pause"
	case CommandResume:
		return "resume"
	case CommandSeek:
		return "seek"
	default:
		return "unknown"
	}
}

// MarshalText renders the kind by name in JSON payloads.
func (k CommandKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Command is a media instruction produced by a transition.
type Command struct {
	Kind CommandKind `json:"kind"`

	// Seconds is the seek target, zero for other kinds.
	Seconds float64 `json:"seconds,omitempty"`
}

func pause() Command           { return Command{Kind: CommandPause} }
func resume() Command          { return Command{Kind: CommandResume} }
func seek(sec float64) Command { return Command{Kind: CommandSeek, Seconds: sec} }

// IntentKind names a persistence side effect.
type IntentKind string

const (
	IntentLogView                 IntentKind = "log_view"
	IntentLogAnswer               IntentKind = "log_answer"
	IntentLogRestart              IntentKind = "log_restart"
	IntentUpsertSessionCompletion IntentKind = "upsert_session_completion"
)

// Intent is a persistence side effect returned by a transition. The machine
// never performs it; an emitter does, asynchronously.
type Intent interface {
	Kind() IntentKind
}

// ViewEvent records the first play of a sub-session.
type ViewEvent struct {
	SessionID  string    `json:"session_id"`
	EmployeeID string    `json:"employee_id"`
	VideoID    string    `json:"video_id"`
	At         time.Time `json:"at"`
}

func (ViewEvent) Kind() IntentKind { return IntentLogView }

// AnswerEvent records one graded answer.
type AnswerEvent struct {
	SessionID     string         `json:"session_id"`
	EmployeeID    string         `json:"employee_id"`
	VideoID       string         `json:"video_id"`
	CheckpointID  string         `json:"checkpoint_id"`
	Answer        string         `json:"answer"`
	Correct       bool           `json:"correct"`
	AttemptNumber int            `json:"attempt_number"`
	Outcome       ledger.Outcome `json:"-"`
	At            time.Time      `json:"at"`
}

func (AnswerEvent) Kind() IntentKind { return IntentLogAnswer }

// RestartEvent records one restart. RestartIndex is 1-based.
type RestartEvent struct {
	SessionID    string    `json:"session_id"`
	EmployeeID   string    `json:"employee_id"`
	VideoID      string    `json:"video_id"`
	RestartIndex int       `json:"restart_index"`
	At           time.Time `json:"at"`
}

func (RestartEvent) Kind() IntentKind { return IntentLogRestart }

// Completion closes the persisted attempt record.
type Completion struct {
	SessionID  string    `json:"session_id"`
	RecordID   string    `json:"record_id"`
	EmployeeID string    `json:"employee_id"`
	VideoID    string    `json:"video_id"`
	Score      float64   `json:"score"`
	Passed     bool      `json:"passed"`
	At         time.Time `json:"at"`
}

func (Completion) Kind() IntentKind { return IntentUpsertSessionCompletion }

// Transition is the result of one accepted input.
type Transition struct {
	From State
	To   State

	// Outcome is set for answer transitions only.
	Outcome ledger.Outcome

	// Restarted is true when the transition passed through Restarting.
	Restarted bool

	Commands []Command
	Intents  []Intent
}
