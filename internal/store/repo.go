package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	EmployeeID string    // exact match when set
	VideoID    string    // exact match when set
	SessionID  string    // exact match when set
	Limit      int       // max results (0 = unlimited)
	After      int64     // sequence > After
	From       time.Time // timestamp >= From
	To         time.Time // timestamp <= To
}

// Employee is a viewer known to the system.
type Employee struct {
	ID             string
	EmployeeNumber string
	FullName       string
}

// Video is a training video.
type Video struct {
	ID    string
	URL   string
	Title string
}

// VideoQuestion is a raw checkpoint row. It is validated into a
// schedule.Checkpoint before the quiz uses it.
type VideoQuestion struct {
	ID            string
	VideoID       string
	Timestamp     float64
	Question      string
	Options       []string
	CorrectAnswer int
	QuestionOrder int
}

// TestAttempt is the persisted session record.
type TestAttempt struct {
	ID          string
	EmployeeID  string
	VideoID     string
	StartedAt   time.Time
	CompletedAt time.Time // zero while incomplete
	Passed      bool
	IsCompleted bool
}

// ResponseEventData captures one submitted answer.
type ResponseEventData struct {
	SessionID      string
	EmployeeID     string
	VideoID        string
	QuestionID     string
	SelectedAnswer string
	IsCorrect      bool
	AttemptNumber  int
	AnsweredAt     time.Time
}

// ResponseRecord is a persisted response with its sequence number.
type ResponseRecord struct {
	Sequence int64
	ResponseEventData
}

// RestartEventData captures one forced restart.
type RestartEventData struct {
	SessionID    string
	EmployeeID   string
	VideoID      string
	RestartCount int
	RestartedAt  time.Time
}

// RestartRecord is a persisted restart with its sequence number.
type RestartRecord struct {
	Sequence int64
	RestartEventData
}

// ViewEventData captures the first play of a sub-session.
type ViewEventData struct {
	SessionID  string
	EmployeeID string
	VideoID    string
	StartedAt  time.Time
}

// ViewRecord is a persisted view with its sequence number.
type ViewRecord struct {
	Sequence int64
	ViewEventData
}

// EmployeeRepo manages employees.
type EmployeeRepo interface {
	// Create stores a new employee. An empty ID is replaced by a fresh UUID.
	Create(ctx context.Context, e *Employee) error

	// ByNumber looks up an employee by employee number.
	// Returns ErrNotFound when no employee matches.
	ByNumber(ctx context.Context, number string) (*Employee, error)

	// List returns all employees ordered by full name.
	List(ctx context.Context) ([]Employee, error)
}

// VideoRepo manages videos, their question schedules and assignments.
type VideoRepo interface {
	// Create stores a new video. An empty ID is replaced by a fresh UUID.
	Create(ctx context.Context, v *Video) error

	// Get returns a video by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*Video, error)

	// ReplaceQuestions atomically swaps the question set of a video.
	ReplaceQuestions(ctx context.Context, videoID string, qs []VideoQuestion) error

	// Questions returns the raw question rows of a video ordered by
	// question_order. The rows are not validated.
	Questions(ctx context.Context, videoID string) ([]VideoQuestion, error)

	// Assign makes videoID the video an employee is asked to watch.
	// Assigning the same pair twice is a no-op.
	Assign(ctx context.Context, employeeID, videoID string) error

	// AssignedVideo returns the video assigned to an employee, or ErrNotFound.
	AssignedVideo(ctx context.Context, employeeID string) (*Video, error)
}

// AttemptRepo manages session records.
type AttemptRepo interface {
	// Start inserts an incomplete attempt and returns its ID.
	Start(ctx context.Context, employeeID, videoID string, at time.Time) (string, error)

	// Complete marks an attempt completed with a pass/fail outcome.
	// Returns ErrNotFound when the attempt does not exist.
	Complete(ctx context.Context, id string, passed bool, at time.Time) error

	// List returns attempts matching opts, newest first.
	List(ctx context.Context, opts QueryOpts) ([]TestAttempt, error)
}

// EventRepo provides append and query access to the quiz event log.
type EventRepo interface {
	AppendResponse(ctx context.Context, data ResponseEventData) error
	AppendRestart(ctx context.Context, data RestartEventData) error
	AppendView(ctx context.Context, data ViewEventData) error

	// Responses returns responses matching opts, newest first.
	Responses(ctx context.Context, opts QueryOpts) ([]ResponseRecord, error)

	// Restarts returns restarts matching opts, oldest first.
	Restarts(ctx context.Context, opts QueryOpts) ([]RestartRecord, error)

	// Views returns views matching opts, oldest first.
	Views(ctx context.Context, opts QueryOpts) ([]ViewRecord, error)
}
