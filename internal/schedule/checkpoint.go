// Package schedule loads and validates the question checkpoints bound to a
// video's playback timeline.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/abhisek/vidquiz/internal/store"
)

var (
	// ErrScheduleNotFound means the video has no checkpoints at all.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrMalformedCheckpoint means a checkpoint cannot be asked as stored.
	ErrMalformedCheckpoint = errors.New("malformed checkpoint")

	// ErrScheduleConflict means two checkpoints collide on time or ID.
	ErrScheduleConflict = errors.New("schedule conflict")
)

// MinOptions is the fewest answer options a checkpoint may offer.
const MinOptions = 2

// CheckpointError describes which checkpoint failed validation and why.
// It unwraps to ErrMalformedCheckpoint or ErrScheduleConflict.
type CheckpointError struct {
	CheckpointID string
	Reason       string
	Err          error
}

func (e *CheckpointError) Error() string {
	return fmt.Sprintf("checkpoint %q: %v: %s", e.CheckpointID, e.Err, e.Reason)
}

func (e *CheckpointError) Unwrap() error { return e.Err }

// Checkpoint is a question bound to a playback timestamp. Checkpoints are
// immutable once loaded.
type Checkpoint struct {
	ID           string
	TriggerTime  float64 // seconds from the start of the video
	Prompt       string
	Options      []string
	CorrectIndex int
	Order        int
}

// CorrectAnswer returns the text of the correct option.
func (c Checkpoint) CorrectAnswer() string {
	return c.Options[c.CorrectIndex]
}

// IsCorrect reports whether answer matches the correct option text.
// Surrounding whitespace is ignored.
func (c Checkpoint) IsCorrect(answer string) bool {
	return strings.TrimSpace(answer) == strings.TrimSpace(c.CorrectAnswer())
}

// Schedule is the validated, time-ordered checkpoint set of one video.
type Schedule struct {
	VideoID     string
	checkpoints []Checkpoint
	byID        map[string]int
}

// Source provides the raw question rows of a video.
type Source interface {
	Questions(ctx context.Context, videoID string) ([]store.VideoQuestion, error)
}

// Load fetches the question rows of videoID and validates them into a
// Schedule. It has no side effects.
func Load(ctx context.Context, src Source, videoID string) (*Schedule, error) {
	rows, err := src.Questions(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("load questions for video %s: %w", videoID, err)
	}
	return New(videoID, rows)
}

// New validates raw question rows into a Schedule. Rows may arrive in any
// order; the schedule is keyed by trigger time.
func New(videoID string, rows []store.VideoQuestion) (*Schedule, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("video %s: %w", videoID, ErrScheduleNotFound)
	}

	cps := make([]Checkpoint, 0, len(rows))
	byID := make(map[string]int, len(rows))
	for _, row := range rows {
		cp, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		if _, dup := byID[cp.ID]; dup {
			return nil, &CheckpointError{CheckpointID: cp.ID, Reason: "duplicate id", Err: ErrScheduleConflict}
		}
		byID[cp.ID] = len(cps)
		cps = append(cps, cp)
	}

	sort.SliceStable(cps, func(i, j int) bool { return cps[i].TriggerTime < cps[j].TriggerTime })
	for i := 1; i < len(cps); i++ {
		if cps[i].TriggerTime == cps[i-1].TriggerTime {
			return nil, &CheckpointError{
				CheckpointID: cps[i].ID,
				Reason:       fmt.Sprintf("trigger time %gs already used by %q", cps[i].TriggerTime, cps[i-1].ID),
				Err:          ErrScheduleConflict,
			}
		}
	}
	for i, cp := range cps {
		byID[cp.ID] = i
	}

	return &Schedule{VideoID: videoID, checkpoints: cps, byID: byID}, nil
}

// fromRow converts one loosely typed row, rejecting anything the quiz
// cannot ask.
func fromRow(row store.VideoQuestion) (Checkpoint, error) {
	malformed := func(reason string) error {
		return &CheckpointError{CheckpointID: row.ID, Reason: reason, Err: ErrMalformedCheckpoint}
	}
	switch {
	case row.ID == "":
		return Checkpoint{}, malformed("missing id")
	case strings.TrimSpace(row.Question) == "":
		return Checkpoint{}, malformed("empty prompt")
	case row.Timestamp < 0:
		return Checkpoint{}, malformed(fmt.Sprintf("negative trigger time %g", row.Timestamp))
	case len(row.Options) < MinOptions:
		return Checkpoint{}, malformed(fmt.Sprintf("%d options, need at least %d", len(row.Options), MinOptions))
	case row.CorrectAnswer < 0 || row.CorrectAnswer >= len(row.Options):
		return Checkpoint{}, malformed(fmt.Sprintf("correct index %d out of range [0,%d)", row.CorrectAnswer, len(row.Options)))
	}

	opts := make([]string, len(row.Options))
	copy(opts, row.Options)
	return Checkpoint{
		ID:           row.ID,
		TriggerTime:  row.Timestamp,
		Prompt:       row.Question,
		Options:      opts,
		CorrectIndex: row.CorrectAnswer,
		Order:        row.QuestionOrder,
	}, nil
}

// Len returns the number of checkpoints.
func (s *Schedule) Len() int {
	return len(s.checkpoints)
}

// Checkpoints returns the checkpoints ordered by trigger time.
// The returned slice must not be modified.
func (s *Schedule) Checkpoints() []Checkpoint {
	return s.checkpoints
}

// Get returns the checkpoint with the given ID.
func (s *Schedule) Get(id string) (Checkpoint, bool) {
	i, ok := s.byID[id]
	if !ok {
		return Checkpoint{}, false
	}
	return s.checkpoints[i], true
}

// Index returns the position of id in trigger-time order, or -1.
func (s *Schedule) Index(id string) int {
	i, ok := s.byID[id]
	if !ok {
		return -1
	}
	return i
}
