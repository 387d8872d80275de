package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/vidquiz/internal/ledger"
	"github.com/abhisek/vidquiz/internal/schedule"
	"github.com/abhisek/vidquiz/internal/store"
)

type fakeRecorder struct {
	id    string
	err   error
	calls int
}

func (f *fakeRecorder) Start(_ context.Context, _, _ string, _ time.Time) (string, error) {
	f.calls++
	return f.id, f.err
}

func twoQuestionSchedule(t *testing.T) *schedule.Schedule {
	t.Helper()
	s, err := schedule.New("v1", []store.VideoQuestion{
		{ID: "q1", Timestamp: 10, Question: "Q1", Options: []string{"A", "B"}, CorrectAnswer: 1},
		{ID: "q2", Timestamp: 20, Question: "Q2", Options: []string{"A", "B"}, CorrectAnswer: 0},
	})
	require.NoError(t, err)
	return s
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTestMachine(t *testing.T, s *schedule.Schedule, rec SessionRecorder) *Machine {
	t.Helper()
	m := NewMachine(s, Viewer{EmployeeID: "e1"}, Options{
		SessionID: "s1",
		Recorder:  rec,
		Now:       fixedClock(),
	})
	_, err := m.Start(context.Background())
	require.NoError(t, err)
	return m
}

func tickAll(t *testing.T, m *Machine, positions ...float64) Transition {
	t.Helper()
	var last Transition
	for _, p := range positions {
		tr, err := m.Tick(p)
		require.NoError(t, err)
		last = tr
	}
	return last
}

func intentKinds(intents []Intent) []IntentKind {
	kinds := make([]IntentKind, 0, len(intents))
	for _, in := range intents {
		kinds = append(kinds, in.Kind())
	}
	return kinds
}

func TestMachine_RestartThenPass(t *testing.T) {
	rec := &fakeRecorder{id: "attempt-1"}
	m := newTestMachine(t, twoQuestionSchedule(t), rec)
	assert.Equal(t, 1, rec.calls)

	tr := tickAll(t, m, 0, 5, 10)
	assert.Equal(t, QuestionOpen, tr.To)
	assert.Equal(t, []Command{{Kind: CommandPause}}, tr.Commands)
	require.NotNil(t, m.View().Question)
	assert.Equal(t, "q1", m.View().Question.CheckpointID)

	tr, err := m.Answer("A")
	require.NoError(t, err)
	assert.Equal(t, ledger.IncorrectRetry, tr.Outcome)
	assert.Equal(t, QuestionOpen, tr.To)
	assert.Equal(t, "A", m.View().Question.WrongAnswer)
	assert.Equal(t, 1, m.View().Question.AttemptsLeft)

	tr, err = m.Answer("A")
	require.NoError(t, err)
	assert.Equal(t, ledger.IncorrectExhausted, tr.Outcome)
	assert.True(t, tr.Restarted)
	assert.Equal(t, AwaitingPlayback, tr.To)
	assert.Equal(t, []IntentKind{IntentLogAnswer, IntentLogRestart}, intentKinds(tr.Intents))
	assert.Equal(t, 2, tr.Intents[0].(AnswerEvent).AttemptNumber)
	assert.Equal(t, 1, tr.Intents[1].(RestartEvent).RestartIndex)
	assert.Equal(t, []Command{{Kind: CommandSeek, Seconds: 0}, {Kind: CommandResume}}, tr.Commands)
	assert.Equal(t, 1, m.Context().RestartCount)
	assert.Equal(t, 0.0, m.View().Position)
	assert.Equal(t, 0, m.Context().Ledger.ResolvedCount())

	tr = tickAll(t, m, 0, 5, 10)
	assert.Equal(t, QuestionOpen, tr.To)
	tr, err = m.Answer("B")
	require.NoError(t, err)
	assert.Equal(t, ledger.CorrectAdvance, tr.Outcome)
	assert.Equal(t, 1, tr.Intents[0].(AnswerEvent).AttemptNumber)
	assert.Equal(t, []Command{{Kind: CommandResume}}, tr.Commands)

	tr = tickAll(t, m, 15, 20)
	assert.Equal(t, QuestionOpen, tr.To)
	assert.Equal(t, "q2", m.View().Question.CheckpointID)
	tr, err = m.Answer("A")
	require.NoError(t, err)
	assert.Equal(t, ledger.CorrectAdvance, tr.Outcome)

	tr, err = m.Ended()
	require.NoError(t, err)
	assert.Equal(t, Finished, tr.To)
	require.Len(t, tr.Intents, 1)
	done := tr.Intents[0].(Completion)
	assert.Equal(t, "attempt-1", done.RecordID)
	assert.Equal(t, 1.0, done.Score)
	assert.True(t, done.Passed)
	assert.Equal(t, 1, m.Context().RestartCount)
}

func TestMachine_OneOfThreeFails(t *testing.T) {
	s, err := schedule.New("v1", []store.VideoQuestion{
		{ID: "q1", Timestamp: 10, Question: "Q1", Options: []string{"A", "B"}, CorrectAnswer: 0},
		{ID: "q2", Timestamp: 20, Question: "Q2", Options: []string{"A", "B"}, CorrectAnswer: 0},
		{ID: "q3", Timestamp: 30, Question: "Q3", Options: []string{"A", "B"}, CorrectAnswer: 0},
	})
	require.NoError(t, err)
	m := newTestMachine(t, s, &fakeRecorder{id: "attempt-1"})

	tickAll(t, m, 0, 10)
	_, err = m.Answer("A")
	require.NoError(t, err)

	tr, err := m.Ended()
	require.NoError(t, err)
	assert.InDelta(t, 1.0/3.0, m.Context().Score, 1e-9)
	assert.False(t, m.Context().Passed)
	assert.False(t, tr.Intents[0].(Completion).Passed)
	assert.Equal(t, 0, m.Context().RestartCount)
}

func TestMachine_ClosePairOpensInTurn(t *testing.T) {
	s, err := schedule.New("v1", []store.VideoQuestion{
		{ID: "early", Timestamp: 10, Question: "first", Options: []string{"A", "B"}, CorrectAnswer: 0},
		{ID: "late", Timestamp: 10.3, Question: "second", Options: []string{"A", "B"}, CorrectAnswer: 0},
	})
	require.NoError(t, err)
	m := newTestMachine(t, s, nil)

	tickAll(t, m, 9.95)
	tr := tickAll(t, m, 10.35)
	assert.Equal(t, QuestionOpen, tr.To)
	assert.Equal(t, "early", m.View().Question.CheckpointID)
	assert.Equal(t, []string{"late"}, m.Context().Pending)

	_, err = m.Tick(10.45)
	assert.ErrorIs(t, err, ErrIgnoredTick)

	tr, err = m.Answer("A")
	require.NoError(t, err)
	assert.Equal(t, AwaitingPlayback, tr.To)

	tr = tickAll(t, m, 10.45)
	assert.Equal(t, QuestionOpen, tr.To)
	assert.Equal(t, "late", m.View().Question.CheckpointID)
	assert.Empty(t, m.Context().Pending)
}

func closePairSchedule(t *testing.T, first, second float64) *schedule.Schedule {
	t.Helper()
	s, err := schedule.New("v1", []store.VideoQuestion{
		{ID: "q1", Timestamp: first, Question: "Q1", Options: []string{"A", "B"}, CorrectAnswer: 1},
		{ID: "q2", Timestamp: second, Question: "Q2", Options: []string{"A", "B"}, CorrectAnswer: 0},
	})
	require.NoError(t, err)
	return s
}

func TestMachine_BackwardSeekDropsQueuedCheckpoint(t *testing.T) {
	m := newTestMachine(t, closePairSchedule(t, 10, 10.3), nil)

	tickAll(t, m, 0, 10.35)
	assert.Equal(t, "q1", m.View().Question.CheckpointID)
	assert.Equal(t, []string{"q2"}, m.Context().Pending)

	_, err := m.Answer("B")
	require.NoError(t, err)

	tr := tickAll(t, m, 2)
	assert.Equal(t, AwaitingPlayback, tr.To, "q2 lies ahead of the new position")
	assert.Nil(t, m.View().Question)
	assert.Empty(t, m.Context().Pending)

	tr = tickAll(t, m, 10.4)
	assert.Equal(t, QuestionOpen, tr.To)
	assert.Equal(t, "q2", m.View().Question.CheckpointID)

	tr, err = m.Answer("A")
	require.NoError(t, err)
	assert.Equal(t, ledger.CorrectAdvance, tr.Outcome)

	tr = tickAll(t, m, 12)
	assert.Equal(t, AwaitingPlayback, tr.To, "neither checkpoint is asked twice")

	tr, err = m.Ended()
	require.NoError(t, err)
	assert.Equal(t, Finished, tr.To)
	assert.Equal(t, 1.0, m.Context().Score)
}

func TestMachine_BackwardSeekKeepsQueuedCheckpointBehindPosition(t *testing.T) {
	m := newTestMachine(t, closePairSchedule(t, 10, 10.3), nil)

	tickAll(t, m, 0, 10.35)
	_, err := m.Answer("B")
	require.NoError(t, err)

	tr := tickAll(t, m, 10.32)
	assert.Equal(t, QuestionOpen, tr.To)
	assert.Equal(t, "q2", m.View().Question.CheckpointID)
}

func TestMachine_EndedAsksQueuedCheckpointsFirst(t *testing.T) {
	m := newTestMachine(t, closePairSchedule(t, 59.8, 59.9), &fakeRecorder{id: "attempt-1"})

	tickAll(t, m, 59.95)
	_, err := m.Answer("B")
	require.NoError(t, err)
	require.Equal(t, []string{"q2"}, m.Context().Pending)

	tr, err := m.Ended()
	require.NoError(t, err)
	assert.Equal(t, QuestionOpen, tr.To)
	assert.Equal(t, []Command{{Kind: CommandPause}}, tr.Commands)
	assert.Empty(t, tr.Intents)
	assert.Equal(t, "q2", m.View().Question.CheckpointID)
	assert.Empty(t, m.Context().Pending)

	_, err = m.Answer("A")
	require.NoError(t, err)

	tr, err = m.Ended()
	require.NoError(t, err)
	assert.Equal(t, Finished, tr.To)
	assert.Equal(t, 1.0, m.Context().Score)
	assert.True(t, m.Context().Passed)
	assert.Equal(t, []IntentKind{IntentUpsertSessionCompletion}, intentKinds(tr.Intents))
}

func TestMachine_AtMostOneOpenCheckpoint(t *testing.T) {
	m := newTestMachine(t, twoQuestionSchedule(t), nil)
	tickAll(t, m, 0, 25)

	assert.Equal(t, "q1", m.View().Question.CheckpointID)
	assert.Equal(t, []string{"q2"}, m.Context().Pending)
}

func TestMachine_InvalidInputsChangeNothing(t *testing.T) {
	m := NewMachine(twoQuestionSchedule(t), Viewer{EmployeeID: "e1"}, Options{})

	_, err := m.Answer("A")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = m.Play()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = m.Ended()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = m.Tick(5)
	assert.ErrorIs(t, err, ErrIgnoredTick)
	assert.Equal(t, NotStarted, m.State())

	_, err = m.Start(context.Background())
	require.NoError(t, err)
	_, err = m.Start(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	tickAll(t, m, 0, 10)
	_, err = m.Ended()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, QuestionOpen, m.State())
}

func TestMachine_FinishedIgnoresEverything(t *testing.T) {
	m := newTestMachine(t, twoQuestionSchedule(t), nil)
	_, err := m.Ended()
	require.NoError(t, err)

	_, err = m.Tick(10)
	assert.ErrorIs(t, err, ErrIgnoredTick)
	_, err = m.Answer("B")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = m.Ended()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, Finished, m.State())
}

func TestMachine_OfflineWhenRecordFails(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("db down")}
	m := newTestMachine(t, twoQuestionSchedule(t), rec)

	assert.Equal(t, AwaitingPlayback, m.State())
	assert.Empty(t, m.Context().RecordID)
	assert.True(t, m.View().Offline)

	tickAll(t, m, 0, 10)
	_, err := m.Answer("B")
	require.NoError(t, err)

	tr, err := m.Ended()
	require.NoError(t, err)
	assert.Equal(t, Finished, tr.To)
	assert.Empty(t, tr.Intents, "no completion without a record")
	assert.Equal(t, 0.5, m.Context().Score)
}

func TestMachine_ViewLoggedOncePerSubSession(t *testing.T) {
	m := newTestMachine(t, twoQuestionSchedule(t), nil)

	tr, err := m.Play()
	require.NoError(t, err)
	assert.Equal(t, []IntentKind{IntentLogView}, intentKinds(tr.Intents))

	tr, err = m.Play()
	require.NoError(t, err)
	assert.Empty(t, tr.Intents)

	tickAll(t, m, 0, 10)
	_, _ = m.Answer("A")
	_, _ = m.Answer("A")

	tr, err = m.Play()
	require.NoError(t, err)
	assert.Equal(t, []IntentKind{IntentLogView}, intentKinds(tr.Intents), "restart starts a new sub-session")
}

func TestMachine_RestartCountNeverSkips(t *testing.T) {
	m := newTestMachine(t, twoQuestionSchedule(t), nil)

	var indexes []int
	for i := 0; i < 3; i++ {
		tickAll(t, m, 0, 10)
		_, err := m.Answer("A")
		require.NoError(t, err)
		tr, err := m.Answer("A")
		require.NoError(t, err)
		for _, in := range tr.Intents {
			if ev, ok := in.(RestartEvent); ok {
				indexes = append(indexes, ev.RestartIndex)
			}
		}
	}
	assert.Equal(t, []int{1, 2, 3}, indexes)
	assert.Equal(t, 3, m.Context().RestartCount)
}

func TestMachine_BackwardSeekReasksUnresolvedOnly(t *testing.T) {
	m := newTestMachine(t, twoQuestionSchedule(t), nil)

	tickAll(t, m, 0, 10)
	_, err := m.Answer("B")
	require.NoError(t, err)

	tr := tickAll(t, m, 5, 12)
	assert.Equal(t, AwaitingPlayback, tr.To, "resolved q1 is not asked again")

	tr = tickAll(t, m, 20)
	assert.Equal(t, QuestionOpen, tr.To)
	assert.Equal(t, "q2", m.View().Question.CheckpointID)
}

func TestMachine_ViewHidesCorrectAnswer(t *testing.T) {
	m := newTestMachine(t, twoQuestionSchedule(t), nil)
	tickAll(t, m, 0, 10)

	v := m.View()
	require.NotNil(t, v.Question)
	assert.Equal(t, "Q1", v.Question.Prompt)
	assert.Equal(t, []string{"A", "B"}, v.Question.Options)
	assert.Equal(t, 2, v.Question.AttemptsLeft)
	assert.Empty(t, v.Question.WrongAnswer)
	assert.Equal(t, 2, v.Total)
}

func TestMachine_PassThreshold(t *testing.T) {
	m := NewMachine(twoQuestionSchedule(t), Viewer{EmployeeID: "e1"}, Options{PassThreshold: 0.5})
	_, err := m.Start(context.Background())
	require.NoError(t, err)
	tickAll(t, m, 0, 10)
	_, err = m.Answer("B")
	require.NoError(t, err)

	_, err = m.Ended()
	require.NoError(t, err)
	assert.True(t, m.Context().Passed, "0.5 meets a 0.5 threshold")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "question_open", QuestionOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}
