package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/vidquiz/internal/schedule"
)

var q1 = schedule.Checkpoint{ID: "q1", TriggerTime: 10, Prompt: "Q1", Options: []string{"A", "B"}, CorrectIndex: 1}
var q2 = schedule.Checkpoint{ID: "q2", TriggerTime: 20, Prompt: "Q2", Options: []string{"A", "B"}, CorrectIndex: 0}

func TestRecordAnswer_CorrectFirstTry(t *testing.T) {
	l := New()
	res, err := l.RecordAnswer(q1, "B")
	require.NoError(t, err)

	assert.Equal(t, CorrectAdvance, res.Outcome)
	assert.Equal(t, 1, res.AttemptNumber)
	assert.True(t, res.Correct)
	assert.True(t, l.Resolved("q1"))
	assert.Equal(t, 1, l.ResolvedCount())
}

func TestRecordAnswer_RetryThenCorrect(t *testing.T) {
	l := New()

	res, err := l.RecordAnswer(q1, "A")
	require.NoError(t, err)
	assert.Equal(t, IncorrectRetry, res.Outcome)
	assert.Equal(t, 1, res.AttemptNumber)

	st := l.State("q1")
	assert.Equal(t, 1, st.AttemptsUsed)
	assert.True(t, st.HasLastAnswer)
	assert.Equal(t, "A", st.LastAnswer)

	res, err = l.RecordAnswer(q1, "B")
	require.NoError(t, err)
	assert.Equal(t, CorrectAdvance, res.Outcome)
	assert.Equal(t, 2, res.AttemptNumber)
	assert.Equal(t, 2, l.State("q1").AttemptsUsed)
}

func TestRecordAnswer_SecondWrongExhausts(t *testing.T) {
	l := New()

	_, err := l.RecordAnswer(q1, "A")
	require.NoError(t, err)
	res, err := l.RecordAnswer(q1, "A")
	require.NoError(t, err)

	assert.Equal(t, IncorrectExhausted, res.Outcome)
	assert.Equal(t, 2, res.AttemptNumber)
	assert.Equal(t, 2, l.State("q1").AttemptsUsed)
	assert.False(t, l.Resolved("q1"))
}

func TestRecordAnswer_NeverGrantsThirdAttempt(t *testing.T) {
	l := New()
	for i := 0; i < 5; i++ {
		res, err := l.RecordAnswer(q1, "A")
		require.NoError(t, err)
		if i == 0 {
			assert.Equal(t, IncorrectRetry, res.Outcome)
			continue
		}
		assert.Equal(t, IncorrectExhausted, res.Outcome, "attempt %d", i+1)
		assert.LessOrEqual(t, l.State("q1").AttemptsUsed, MaxAttempts)
	}
}

func TestRecordAnswer_AlreadyResolved(t *testing.T) {
	l := New()
	_, err := l.RecordAnswer(q1, "B")
	require.NoError(t, err)

	_, err = l.RecordAnswer(q1, "A")
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.True(t, l.Resolved("q1"))
}

func TestRecordAnswer_IndependentCheckpoints(t *testing.T) {
	l := New()
	_, _ = l.RecordAnswer(q1, "A")
	res, err := l.RecordAnswer(q2, "B")
	require.NoError(t, err)

	assert.Equal(t, IncorrectRetry, res.Outcome, "q2 has its own counter")
	assert.Equal(t, 1, l.State("q1").AttemptsUsed)
	assert.Equal(t, 1, l.State("q2").AttemptsUsed)
}

func TestResetAll(t *testing.T) {
	l := New()
	_, _ = l.RecordAnswer(q1, "B")
	_, _ = l.RecordAnswer(q2, "B")

	l.ResetAll()

	assert.Equal(t, 0, l.ResolvedCount())
	assert.Equal(t, AttemptState{}, l.State("q1"))
	assert.Equal(t, AttemptState{}, l.State("q2"))

	res, err := l.RecordAnswer(q2, "B")
	require.NoError(t, err)
	assert.Equal(t, IncorrectRetry, res.Outcome, "counters start over after reset")
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "correct_advance", CorrectAdvance.String())
	assert.Equal(t, "incorrect_retry", IncorrectRetry.String())
	assert.Equal(t, "incorrect_exhausted", IncorrectExhausted.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}
