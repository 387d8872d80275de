package quiz

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMedia struct {
	mu    sync.Mutex
	calls []string
	seeks []float64
}

func (r *recordingMedia) Pause()  { r.record("pause") }
func (r *recordingMedia) Resume() { r.record("resume") }
func (r *recordingMedia) Seek(seconds float64) {
	r.mu.Lock()
	r.seeks = append(r.seeks, seconds)
	r.mu.Unlock()
	r.record("seek")
}

func (r *recordingMedia) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

type collectingEmitter struct {
	mu      sync.Mutex
	intents []Intent
}

func (c *collectingEmitter) Submit(intents ...Intent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.intents = append(c.intents, intents...)
}

func (c *collectingEmitter) kinds() []IntentKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return intentKinds(c.intents)
}

func TestRunner_DrivesMediaAndEmitter(t *testing.T) {
	ctx := context.Background()
	media := &recordingMedia{}
	em := &collectingEmitter{}
	var transitions int
	r := NewRunner(
		NewMachine(twoQuestionSchedule(t), Viewer{EmployeeID: "e1"}, Options{Recorder: &fakeRecorder{id: "rec"}}),
		RunnerOptions{Emitter: em, Media: media, OnTransition: func(Transition) { transitions++ }},
	)
	defer r.Close()

	_, v, err := r.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, AwaitingPlayback, v.State)

	_, _, err = r.Play(ctx)
	require.NoError(t, err)
	for _, p := range []float64{0, 5, 10} {
		_, _, err = r.Tick(ctx, p)
		require.NoError(t, err)
	}
	_, _, err = r.Answer(ctx, "A")
	require.NoError(t, err)
	tr, v, err := r.Answer(ctx, "A")
	require.NoError(t, err)
	assert.True(t, tr.Restarted)
	assert.Equal(t, 1, v.RestartCount)

	assert.Equal(t, []string{"pause", "seek", "resume"}, media.calls)
	assert.Equal(t, []float64{0}, media.seeks)
	assert.Equal(t,
		[]IntentKind{IntentLogView, IntentLogAnswer, IntentLogAnswer, IntentLogRestart},
		em.kinds())
	assert.Equal(t, 7, transitions)
}

func TestRunner_RejectedInputReportsView(t *testing.T) {
	r := NewRunner(NewMachine(twoQuestionSchedule(t), Viewer{EmployeeID: "e1"}, Options{}), RunnerOptions{})
	defer r.Close()

	_, v, err := r.Answer(context.Background(), "A")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, NotStarted, v.State)
}

func TestRunner_ClosedSessionRejectsInputs(t *testing.T) {
	r := NewRunner(NewMachine(twoQuestionSchedule(t), Viewer{EmployeeID: "e1"}, Options{}), RunnerOptions{})
	r.Close()
	r.Close()

	_, _, err := r.Start(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = r.View(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestRunner_ConcurrentTicksAreSerialized(t *testing.T) {
	ctx := context.Background()
	em := &collectingEmitter{}
	r := NewRunner(NewMachine(twoQuestionSchedule(t), Viewer{EmployeeID: "e1"}, Options{}), RunnerOptions{Emitter: em})
	defer r.Close()
	_, _, err := r.Start(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = r.Play(ctx)
			_, _, _ = r.Tick(ctx, 12)
		}()
	}
	wg.Wait()

	v, err := r.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, QuestionOpen, v.State)
	assert.Equal(t, "q1", v.Question.CheckpointID)
	assert.Equal(t, []IntentKind{IntentLogView}, em.kinds())
}

func TestRunner_CanceledContext(t *testing.T) {
	r := NewRunner(NewMachine(twoQuestionSchedule(t), Viewer{EmployeeID: "e1"}, Options{}), RunnerOptions{})
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.View(ctx)
	// Either the loop accepted the job first or the cancellation won.
	if err != nil {
		assert.ErrorIs(t, err, context.Canceled)
	}
}
