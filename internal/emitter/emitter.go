// Package emitter executes the persistence intents produced by quiz
// transitions on a background worker. Writes are best effort: failures are
// logged and counted, never reported back to the session.
package emitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/vidquiz/internal/logger"
	"github.com/abhisek/vidquiz/internal/metrics"
	"github.com/abhisek/vidquiz/internal/quiz"
	"github.com/abhisek/vidquiz/internal/realtime"
	"github.com/abhisek/vidquiz/internal/store"
)

// DefaultWriteTimeout bounds a single persistence write.
const DefaultWriteTimeout = 5 * time.Second

// ErrPersistenceWriteFailed matches every *WriteError via errors.Is.
var ErrPersistenceWriteFailed = errors.New("persistence write failed")

// WriteError reports a failed intent write.
type WriteError struct {
	Kind      quiz.IntentKind
	SessionID string
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s for session %s: %v", e.Kind, e.SessionID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrPersistenceWriteFailed }

// Options configures an Emitter. All fields are optional.
type Options struct {
	Logger  *logger.Logger
	Metrics *metrics.Metrics

	// Bus receives every successfully written intent.
	Bus realtime.Bus

	// WriteTimeout defaults to DefaultWriteTimeout.
	WriteTimeout time.Duration

	// OnError observes failed writes after they were logged.
	OnError func(*WriteError)
}

// Emitter is an unbounded FIFO outbox drained by a single worker. Submit
// never blocks and never drops an intent while the emitter is open.
type Emitter struct {
	sink Sink
	opts Options
	log  *logger.Logger

	mu     sync.Mutex
	queue  []quiz.Intent
	closed bool

	wake    chan struct{}
	closing chan struct{}
	done    chan struct{}

	// runCtx is canceled when Close gives up on the backlog.
	runCtx context.Context
	abort  context.CancelFunc
}

// New starts the worker.
func New(sink Sink, opts Options) *Emitter {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	runCtx, abort := context.WithCancel(context.Background())
	e := &Emitter{
		sink:    sink,
		opts:    opts,
		log:     opts.Logger.With("component", "emitter"),
		wake:    make(chan struct{}, 1),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
		runCtx:  runCtx,
		abort:   abort,
	}
	go e.processLoop()
	return e
}

// Submit appends intents to the outbox in order.
func (e *Emitter) Submit(intents ...quiz.Intent) {
	if len(intents) == 0 {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.log.Warn("intents submitted after close were not queued", "count", len(intents))
		return
	}
	e.queue = append(e.queue, intents...)
	depth := len(e.queue)
	e.mu.Unlock()

	e.opts.Metrics.SetOutboxDepth(depth)
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of intents not yet taken by the worker.
func (e *Emitter) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Close stops accepting intents and drains the outbox until ctx is done.
// Whatever is left after that is abandoned.
func (e *Emitter) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.closing)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
		e.abort()
		return nil
	case <-ctx.Done():
		e.abort()
		<-e.done
		if n := e.Pending(); n > 0 {
			e.log.Warn("outbox abandoned on shutdown", "pending", n)
		}
		return ctx.Err()
	}
}

func (e *Emitter) processLoop() {
	defer close(e.done)
	for {
		if e.runCtx.Err() != nil {
			return
		}
		if intent, ok := e.next(); ok {
			e.execute(intent)
			continue
		}
		select {
		case <-e.wake:
		case <-e.closing:
			// Submit refuses new work once closing, so an empty queue is final.
			if e.Pending() == 0 {
				return
			}
		}
	}
}

func (e *Emitter) next() (quiz.Intent, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.queue) == 0 {
		return nil, false
	}
	in := e.queue[0]
	e.queue[0] = nil
	e.queue = e.queue[1:]
	e.opts.Metrics.SetOutboxDepth(len(e.queue))
	return in, true
}

// execute performs exactly one write for intent.
func (e *Emitter) execute(intent quiz.Intent) {
	ctx, cancel := context.WithTimeout(e.runCtx, e.opts.WriteTimeout)
	defer cancel()

	err := e.write(ctx, intent)
	if err != nil && e.runCtx.Err() != nil {
		// Abandoned by Close.
		return
	}
	e.opts.Metrics.ObserveWrite(string(intent.Kind()), err)
	if err != nil {
		sessionID, _, _ := envelope(intent)
		werr := &WriteError{Kind: intent.Kind(), SessionID: sessionID, Err: err}
		e.log.Error("persistence write failed", "kind", werr.Kind, "session_id", werr.SessionID, "error", err)
		if e.opts.OnError != nil {
			e.opts.OnError(werr)
		}
		return
	}
	e.publish(ctx, intent)
}

func (e *Emitter) write(ctx context.Context, intent quiz.Intent) error {
	switch in := intent.(type) {
	case quiz.ViewEvent:
		return e.sink.AppendView(ctx, store.ViewEventData{
			SessionID:  in.SessionID,
			EmployeeID: in.EmployeeID,
			VideoID:    in.VideoID,
			StartedAt:  in.At,
		})
	case quiz.AnswerEvent:
		return e.sink.AppendResponse(ctx, store.ResponseEventData{
			SessionID:      in.SessionID,
			EmployeeID:     in.EmployeeID,
			VideoID:        in.VideoID,
			QuestionID:     in.CheckpointID,
			SelectedAnswer: in.Answer,
			IsCorrect:      in.Correct,
			AttemptNumber:  in.AttemptNumber,
			AnsweredAt:     in.At,
		})
	case quiz.RestartEvent:
		return e.sink.AppendRestart(ctx, store.RestartEventData{
			SessionID:    in.SessionID,
			EmployeeID:   in.EmployeeID,
			VideoID:      in.VideoID,
			RestartCount: in.RestartIndex,
			RestartedAt:  in.At,
		})
	case quiz.Completion:
		return e.sink.Complete(ctx, in.RecordID, in.Passed, in.At)
	default:
		return fmt.Errorf("unknown intent %T", intent)
	}
}

func (e *Emitter) publish(ctx context.Context, intent quiz.Intent) {
	if e.opts.Bus == nil {
		return
	}
	data, err := json.Marshal(intent)
	if err != nil {
		e.log.Warn("encode realtime event", "kind", intent.Kind(), "error", err)
		return
	}
	msg := realtime.Message{Event: string(intent.Kind()), Data: data, At: time.Now()}
	msg.SessionID, msg.EmployeeID, msg.VideoID = envelope(intent)

	err = e.opts.Bus.Publish(ctx, msg)
	e.opts.Metrics.ObservePublish(err)
	if err != nil {
		e.log.Warn("realtime publish failed", "kind", intent.Kind(), "error", err)
	}
}

// envelope returns the session, employee and video an intent belongs to.
func envelope(intent quiz.Intent) (sessionID, employeeID, videoID string) {
	switch in := intent.(type) {
	case quiz.ViewEvent:
		return in.SessionID, in.EmployeeID, in.VideoID
	case quiz.AnswerEvent:
		return in.SessionID, in.EmployeeID, in.VideoID
	case quiz.RestartEvent:
		return in.SessionID, in.EmployeeID, in.VideoID
	case quiz.Completion:
		return in.SessionID, in.EmployeeID, in.VideoID
	}
	return "", "", ""
}
