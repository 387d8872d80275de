package quiz

import (
	"context"
	"errors"
	"sync"

	"github.com/abhisek/vidquiz/internal/logger"
)

// Media is the playback surface a Runner drives. Implementations must not
// block.
type Media interface {
	Pause()
	Resume()
	Seek(seconds float64)
}

// Submitter accepts intents for asynchronous execution. emitter.Emitter
// satisfies it.
type Submitter interface {
	Submit(intents ...Intent)
}

// RunnerOptions configures a Runner. All fields are optional.
type RunnerOptions struct {
	Emitter Submitter
	Media   Media
	Logger  *logger.Logger

	// OnTransition observes every accepted transition after its intents
	// were submitted.
	OnTransition func(Transition)
}

// Runner funnels every input of one session through a single goroutine so
// transitions never interleave.
type Runner struct {
	m       *Machine
	opts    RunnerOptions
	inputs  chan runnerJob
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

type runnerJob struct {
	ctx   context.Context
	apply func(ctx context.Context, m *Machine) (Transition, error)
	reply chan runnerResult
}

type runnerResult struct {
	tr   Transition
	view View
	err  error
}

// NewRunner starts the session goroutine for m.
func NewRunner(m *Machine, opts RunnerOptions) *Runner {
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	r := &Runner{
		m:       m,
		opts:    opts,
		inputs:  make(chan runnerJob),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go r.processLoop()
	return r
}

// SessionID returns the session identifier of the wrapped machine.
func (r *Runner) SessionID() string { return r.m.SessionID() }

func (r *Runner) Start(ctx context.Context) (Transition, View, error) {
	return r.do(ctx, func(ctx context.Context, m *Machine) (Transition, error) { return m.Start(ctx) })
}

func (r *Runner) Play(ctx context.Context) (Transition, View, error) {
	return r.do(ctx, func(_ context.Context, m *Machine) (Transition, error) { return m.Play() })
}

func (r *Runner) Tick(ctx context.Context, seconds float64) (Transition, View, error) {
	return r.do(ctx, func(_ context.Context, m *Machine) (Transition, error) { return m.Tick(seconds) })
}

func (r *Runner) Answer(ctx context.Context, answer string) (Transition, View, error) {
	return r.do(ctx, func(_ context.Context, m *Machine) (Transition, error) { return m.Answer(answer) })
}

func (r *Runner) Ended(ctx context.Context) (Transition, View, error) {
	return r.do(ctx, func(_ context.Context, m *Machine) (Transition, error) { return m.Ended() })
}

// View returns the current snapshot.
func (r *Runner) View(ctx context.Context) (View, error) {
	_, v, err := r.do(ctx, nil)
	return v, err
}

// Close stops the session goroutine. Inputs not yet accepted are dropped;
// intents already submitted are left to the emitter.
func (r *Runner) Close() {
	r.once.Do(func() {
		close(r.done)
	})
	<-r.stopped
}

func (r *Runner) do(ctx context.Context, apply func(context.Context, *Machine) (Transition, error)) (Transition, View, error) {
	job := runnerJob{ctx: ctx, apply: apply, reply: make(chan runnerResult, 1)}

	select {
	case r.inputs <- job:
	case <-r.done:
		return Transition{}, View{}, ErrSessionClosed
	case <-ctx.Done():
		return Transition{}, View{}, ctx.Err()
	}

	// The loop always replies once it accepted the job.
	res := <-job.reply
	return res.tr, res.view, res.err
}

func (r *Runner) processLoop() {
	defer close(r.stopped)
	for {
		select {
		case <-r.done:
			return
		case job := <-r.inputs:
			job.reply <- r.handle(job)
		}
	}
}

func (r *Runner) handle(job runnerJob) runnerResult {
	if job.apply == nil {
		return runnerResult{view: r.m.View()}
	}

	tr, err := job.apply(job.ctx, r.m)
	if err != nil {
		if !errors.Is(err, ErrIgnoredTick) {
			r.opts.Logger.Debug("input rejected", "session_id", r.m.SessionID(), "error", err)
		}
		return runnerResult{view: r.m.View(), err: err}
	}

	if r.opts.Emitter != nil && len(tr.Intents) > 0 {
		r.opts.Emitter.Submit(tr.Intents...)
	}
	if r.opts.Media != nil {
		for _, c := range tr.Commands {
			switch c.Kind {
			case CommandPause:
				r.opts.Media.Pause()
			case CommandResume:
				r.opts.Media.Resume()
			case CommandSeek:
				r.opts.Media.Seek(c.Seconds)
			}
		}
	}
	if r.opts.OnTransition != nil {
		r.opts.OnTransition(tr)
	}
	return runnerResult{tr: tr, view: r.m.View()}
}
