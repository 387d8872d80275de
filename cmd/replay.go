package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/vidquiz/internal/emitter"
	"github.com/abhisek/vidquiz/internal/quiz"
	"github.com/abhisek/vidquiz/internal/schedule"
	"github.com/abhisek/vidquiz/internal/viewer"
)

var replayCmd = &cobra.Command{
	Use:   "replay <employee-number> <step>...",
	Short: "Drive a quiz session from the command line",
	Long: `Replay runs a real session for an employee and records it like the
HTTP server would. Steps are applied in order:

  play          playback started
  tick:<secs>   playback position sample
  answer:<text> answer the open question
  ended         the video played to the end

Example:
  vidquiz replay 1234 play tick:0 tick:10 answer:B tick:20 answer:A ended`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps, err := parseSteps(args[1:])
		if err != nil {
			return err
		}

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()
		ctx := cmd.Context()

		id, err := viewer.NewResolver(env.store.EmployeeRepo(), env.store.VideoRepo()).Resolve(ctx, args[0])
		if err != nil {
			return err
		}
		sched, err := schedule.Load(ctx, env.store.VideoRepo(), id.Video.ID)
		if err != nil {
			return err
		}

		em := emitter.New(emitter.NewStoreSink(env.store), emitter.Options{
			Logger:       env.log,
			WriteTimeout: env.cfg.Emitter.WriteTimeout,
		})
		defer func() {
			drainCtx, cancel := context.WithTimeout(context.Background(), env.cfg.Emitter.DrainTimeout)
			defer cancel()
			if err := em.Close(drainCtx); err != nil {
				env.log.Warn("emitter drain incomplete", "error", err)
			}
		}()

		m := quiz.NewMachine(sched, quiz.Viewer{EmployeeID: id.Employee.ID, VideoID: id.Video.ID}, quiz.Options{
			PassThreshold: env.cfg.Quiz.PassThreshold,
			Recorder:      env.store.AttemptRepo(),
			Logger:        env.log,
		})
		r := quiz.NewRunner(m, quiz.RunnerOptions{Emitter: em, Media: printMedia{}, Logger: env.log})
		defer r.Close()

		if _, _, err := r.Start(ctx); err != nil {
			return err
		}
		fmt.Printf("Session %s: %s watching %q (%d questions)\n", r.SessionID(), id.Employee.FullName, id.Video.Title, sched.Len())

		for _, st := range steps {
			tr, view, err := st.apply(ctx, r)
			switch {
			case errors.Is(err, quiz.ErrIgnoredTick):
				fmt.Printf("%-14s ignored (%s)\n", st, view.State)
				continue
			case err != nil:
				return fmt.Errorf("%s: %w", st, err)
			}
			printTransition(st, tr, view)
		}
		return nil
	},
}

type step struct {
	kind string
	arg  string
	pos  float64
}

func (s step) String() string {
	if s.arg == "" {
		return s.kind
	}
	return s.kind + ":" + s.arg
}

func (s step) apply(ctx context.Context, r *quiz.Runner) (quiz.Transition, quiz.View, error) {
	switch s.kind {
	case "play":
		return r.Play(ctx)
	case "tick":
		return r.Tick(ctx, s.pos)
	case "answer":
		return r.Answer(ctx, s.arg)
	default:
		return r.Ended(ctx)
	}
}

func parseSteps(args []string) ([]step, error) {
	steps := make([]step, 0, len(args))
	for _, a := range args {
		kind, arg, _ := strings.Cut(a, ":")
		st := step{kind: kind, arg: arg}
		switch kind {
		case "play", "ended":
		case "tick":
			pos, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return nil, fmt.Errorf("step %q: invalid position", a)
			}
			st.pos = pos
		case "answer":
			if arg == "" {
				return nil, fmt.Errorf("step %q: missing answer", a)
			}
		default:
			return nil, fmt.Errorf("unknown step %q", a)
		}
		steps = append(steps, st)
	}
	return steps, nil
}

func printTransition(st step, tr quiz.Transition, view quiz.View) {
	line := fmt.Sprintf("%-14s %s -> %s", st, tr.From, tr.To)
	if tr.Outcome != 0 {
		line += " [" + tr.Outcome.String() + "]"
	}
	if tr.Restarted {
		line += fmt.Sprintf(" restart #%d", view.RestartCount)
	}
	fmt.Println(line)

	if q := view.Question; q != nil && tr.To == quiz.QuestionOpen && tr.Outcome == 0 {
		fmt.Printf("               %s %v\n", q.Prompt, q.Options)
	}
	if view.State == quiz.Finished {
		result := "FAILED"
		if view.Passed {
			result = "PASSED"
		}
		fmt.Printf("Score %.0f%% %s after %d restart(s)\n", view.Score*100, result, view.RestartCount)
	}
}

// printMedia echoes playback commands.
type printMedia struct{}

func (printMedia) Pause()               { fmt.Println("               ⏸ pause") }
func (printMedia) Resume()              { fmt.Println("               ▶ resume") }
func (printMedia) Seek(seconds float64) { fmt.Printf("               ⏮ seek %.1fs\n", seconds) }
