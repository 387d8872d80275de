// Package report aggregates the quiz event log into the per-employee
// dashboard and the per-video goal summary.
package report

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abhisek/vidquiz/internal/store"
)

// EmployeeStat summarizes one employee's answers on one video.
type EmployeeStat struct {
	EmployeeID     string    `json:"employee_id"`
	FullName       string    `json:"full_name"`
	VideoID        string    `json:"video_id"`
	TotalAnswers   int       `json:"total_answers"`
	CorrectAnswers int       `json:"correct_answers"`
	WrongAnswers   int       `json:"wrong_answers"`
	RestartCount   int       `json:"restart_count"`
	LastActivity   time.Time `json:"last_activity"`
	HasCompleted   bool      `json:"has_completed"`
	ScorePercent   int       `json:"score_percent"`
}

// Goal summarizes how viewers of one video fared.
type Goal struct {
	VideoID           string  `json:"video_id"`
	Title             string  `json:"title"`
	Views             int     `json:"views"`
	Attempts          int     `json:"attempts"`
	Passed            int     `json:"passed"`
	Failed            int     `json:"failed"`
	Incomplete        int     `json:"incomplete"`
	PassedPercent     float64 `json:"passed_percent"`
	FailedPercent     float64 `json:"failed_percent"`
	IncompletePercent float64 `json:"incomplete_percent"`
}

// Service reads the event log. It never writes.
type Service struct {
	events    store.EventRepo
	attempts  store.AttemptRepo
	employees store.EmployeeRepo
	videos    store.VideoRepo
}

func New(s *store.Store) *Service {
	return &Service{
		events:    s.EventRepo(),
		attempts:  s.AttemptRepo(),
		employees: s.EmployeeRepo(),
		videos:    s.VideoRepo(),
	}
}

type pairKey struct {
	employeeID string
	videoID    string
}

// EmployeeStats returns one row per (employee, video) pair that has at
// least one answer, most recently active first. opts filters the answers.
func (s *Service) EmployeeStats(ctx context.Context, opts store.QueryOpts) ([]EmployeeStat, error) {
	var (
		responses []store.ResponseRecord
		restarts  []store.RestartRecord
		attempts  []store.TestAttempt
		employees []store.Employee
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		responses, err = s.events.Responses(gctx, opts)
		return err
	})
	g.Go(func() (err error) {
		restarts, err = s.events.Restarts(gctx, store.QueryOpts{EmployeeID: opts.EmployeeID, VideoID: opts.VideoID})
		return err
	})
	g.Go(func() (err error) {
		attempts, err = s.attempts.List(gctx, store.QueryOpts{EmployeeID: opts.EmployeeID, VideoID: opts.VideoID})
		return err
	})
	g.Go(func() (err error) {
		employees, err = s.employees.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load report data: %w", err)
	}

	names := make(map[string]string, len(employees))
	for _, e := range employees {
		names[e.ID] = e.FullName
	}

	stats := make(map[pairKey]*EmployeeStat)
	for _, r := range responses {
		k := pairKey{r.EmployeeID, r.VideoID}
		st := stats[k]
		if st == nil {
			name, ok := names[r.EmployeeID]
			if !ok {
				name = "Unknown"
			}
			st = &EmployeeStat{EmployeeID: r.EmployeeID, FullName: name, VideoID: r.VideoID}
			stats[k] = st
		}
		st.TotalAnswers++
		if r.IsCorrect {
			st.CorrectAnswers++
		} else {
			st.WrongAnswers++
		}
		if r.AnsweredAt.After(st.LastActivity) {
			st.LastActivity = r.AnsweredAt
		}
	}
	for _, r := range restarts {
		if st := stats[pairKey{r.EmployeeID, r.VideoID}]; st != nil {
			st.RestartCount++
		}
	}
	for _, a := range attempts {
		if st := stats[pairKey{a.EmployeeID, a.VideoID}]; st != nil && a.IsCompleted {
			st.HasCompleted = true
		}
	}

	out := make([]EmployeeStat, 0, len(stats))
	for _, st := range stats {
		st.ScorePercent = percent(st.CorrectAnswers, st.TotalAnswers)
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].LastActivity.After(out[j].LastActivity)
		}
		return out[i].FullName < out[j].FullName
	})
	return out, nil
}

// Goal summarizes the attempts on videoID. Percentages are relative to the
// number of attempts and are zero when there are none. Returns
// store.ErrNotFound for unknown videos.
func (s *Service) Goal(ctx context.Context, videoID string) (*Goal, error) {
	video, err := s.videos.Get(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("video %s: %w", videoID, err)
	}

	var (
		views    []store.ViewRecord
		attempts []store.TestAttempt
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		views, err = s.events.Views(gctx, store.QueryOpts{VideoID: videoID})
		return err
	})
	g.Go(func() (err error) {
		attempts, err = s.attempts.List(gctx, store.QueryOpts{VideoID: videoID})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load goal data: %w", err)
	}

	goal := &Goal{VideoID: video.ID, Title: video.Title, Views: len(views), Attempts: len(attempts)}
	for _, a := range attempts {
		switch {
		case !a.IsCompleted:
			goal.Incomplete++
		case a.Passed:
			goal.Passed++
		default:
			goal.Failed++
		}
	}
	if goal.Attempts > 0 {
		n := float64(goal.Attempts)
		goal.PassedPercent = roundTenth(float64(goal.Passed) / n * 100)
		goal.FailedPercent = roundTenth(float64(goal.Failed) / n * 100)
		goal.IncompletePercent = roundTenth(float64(goal.Incomplete) / n * 100)
	}
	return goal, nil
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
