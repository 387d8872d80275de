package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/vidquiz/internal/quiz"
	"github.com/abhisek/vidquiz/internal/realtime"
	"github.com/abhisek/vidquiz/internal/schedule"
	"github.com/abhisek/vidquiz/internal/store"
)

type loginRequest struct {
	EmployeeNumber string `json:"employee_number"`
}

type employeeResponse struct {
	ID             string `json:"id"`
	EmployeeNumber string `json:"employee_number"`
	FullName       string `json:"full_name"`
}

type videoResponse struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

type transitionResponse struct {
	From      quiz.State     `json:"from"`
	To        quiz.State     `json:"to"`
	Outcome   string         `json:"outcome,omitempty"`
	Restarted bool           `json:"restarted,omitempty"`
	Ignored   bool           `json:"ignored,omitempty"`
	Commands  []quiz.Command `json:"commands"`
	View      quiz.View      `json:"view"`
}

func newTransitionResponse(tr quiz.Transition, v quiz.View) transitionResponse {
	resp := transitionResponse{
		From:      tr.From,
		To:        tr.To,
		Restarted: tr.Restarted,
		Commands:  tr.Commands,
		View:      v,
	}
	if tr.Outcome != 0 {
		resp.Outcome = tr.Outcome.String()
	}
	if resp.Commands == nil {
		resp.Commands = []quiz.Command{}
	}
	return resp
}

func (s *Server) health(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.hub.Len()})
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	id, err := s.resolver.Resolve(c.Request.Context(), req.EmployeeNumber)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"employee": employeeResponse{ID: id.Employee.ID, EmployeeNumber: id.Employee.EmployeeNumber, FullName: id.Employee.FullName},
		"video":    videoResponse{ID: id.Video.ID, URL: id.Video.URL, Title: id.Video.Title},
	})
}

func (s *Server) createSession(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ctx := c.Request.Context()

	id, err := s.resolver.Resolve(ctx, req.EmployeeNumber)
	if err != nil {
		s.fail(c, err)
		return
	}
	sched, err := schedule.Load(ctx, s.store.VideoRepo(), id.Video.ID)
	if err != nil {
		s.fail(c, err)
		return
	}

	m := quiz.NewMachine(sched, quiz.Viewer{EmployeeID: id.Employee.ID, VideoID: id.Video.ID}, quiz.Options{
		PassThreshold: s.opts.PassThreshold,
		Recorder:      s.store.AttemptRepo(),
		Logger:        s.log,
	})
	r := quiz.NewRunner(m, quiz.RunnerOptions{
		Emitter:      s.emitter,
		Logger:       s.log,
		OnTransition: s.observe,
	})
	_, view, err := r.Start(ctx)
	if err != nil {
		r.Close()
		s.fail(c, err)
		return
	}
	s.hub.Add(r)

	c.JSON(http.StatusCreated, gin.H{
		"session_id": r.SessionID(),
		"video":      videoResponse{ID: id.Video.ID, URL: id.Video.URL, Title: id.Video.Title},
		"view":       view,
	})
}

func (s *Server) runner(c *gin.Context) (*quiz.Runner, bool) {
	r, ok := s.hub.Get(c.Param("id"))
	if !ok {
		s.fail(c, fmt.Errorf("%s: %w", c.Param("id"), errSessionNotFound))
		return nil, false
	}
	return r, true
}

func (s *Server) getSession(c *gin.Context) {
	r, ok := s.runner(c)
	if !ok {
		return
	}
	view, err := r.View(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) deleteSession(c *gin.Context) {
	if !s.hub.Remove(c.Param("id")) {
		s.fail(c, fmt.Errorf("%s: %w", c.Param("id"), errSessionNotFound))
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) play(c *gin.Context) {
	s.apply(c, func(ctx context.Context, r *quiz.Runner) (quiz.Transition, quiz.View, error) {
		return r.Play(ctx)
	})
}

func (s *Server) tick(c *gin.Context) {
	var req struct {
		Position *float64 `json:"position" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "position is required"})
		return
	}
	s.apply(c, func(ctx context.Context, r *quiz.Runner) (quiz.Transition, quiz.View, error) {
		return r.Tick(ctx, *req.Position)
	})
}

func (s *Server) answer(c *gin.Context) {
	var req struct {
		Answer string `json:"answer" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "answer is required"})
		return
	}
	s.apply(c, func(ctx context.Context, r *quiz.Runner) (quiz.Transition, quiz.View, error) {
		return r.Answer(ctx, req.Answer)
	})
}

func (s *Server) ended(c *gin.Context) {
	s.apply(c, func(ctx context.Context, r *quiz.Runner) (quiz.Transition, quiz.View, error) {
		return r.Ended(ctx)
	})
}

// apply runs one session input and renders the transition.
func (s *Server) apply(c *gin.Context, fn func(context.Context, *quiz.Runner) (quiz.Transition, quiz.View, error)) {
	r, ok := s.runner(c)
	if !ok {
		return
	}
	tr, view, err := fn(c.Request.Context(), r)
	if errors.Is(err, quiz.ErrIgnoredTick) {
		resp := newTransitionResponse(quiz.Transition{From: view.State, To: view.State}, view)
		resp.Ignored = true
		c.JSON(http.StatusOK, resp)
		return
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newTransitionResponse(tr, view))
}

// observe feeds accepted transitions into the metrics.
func (s *Server) observe(tr quiz.Transition) {
	if tr.From != tr.To || tr.Restarted {
		s.metrics.ObserveTransition(tr.From.String(), tr.To.String())
	}
	if tr.Outcome != 0 {
		s.metrics.ObserveAnswer(tr.Outcome.String())
	}
	if tr.Restarted {
		s.metrics.ObserveRestart()
	}
	for _, in := range tr.Intents {
		if done, ok := in.(quiz.Completion); ok {
			s.metrics.ObserveCompletion(done.Passed)
		}
	}
}

func (s *Server) employeeStats(c *gin.Context) {
	opts := store.QueryOpts{
		EmployeeID: c.Query("employee_id"),
		VideoID:    c.Query("video_id"),
	}
	stats, err := s.reports.EmployeeStats(c.Request.Context(), opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func (s *Server) goal(c *gin.Context) {
	goal, err := s.reports.Goal(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, goal)
}

// events streams realtime messages as server-sent events until the client
// goes away.
func (s *Server) events(c *gin.Context) {
	if s.bus == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "event stream disabled"})
		return
	}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	msgs := make(chan realtime.Message, 64)
	err := s.bus.StartForwarder(ctx, func(m realtime.Message) {
		select {
		case msgs <- m:
		default:
			// Slow listener; drop rather than stall the publisher.
		}
	})
	if err != nil {
		s.fail(c, err)
		return
	}

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case m := <-msgs:
			data, err := json.Marshal(m)
			if err != nil {
				return true
			}
			c.SSEvent(m.Event, string(data))
			return true
		case <-keepAlive.C:
			c.SSEvent("ping", "")
			return true
		}
	})
}
