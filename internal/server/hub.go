package server

import (
	"context"
	"sync"
	"time"

	"github.com/abhisek/vidquiz/internal/logger"
	"github.com/abhisek/vidquiz/internal/metrics"
	"github.com/abhisek/vidquiz/internal/quiz"
)

type hubEntry struct {
	runner   *quiz.Runner
	lastSeen time.Time
}

// Hub holds the live sessions of this process and evicts idle ones.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*hubEntry
	idle     time.Duration
	now      func() time.Time
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewHub(idle time.Duration, m *metrics.Metrics, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Nop()
	}
	return &Hub{
		sessions: make(map[string]*hubEntry),
		idle:     idle,
		now:      time.Now,
		metrics:  m,
		log:      log,
	}
}

// Add registers a runner under its session ID.
func (h *Hub) Add(r *quiz.Runner) {
	h.mu.Lock()
	h.sessions[r.SessionID()] = &hubEntry{runner: r, lastSeen: h.now()}
	n := len(h.sessions)
	h.mu.Unlock()
	h.metrics.SetActiveSessions(n)
}

// Get returns the runner for id and marks the session as active.
func (h *Hub) Get(id string) (*quiz.Runner, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.sessions[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = h.now()
	return e.runner, true
}

// Remove abandons a session. Intents it already submitted still drain.
func (h *Hub) Remove(id string) bool {
	h.mu.Lock()
	e, ok := h.sessions[id]
	delete(h.sessions, id)
	n := len(h.sessions)
	h.mu.Unlock()
	if !ok {
		return false
	}
	e.runner.Close()
	h.metrics.SetActiveSessions(n)
	return true
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Sweep removes sessions idle for longer than the idle timeout and returns
// how many were removed.
func (h *Hub) Sweep() int {
	cutoff := h.now().Add(-h.idle)

	h.mu.Lock()
	var stale []*hubEntry
	for id, e := range h.sessions {
		if e.lastSeen.Before(cutoff) {
			stale = append(stale, e)
			delete(h.sessions, id)
		}
	}
	n := len(h.sessions)
	h.mu.Unlock()

	for _, e := range stale {
		e.runner.Close()
		h.log.Info("idle session evicted", "session_id", e.runner.SessionID())
	}
	if len(stale) > 0 {
		h.metrics.SetActiveSessions(n)
	}
	return len(stale)
}

// Run sweeps periodically until ctx is done, then closes every session.
func (h *Hub) Run(ctx context.Context) {
	interval := h.idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.CloseAll()
			return
		case <-ticker.C:
			h.Sweep()
		}
	}
}

// CloseAll abandons every live session.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	entries := make([]*hubEntry, 0, len(h.sessions))
	for id, e := range h.sessions {
		entries = append(entries, e)
		delete(h.sessions, id)
	}
	h.mu.Unlock()

	for _, e := range entries {
		e.runner.Close()
	}
	h.metrics.SetActiveSessions(0)
}
