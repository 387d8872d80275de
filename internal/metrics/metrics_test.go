package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestMiddleware_CountsByRoute(t *testing.T) {
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/sessions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/sessions/:id", "200")))
}

func TestObserve(t *testing.T) {
	m := New()

	m.ObserveAnswer("incorrect_retry")
	m.ObserveAnswer("incorrect_retry")
	m.ObserveRestart()
	m.ObserveCompletion(true)
	m.ObserveWrite("log_answer", nil)
	m.ObserveWrite("log_answer", errors.New("disk full"))
	m.ObserveTransition("question_open", "awaiting_playback")
	m.SetOutboxDepth(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.answers.WithLabelValues("incorrect_retry")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.restarts))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.completions.WithLabelValues("passed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writes.WithLabelValues("log_answer", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.writes.WithLabelValues("log_answer", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("question_open", "awaiting_playback")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.outboxDepth))
}

func TestHandler_Exposition(t *testing.T) {
	m := New()
	m.ObserveRestart()

	r := gin.New()
	r.GET("/metrics", m.Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "vidquiz_quiz_restarts_total 1"))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAnswer("correct_advance")
	m.ObserveWrite("log_view", nil)
	m.SetActiveSessions(3)
	assert.Nil(t, m.Registry())

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}
