package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/vidquiz/internal/ledger"
	"github.com/abhisek/vidquiz/internal/quiz"
	"github.com/abhisek/vidquiz/internal/schedule"
	"github.com/abhisek/vidquiz/internal/store"
	"github.com/abhisek/vidquiz/internal/viewer"
)

var errSessionNotFound = errors.New("session not found")

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, viewer.ErrMissingViewerIdentity):
		return http.StatusUnauthorized
	case errors.Is(err, viewer.ErrNoAssignment),
		errors.Is(err, schedule.ErrScheduleNotFound),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, errSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, schedule.ErrMalformedCheckpoint):
		return http.StatusUnprocessableEntity
	case errors.Is(err, schedule.ErrScheduleConflict),
		errors.Is(err, quiz.ErrInvalidTransition),
		errors.Is(err, ledger.ErrAlreadyResolved):
		return http.StatusConflict
	case errors.Is(err, quiz.ErrSessionClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
