package emitter

import (
	"context"
	"time"

	"github.com/abhisek/vidquiz/internal/store"
)

// Sink is the persistence service the emitter writes to.
type Sink interface {
	AppendView(ctx context.Context, data store.ViewEventData) error
	AppendResponse(ctx context.Context, data store.ResponseEventData) error
	AppendRestart(ctx context.Context, data store.RestartEventData) error
	Complete(ctx context.Context, recordID string, passed bool, at time.Time) error
}

type storeSink struct {
	store.EventRepo
	attempts store.AttemptRepo
}

// NewStoreSink writes intents to the event tables and attempt records of s.
func NewStoreSink(s *store.Store) Sink {
	return &storeSink{EventRepo: s.EventRepo(), attempts: s.AttemptRepo()}
}

func (s *storeSink) Complete(ctx context.Context, recordID string, passed bool, at time.Time) error {
	return s.attempts.Complete(ctx, recordID, passed, at)
}
