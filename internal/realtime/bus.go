// Package realtime fans persisted quiz events out to live listeners such as
// the dashboard event stream.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// Message is one event on the bus.
type Message struct {
	Event      string          `json:"event"`
	SessionID  string          `json:"session_id,omitempty"`
	EmployeeID string          `json:"employee_id,omitempty"`
	VideoID    string          `json:"video_id,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	At         time.Time       `json:"at"`
}

// Bus publishes messages and forwards every published message to
// registered callbacks.
type Bus interface {
	Publish(ctx context.Context, msg Message) error

	// StartForwarder calls onMsg for every message until ctx is done.
	StartForwarder(ctx context.Context, onMsg func(Message)) error

	Close() error
}

var errBusClosed = errors.New("realtime bus closed")

// localBus delivers messages within the process.
type localBus struct {
	mu        sync.RWMutex
	listeners map[int]func(Message)
	next      int
	closed    bool
}

// NewLocalBus returns an in-process bus. Delivery is synchronous and in
// publish order.
func NewLocalBus() Bus {
	return &localBus{listeners: make(map[int]func(Message))}
}

func (b *localBus) Publish(_ context.Context, msg Message) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return errBusClosed
	}
	for _, fn := range b.listeners {
		fn(msg)
	}
	return nil
}

func (b *localBus) StartForwarder(ctx context.Context, onMsg func(Message)) error {
	if onMsg == nil {
		return errors.New("onMsg callback required")
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return errBusClosed
	}
	id := b.next
	b.next++
	b.listeners[id] = onMsg
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.listeners, id)
		b.mu.Unlock()
	}()
	return nil
}

func (b *localBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	clear(b.listeners)
	return nil
}
