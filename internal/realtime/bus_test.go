package realtime

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/vidquiz/internal/logger"
)

func TestLocalBus_DeliversInOrder(t *testing.T) {
	b := NewLocalBus()
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []string
	require.NoError(t, b.StartForwarder(ctx, func(m Message) { got = append(got, m.Event) }))

	for _, ev := range []string{"log_view", "log_answer", "log_restart"} {
		require.NoError(t, b.Publish(ctx, Message{Event: ev}))
	}
	assert.Equal(t, []string{"log_view", "log_answer", "log_restart"}, got)
}

func TestLocalBus_ForwarderStopsWithContext(t *testing.T) {
	b := NewLocalBus().(*localBus)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, b.StartForwarder(ctx, func(Message) {}))
	cancel()

	assert.Eventually(t, func() bool {
		b.mu.RLock()
		defer b.mu.RUnlock()
		return len(b.listeners) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestLocalBus_Closed(t *testing.T) {
	b := NewLocalBus()
	require.NoError(t, b.Close())

	assert.Error(t, b.Publish(context.Background(), Message{Event: "log_view"}))
	assert.Error(t, b.StartForwarder(context.Background(), func(Message) {}))
}

func TestNewRedisBus_RequiresAddress(t *testing.T) {
	_, err := NewRedisBus(logger.Nop(), RedisOptions{})
	assert.Error(t, err)

	_, err = NewRedisBus(nil, RedisOptions{Addr: "localhost:6379"})
	assert.Error(t, err)
}

// Runs only against a real server: VIDQUIZ_TEST_REDIS_ADDR=localhost:6379.
func TestRedisBus_RoundTrip(t *testing.T) {
	addr := os.Getenv("VIDQUIZ_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("VIDQUIZ_TEST_REDIS_ADDR not set")
	}

	b, err := NewRedisBus(logger.Nop(), RedisOptions{Addr: addr, Channel: "vidquiz:test:" + t.Name()})
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan Message, 1)
	require.NoError(t, b.StartForwarder(ctx, func(m Message) { got <- m }))
	require.NoError(t, b.Publish(ctx, Message{Event: "log_restart", SessionID: "s1"}))

	select {
	case m := <-got:
		assert.Equal(t, "log_restart", m.Event)
		assert.Equal(t, "s1", m.SessionID)
	case <-ctx.Done():
		t.Fatal("no message received")
	}
}
