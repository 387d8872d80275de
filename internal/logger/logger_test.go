package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "chatty"})
	assert.Error(t, err)
}

func TestNew_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vidquiz.log")
	log, err := New(Options{Level: "debug", File: path})
	require.NoError(t, err)

	log.Info("session started", "session_id", "s1")
	log.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"session_id":"s1"`)
	assert.Contains(t, string(raw), "session started")
}

func TestWith_AddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("component", "emitter")

	log.Warn("write failed", "kind", "log_answer")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "emitter", fields["component"])
	assert.Equal(t, "log_answer", fields["kind"])
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("ignored")
	log.Sync()
}
