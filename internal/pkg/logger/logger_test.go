package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewWithCore(core)

	log.Warn("config fallback", map[string]interface{}{"path": "approval.json"})
	log.Error("write failed", errors.New("disk full"), nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "config fallback", entries[0].Message)
	assert.Equal(t, "approval.json", entries[0].ContextMap()["path"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "disk full", entries[1].ContextMap()["error"])
}

func TestDebugEnabled(t *testing.T) {
	tests := map[string]bool{
		"1":     true,
		"true":  true,
		"TRUE":  true,
		"yes":   true,
		"":      false,
		"0":     false,
		"false": false,
	}
	for input, want := range tests {
		assert.Equal(t, want, DebugEnabled(input), "input %q", input)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	log := NewNop()
	log.Debug("ignored", nil)
	log.Sync()
}
