package logging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Formats(t *testing.T) {
	for _, format := range []string{"console", "json", ""} {
		l, err := New(Config{Level: "debug", Format: format})
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}

func TestLogger_FieldsReachCore(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewFromCore(core).Named("flagging").With(String("matrix", "tnc.xlsx"))

	l.Info("flagged document",
		Int("sentences", 12),
		Float64("threshold", 0.2),
		Bool("cached", true),
		Duration("elapsed", time.Second),
		Err(errors.New("late")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "flagging", entries[0].LoggerName)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "tnc.xlsx", ctx["matrix"])
	assert.Equal(t, int64(12), ctx["sentences"])
	assert.Equal(t, 0.2, ctx["threshold"])
	assert.Equal(t, true, ctx["cached"])
	assert.Equal(t, "late", ctx["error"])
}

func TestNop(t *testing.T) {
	l := NewNop().With(String("k", "v")).Named("x")
	l.Debug("d")
	l.Warn("w")
	assert.NoError(t, l.Sync())
}
