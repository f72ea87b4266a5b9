package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesFieldsAndRequestID(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(LevelDebug, &buf).Named("roster").With("component", "test")

	ctx := ContextWithRequestID(context.Background(), "req-1")
	logger.WarnContext(ctx, "sync failed", "student_id", "s1", "error", errors.New("boom"))

	var entry map[string]any
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "sync failed", entry["msg"])
	assert.Equal(t, "roster", entry["logger"])
	assert.Equal(t, "test", entry["component"])
	assert.Equal(t, "s1", entry["student_id"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "req-1", entry["request_id"])
}

func TestLogger_LevelFilter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(ParseLevel("error"), &buf)
	logger.Info("dropped")
	assert.Zero(t, buf.Len())
	assert.False(t, logger.Enabled(LevelInfo))
	assert.True(t, logger.Enabled(LevelError))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, LevelDebug, ParseLevel(" DEBUG "))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel("error"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestLogger_NilFallsBackToDefault(t *testing.T) {
	t.Parallel()

	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("hello", "k", "v")
		logger.Named("x").With("a", 1).Error("still fine")
	})
}
