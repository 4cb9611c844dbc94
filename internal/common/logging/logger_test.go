package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(t *testing.T, level LogLevel) (Logger, *bytes.Buffer) {
	t.Helper()

	var buf bytes.Buffer
	logger, err := NewZapLogger(LogConfig{Level: level, Output: &buf})
	require.NoError(t, err)
	return logger, &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLevel("debug"))
	assert.Equal(t, InfoLevel, ParseLevel("INFO"))
	assert.Equal(t, WarnLevel, ParseLevel("warning"))
	assert.Equal(t, ErrorLevel, ParseLevel("Error"))
	assert.Equal(t, InfoLevel, ParseLevel("nonsense"))
	assert.Equal(t, InfoLevel, ParseLevel(""))
}

func TestLogLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
	assert.Equal(t, "UNKNOWN", LogLevel(42).String())
}

func TestZapAdapter_WritesStructuredFields(t *testing.T) {
	logger, buf := newBufferLogger(t, InfoLevel)

	logger.Info("sweep finished", Int("reclaimed", 4), String("tier", "persistent"))
	_ = logger.(*ZapAdapter).Sync()

	out := buf.String()
	assert.Contains(t, out, "sweep finished")
	assert.Contains(t, out, "reclaimed")
	assert.Contains(t, out, "persistent")
}

func TestZapAdapter_LevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(t, WarnLevel)

	logger.Debug("quiet")
	logger.Info("also quiet")
	logger.Warn("loud")
	_ = logger.(*ZapAdapter).Sync()

	out := buf.String()
	assert.NotContains(t, out, "quiet")
	assert.Contains(t, out, "loud")
}

func TestZapAdapter_ErrorField(t *testing.T) {
	logger, buf := newBufferLogger(t, InfoLevel)

	logger.Error("tier failed", errors.New("disk full"))
	_ = logger.(*ZapAdapter).Sync()

	assert.Contains(t, buf.String(), "disk full")
}

func TestWithFields(t *testing.T) {
	logger, buf := newBufferLogger(t, InfoLevel)

	child := logger.WithFields(String("component", "sweeper"))
	child.Info("tick")
	_ = child.(*ZapAdapter).Sync()

	assert.Contains(t, buf.String(), "sweeper")
}

func TestGlobalLogger(t *testing.T) {
	logger, _ := newBufferLogger(t, InfoLevel)
	SetGlobalLogger(logger)

	assert.Equal(t, logger, GetGlobalLogger())
}

func TestGlobalLogger_SetSurvivesLazyInit(t *testing.T) {
	first, _ := newBufferLogger(t, InfoLevel)
	SetGlobalLogger(first)

	// Lazy initialization must never clobber an installed logger.
	require.Equal(t, first, GetGlobalLogger())

	second, _ := newBufferLogger(t, DebugLevel)
	SetGlobalLogger(second)
	assert.Equal(t, second, GetGlobalLogger())
}
