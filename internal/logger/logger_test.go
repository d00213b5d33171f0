package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zapcore.Level{
		"":      zapcore.InfoLevel,
		"debug": zapcore.DebugLevel,
		"WARN":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
	} {
		lvl, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, lvl, in)
	}

	_, err := ParseLevel("loud")
	assert.ErrorContains(t, err, `invalid log level "loud"`)
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "warn", true)
	require.NoError(t, err)
	l.Info("dropped")
	l.Warn("kept", zap.String("file", "a.go"))
	require.NoError(t, l.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "a.go", entry["file"])
}

func TestNewWithWriter_Console(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithWriter(&buf, "debug", false)
	require.NoError(t, err)
	l.Debug("hello", zap.Int("n", 3))
	require.NoError(t, l.Sync())
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), `{"n": 3}`)

	_, err = NewWithWriter(&buf, "nope", false)
	assert.Error(t, err)
}
