package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ivlev/sprite2video/internal/config"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		" WARN ":  zap.WarnLevel,
		"warning": zap.WarnLevel,
		"error":   zap.ErrorLevel,
		"":        zap.InfoLevel,
		"verbose": zap.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestConsoleJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(config.LoggingConfig{Level: "info", Format: "json"}, &buf)

	Component(l, "engine").Info("rendered", zap.Int("frames", 10))
	l.Debug("hidden")
	require.NoError(t, l.Sync())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "rendered", rec["msg"])
	assert.Equal(t, "engine", rec["component"])
	assert.Equal(t, float64(10), rec["frames"])
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s2v.log")
	var console bytes.Buffer
	l := newLogger(config.LoggingConfig{Level: "debug", File: path}, &console)

	l.Debug("to file")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
	assert.Contains(t, console.String(), "to file")
}
