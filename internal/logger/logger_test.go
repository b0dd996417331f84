package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewText(t *testing.T) {
	buf := &bytes.Buffer{}
	l, closer, err := New(Config{Level: "info", Format: "text", Output: buf})
	require.NoError(t, err)
	defer closer()

	l.Info("sampled", "cores", 4)
	l.Debug("hidden")
	assert.Contains(t, buf.String(), "sampled")
	assert.Contains(t, buf.String(), "cores=4")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestNewJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l, _, err := New(Config{Level: "debug", Format: "json", Output: buf})
	require.NoError(t, err)

	l.Debug("probe", "mode", "auto")
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "probe", rec["msg"])
	assert.Equal(t, "auto", rec["mode"])
	assert.Equal(t, "DEBUG", rec["level"])
}

func TestNewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axon.log")
	l, closer, err := New(Config{File: path})
	require.NoError(t, err)
	l.Warn("battery disabled")
	require.NoError(t, closer())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "battery disabled")
}

func TestNewFileError(t *testing.T) {
	_, _, err := New(Config{File: filepath.Join(t.TempDir(), "missing", "x.log")})
	require.Error(t, err)
}

func TestInitSetsDefault(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	buf := &bytes.Buffer{}
	_, _, err := Init(Config{Output: buf})
	require.NoError(t, err)
	slog.Info("via default")
	assert.Contains(t, buf.String(), "via default")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
	assert.True(t, ValidLevel("warn"))
	assert.False(t, ValidLevel("loud"))
}
