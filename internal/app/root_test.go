package app

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/axon_dashboard/internal/config"
	"github.com/Dicklesworthstone/axon_dashboard/internal/logger"
	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRootCommandTree(t *testing.T) {
	cmd := NewRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"export", "stream", "bridge", "config"} {
		assert.True(t, names[want], want)
	}
	for _, flag := range []string{"config", "interval", "bridge", "seed", "export-dir", "media-dir", "log-level", "log-format", "log-file"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
}

func TestStreamEmitsNDJSON(t *testing.T) {
	out, err := run(t, "--bridge", "none", "--seed", "7", "--interval", "100ms", "stream", "--count", "3")
	require.NoError(t, err)

	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var snaps []model.Snapshot
	for sc.Scan() {
		var s model.Snapshot
		require.NoError(t, json.Unmarshal(sc.Bytes(), &s))
		snaps = append(snaps, s)
	}
	require.Len(t, snaps, 3)
	for _, s := range snaps {
		assert.Equal(t, "simulated", s.Source)
		assert.Empty(t, s.Missing())
	}
	assert.False(t, snaps[0].Timestamp.After(snaps[2].Timestamp))
}

func TestExportWritesFile(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "--bridge", "none", "--seed", "1", "--export-dir", dir, "export")
	require.NoError(t, err)

	path := strings.TrimSpace(out)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "axon_system_log_"))
	assert.Equal(t, ".json", filepath.Ext(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var s model.Snapshot
	require.NoError(t, json.Unmarshal(data, &s))
	assert.NotEmpty(t, s.CPUUsage)
}

func TestExportStdoutYAML(t *testing.T) {
	out, err := run(t, "--bridge", "none", "export", "--stdout", "--format", "yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "cpuUsage")
	assert.Contains(t, doc, "osInfo")
}

func TestExportRejectsBadFormat(t *testing.T) {
	_, err := run(t, "--bridge", "none", "export", "--format", "xml")
	require.Error(t, err)
}

func TestInvalidBridgeMode(t *testing.T) {
	_, err := run(t, "--bridge", "grpc", "export")
	require.Error(t, err)
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "axon", "config.toml")

	out, err := run(t, "--config", path, "config", "init")
	require.NoError(t, err)
	assert.Equal(t, path, strings.TrimSpace(out))

	_, err = run(t, "--config", path, "config", "init")
	require.Error(t, err)

	_, err = run(t, "--config", path, "config", "init", "--force")
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	out, err = run(t, "--config", path, "--interval", "250ms", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "[sampling]")
	assert.Contains(t, out, "interval_ms = 250")
}

func TestUptimeStartDefaultsToProcessStartOffset(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	got := uptimeStart(context.Background(), config.DefaultConfig(), logger.Discard(), now)
	assert.Equal(t, 2*time.Hour+7*time.Minute, now.Sub(got))
}

func TestUptimeStartHostBootIsOptIn(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sampling.HostUptime = true
	cfg.Sampling.UptimeOffsetMinutes = 5
	now := time.Now().Add(time.Hour)

	got := uptimeStart(context.Background(), cfg, logger.Discard(), now)
	assert.False(t, got.After(now))
}
