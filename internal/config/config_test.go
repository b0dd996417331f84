package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, time.Second, cfg.Interval())
	assert.Equal(t, "auto", cfg.Bridge.Mode)
	assert.Equal(t, "json", cfg.Export.Format)
	assert.Equal(t, 2*time.Hour+7*time.Minute, cfg.UptimeOffset())
	assert.False(t, cfg.Sampling.HostUptime)
	assert.InDelta(t, 5.69, cfg.Profile.RAMTotalGB, 1e-9)

	_, err := NormalizeAndValidate(cfg)
	require.NoError(t, err)
}

func TestLoad_OverridesAndKeepsDefaults(t *testing.T) {
	path := writeTempConfig(t, `
[sampling]
interval_ms = 500

[bridge]
mode = "Local"

[profile]
platform = "Debian x86_64"
ram_total_gb = 16.0

[[profile.disks]]
path = "/"
total_gb = 100.0
used_gb = 250.0
fs = "ext4"

[[profile.disks]]
path = "/home"
total_gb = 400.0
used_gb = 20.0
fs = "xfs"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 500*time.Millisecond, cfg.Interval())
	assert.Equal(t, "local", cfg.Bridge.Mode)
	assert.Equal(t, "json", cfg.Export.Format)
	assert.Equal(t, "Debian x86_64", cfg.Profile.Platform)
	assert.Equal(t, "KDE Plasma 6.5.3", cfg.Profile.DE)
	assert.InDelta(t, 16.0, cfg.Profile.RAMTotalGB, 1e-9)
	require.Len(t, cfg.Profile.Disks, 2)
	assert.InDelta(t, 100.0, cfg.Profile.Disks[0].UsedGB, 1e-9, "used clamped to total")
	assert.Equal(t, "xfs", cfg.Profile.Disks[1].FS)
}

func TestLoad_KeepsDefaultDisksWhenOmitted(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "[log]\nlevel = \"debug\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Profile.Disks, 1)
	assert.Equal(t, "btrfs", cfg.Profile.Disks[0].FS)
}

func TestLoad_InvalidTOML(t *testing.T) {
	_, err := Load(writeTempConfig(t, "[sampling\n"))
	require.Error(t, err)
}

func TestNormalizeAndValidate_Errors(t *testing.T) {
	tests := map[string]func(*Config){
		"interval too small": func(c *Config) { c.Sampling.IntervalMS = 10 },
		"interval too large": func(c *Config) { c.Sampling.IntervalMS = 120_000 },
		"negative offset":    func(c *Config) { c.Sampling.UptimeOffsetMinutes = -1 },
		"bad bridge":         func(c *Config) { c.Bridge.Mode = "grpc" },
		"bad export format":  func(c *Config) { c.Export.Format = "xml" },
		"bad log level":      func(c *Config) { c.Log.Level = "loud" },
		"empty export dir":   func(c *Config) { c.Export.Dir = "  " },
		"tiny ram":           func(c *Config) { c.Profile.RAMTotalGB = 1 },
		"negative disk":      func(c *Config) { c.Profile.Disks[0].TotalGB = -1 },
		"unnamed disk":       func(c *Config) { c.Profile.Disks[0].Path = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			_, err := NormalizeAndValidate(cfg)
			require.Error(t, err)
		})
	}
}

func TestNormalizeAndValidate_DoesNotMutateInput(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Profile.Disks[0].UsedGB = cfg.Profile.Disks[0].TotalGB + 1
	before := cfg.Profile.Disks[0].UsedGB

	out, err := NormalizeAndValidate(cfg)
	require.NoError(t, err)
	assert.Equal(t, before, cfg.Profile.Disks[0].UsedGB)
	assert.Equal(t, out.Profile.Disks[0].TotalGB, out.Profile.Disks[0].UsedGB)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.Sampling.Seed = 99
	cfg.Media.Dir = "/tmp/drop"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestSaveRejectsEmptyPath(t *testing.T) {
	require.Error(t, Save(" ", DefaultConfig()))
}

func TestLoadOrDefault(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.toml")

	cfg, err := LoadOrDefault(missing, false)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadOrDefault(missing, true)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ApplyEnv(cfg, envMap(map[string]string{
		"AXON_INTERVAL":         "2",
		"AXON_SEED":             "7",
		"AXON_BRIDGE":           "none",
		"AXON_MEDIA_DIR":        "/srv/drop",
		"AXON_MEDIA_BACKGROUND": "/srv/wall.png",
		"AXON_LOG_FORMAT":       "json",
	})))
	assert.Equal(t, 2*time.Second, cfg.Interval())
	assert.Equal(t, uint64(7), cfg.Sampling.Seed)
	assert.Equal(t, "none", cfg.Bridge.Mode)
	assert.Equal(t, "/srv/drop", cfg.Media.Dir)
	assert.Equal(t, "/srv/wall.png", cfg.Media.Background)
	assert.Equal(t, "json", cfg.Log.Format)

	require.Error(t, ApplyEnv(DefaultConfig(), envMap(map[string]string{"AXON_SEED": "x"})))
	require.Error(t, ApplyEnv(DefaultConfig(), envMap(map[string]string{"AXON_INTERVAL": "soon"})))
}

func TestResolvePrecedence(t *testing.T) {
	path := writeTempConfig(t, `
[sampling]
interval_ms = 3000
seed = 5

[bridge]
mode = "local"
`)
	var f Flags
	fs := pflag.NewFlagSet("axon", pflag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{"--config", path, "--interval", "250ms", "--background", " ./wall.png "}))

	cfg, err := Resolve(fs, &f, envMap(map[string]string{"AXON_BRIDGE": "dbus"}))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Interval(), "flag beats file")
	assert.Equal(t, "dbus", cfg.Bridge.Mode, "env beats file")
	assert.Equal(t, uint64(5), cfg.Sampling.Seed, "file beats default")
	assert.Equal(t, "info", cfg.Log.Level, "unchanged flag keeps file/default")
	assert.Equal(t, "wall.png", cfg.Media.Background)
}

func TestResolveMissingExplicitConfig(t *testing.T) {
	var f Flags
	fs := pflag.NewFlagSet("axon", pflag.ContinueOnError)
	f.Register(fs)
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "nope.toml")}))

	_, err := Resolve(fs, &f, envMap(nil))
	require.Error(t, err)
}
