// Package config loads axon settings from a TOML file, AXON_* environment
// variables and command-line flags, in that order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

const (
	minIntervalMS     = 100
	maxIntervalMS     = 60_000
	maxUptimeOffset   = 7 * 24 * 60
	minRAMTotalGB     = 2
	maxRAMTotalGB     = 16_384
	defaultUptimeMins = 127
)

var (
	bridgeModes   = []string{"auto", "dbus", "local", "none"}
	exportFormats = []string{"json", "yaml"}
	logFormats    = []string{"text", "json"}
	logLevels     = []string{"debug", "info", "warn", "warning", "error"}
)

type Config struct {
	Sampling SamplingConfig `toml:"sampling"`
	Bridge   BridgeConfig   `toml:"bridge"`
	Export   ExportConfig   `toml:"export"`
	Media    MediaConfig    `toml:"media"`
	Log      LogConfig      `toml:"log"`
	Profile  model.Profile  `toml:"profile"`
}

type SamplingConfig struct {
	IntervalMS int    `toml:"interval_ms"`
	Seed       uint64 `toml:"seed"` // 0 picks one at startup
	// HostUptime counts uptime from the host boot time instead of process
	// start minus UptimeOffsetMinutes.
	HostUptime          bool `toml:"host_uptime"`
	UptimeOffsetMinutes int  `toml:"uptime_offset_minutes"`
}

type BridgeConfig struct {
	Mode string `toml:"mode"`
}

type ExportConfig struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
}

type MediaConfig struct {
	Dir        string `toml:"dir"`        // drop directory, empty disables the watcher
	Background string `toml:"background"` // file shown in the background slot at startup
	Shuffle    bool   `toml:"shuffle"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Sampling: SamplingConfig{
			IntervalMS:          1000,
			HostUptime:          false,
			UptimeOffsetMinutes: defaultUptimeMins,
		},
		Bridge:  BridgeConfig{Mode: "auto"},
		Export:  ExportConfig{Dir: ".", Format: "json"},
		Log:     LogConfig{Level: "info", Format: "text"},
		Profile: model.DefaultProfile(),
	}
}

// Interval is the sampling period.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Sampling.IntervalMS) * time.Millisecond
}

// UptimeOffset is the uptime already elapsed at process start when the
// host boot time is not used.
func (c *Config) UptimeOffset() time.Duration {
	return time.Duration(c.Sampling.UptimeOffsetMinutes) * time.Minute
}

// DefaultPath is $XDG_CONFIG_HOME/axon/config.toml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "axon", "config.toml")
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Disks from the file replace the default list rather than merging.
	cfg.Profile.Disks = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Profile.Disks) == 0 {
		cfg.Profile.Disks = model.DefaultProfile().Disks
	}

	return NormalizeAndValidate(cfg)
}

// LoadOrDefault loads path, or returns defaults when the file does not
// exist and was not explicitly requested.
func LoadOrDefault(path string, explicit bool) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return DefaultConfig(), nil
	}
	return cfg, err
}

func NormalizeAndValidate(cfg *Config) (*Config, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}

	sanitized := *cfg
	sanitized.Profile.Disks = append([]model.Disk(nil), cfg.Profile.Disks...)

	if err := validateRange("sampling.interval_ms", sanitized.Sampling.IntervalMS, minIntervalMS, maxIntervalMS); err != nil {
		return nil, err
	}
	if err := validateRange("sampling.uptime_offset_minutes", sanitized.Sampling.UptimeOffsetMinutes, 0, maxUptimeOffset); err != nil {
		return nil, err
	}

	var err error
	if sanitized.Bridge.Mode, err = oneOf("bridge.mode", sanitized.Bridge.Mode, bridgeModes); err != nil {
		return nil, err
	}
	if sanitized.Export.Format, err = oneOf("export.format", sanitized.Export.Format, exportFormats); err != nil {
		return nil, err
	}
	if sanitized.Log.Format, err = oneOf("log.format", sanitized.Log.Format, logFormats); err != nil {
		return nil, err
	}
	if sanitized.Log.Level, err = oneOf("log.level", sanitized.Log.Level, logLevels); err != nil {
		return nil, err
	}

	if sanitized.Export.Dir, err = sanitizeDir("export.dir", sanitized.Export.Dir, true); err != nil {
		return nil, err
	}
	if sanitized.Media.Dir, err = sanitizeDir("media.dir", sanitized.Media.Dir, false); err != nil {
		return nil, err
	}
	if strings.TrimSpace(sanitized.Media.Background) != "" {
		sanitized.Media.Background = filepath.Clean(strings.TrimSpace(sanitized.Media.Background))
	}
	if strings.TrimSpace(sanitized.Log.File) != "" {
		sanitized.Log.File = filepath.Clean(strings.TrimSpace(sanitized.Log.File))
	}

	p := &sanitized.Profile
	if p.RAMTotalGB < minRAMTotalGB || p.RAMTotalGB > maxRAMTotalGB {
		return nil, fmt.Errorf("profile.ram_total_gb must be between %d and %d, got %g", minRAMTotalGB, maxRAMTotalGB, p.RAMTotalGB)
	}
	for i := range p.Disks {
		d := &p.Disks[i]
		if d.TotalGB < 0 || d.UsedGB < 0 {
			return nil, fmt.Errorf("profile.disks[%d] sizes must not be negative", i)
		}
		if d.UsedGB > d.TotalGB {
			d.UsedGB = d.TotalGB
		}
		if strings.TrimSpace(d.Path) == "" {
			return nil, fmt.Errorf("profile.disks[%d].path must not be empty", i)
		}
	}

	return &sanitized, nil
}

func Save(path string, cfg *Config) error {
	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return fmt.Errorf("config path must not be empty")
	}

	sanitized, err := NormalizeAndValidate(cfg)
	if err != nil {
		return err
	}

	var data bytes.Buffer
	if err := toml.NewEncoder(&data).Encode(sanitized); err != nil {
		return fmt.Errorf("encode config TOML: %w", err)
	}

	dir := filepath.Dir(trimmedPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("create temp config file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data.Bytes()); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp config file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp config file: %w", err)
	}
	if err := os.Rename(tmpPath, trimmedPath); err != nil {
		return fmt.Errorf("replace config file: %w", err)
	}
	tmpPath = ""

	return nil
}

func sanitizeDir(name, value string, required bool) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		if required {
			return "", fmt.Errorf("%s must not be empty", name)
		}
		return "", nil
	}
	return filepath.Clean(trimmed), nil
}

func oneOf(name, value string, allowed []string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s must be one of %s, got %q", name, strings.Join(allowed, "|"), value)
}

func validateRange(name string, value, min, max int) error {
	if value < min || value > max {
		return fmt.Errorf("%s must be between %d and %d, got %d", name, min, max, value)
	}

	return nil
}
