package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Flags mirrors the command-line overrides. Only flags the user actually
// set are applied.
type Flags struct {
	ConfigPath string
	Interval   time.Duration
	Bridge     string
	Seed       uint64
	ExportDir  string
	MediaDir   string
	Background string
	LogLevel   string
	LogFormat  string
	LogFile    string
}

// Register binds the flags to fs with defaults taken from DefaultConfig.
func (f *Flags) Register(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.StringVar(&f.ConfigPath, "config", "", "config file (default "+DefaultPath()+")")
	fs.DurationVar(&f.Interval, "interval", def.Interval(), "sampling interval")
	fs.StringVar(&f.Bridge, "bridge", def.Bridge.Mode, "telemetry bridge: auto|dbus|local|none")
	fs.Uint64Var(&f.Seed, "seed", def.Sampling.Seed, "simulation seed (0 picks one)")
	fs.StringVar(&f.ExportDir, "export-dir", def.Export.Dir, "directory for exported snapshots")
	fs.StringVar(&f.MediaDir, "media-dir", def.Media.Dir, "watch this directory for dropped media")
	fs.StringVar(&f.Background, "background", def.Media.Background, "show this file in the background slot")
	fs.StringVar(&f.LogLevel, "log-level", def.Log.Level, "debug|info|warn|error")
	fs.StringVar(&f.LogFormat, "log-format", def.Log.Format, "text|json")
	fs.StringVar(&f.LogFile, "log-file", def.Log.File, "write logs to this file")
}

// Resolve loads the config file, then applies environment and changed
// flags, and validates the result.
func Resolve(fs *pflag.FlagSet, f *Flags, getenv func(string) string) (*Config, error) {
	path, explicit := f.ConfigPath, f.ConfigPath != ""
	if !explicit {
		path = DefaultPath()
	}
	cfg, err := LoadOrDefault(path, explicit)
	if err != nil {
		return nil, err
	}
	if err := ApplyEnv(cfg, getenv); err != nil {
		return nil, err
	}
	applyFlags(cfg, fs, f)
	return NormalizeAndValidate(cfg)
}

// ApplyEnv applies AXON_* variables.
func ApplyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("AXON_INTERVAL"); v != "" {
		d, err := parseInterval(v)
		if err != nil {
			return fmt.Errorf("AXON_INTERVAL: %w", err)
		}
		cfg.Sampling.IntervalMS = int(d / time.Millisecond)
	}
	if v := getenv("AXON_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("AXON_SEED: %w", err)
		}
		cfg.Sampling.Seed = seed
	}
	setString(&cfg.Bridge.Mode, getenv("AXON_BRIDGE"))
	setString(&cfg.Export.Dir, getenv("AXON_EXPORT_DIR"))
	setString(&cfg.Export.Format, getenv("AXON_EXPORT_FORMAT"))
	setString(&cfg.Media.Dir, getenv("AXON_MEDIA_DIR"))
	setString(&cfg.Media.Background, getenv("AXON_MEDIA_BACKGROUND"))
	setString(&cfg.Log.Level, getenv("AXON_LOG_LEVEL"))
	setString(&cfg.Log.Format, getenv("AXON_LOG_FORMAT"))
	setString(&cfg.Log.File, getenv("AXON_LOG_FILE"))
	return nil
}

func applyFlags(cfg *Config, fs *pflag.FlagSet, f *Flags) {
	if fs.Changed("interval") {
		cfg.Sampling.IntervalMS = int(f.Interval / time.Millisecond)
	}
	if fs.Changed("seed") {
		cfg.Sampling.Seed = f.Seed
	}
	if fs.Changed("bridge") {
		cfg.Bridge.Mode = f.Bridge
	}
	if fs.Changed("export-dir") {
		cfg.Export.Dir = f.ExportDir
	}
	if fs.Changed("media-dir") {
		cfg.Media.Dir = f.MediaDir
	}
	if fs.Changed("background") {
		cfg.Media.Background = f.Background
	}
	if fs.Changed("log-level") {
		cfg.Log.Level = f.LogLevel
	}
	if fs.Changed("log-format") {
		cfg.Log.Format = f.LogFormat
	}
	if fs.Changed("log-file") {
		cfg.Log.File = f.LogFile
	}
}

// parseInterval accepts Go durations and bare seconds.
func parseInterval(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	return time.ParseDuration(v + "s")
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
