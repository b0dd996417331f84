package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Dicklesworthstone/axon_dashboard/internal/config"
	"github.com/Dicklesworthstone/axon_dashboard/internal/media"
	"github.com/Dicklesworthstone/axon_dashboard/internal/sensors"
	"github.com/Dicklesworthstone/axon_dashboard/internal/ui"
)

// backgroundDir is the drop subdirectory whose files replace the background.
const backgroundDir = "background"

var (
	mediaSettle       = media.DefaultSettle
	newBatteryMonitor = sensors.NewBatteryMonitor
)

// attachBattery wires the UPower monitor into opts when a battery exists.
func attachBattery(opts *ui.Options, log *slog.Logger) (release func()) {
	bat, err := newBatteryMonitor(log.With("component", "battery"))
	switch {
	case err == nil:
		opts.Battery = bat
		return func() { bat.Close() }
	case errors.Is(err, sensors.ErrNoBattery):
		log.Warn("no battery, card hidden")
	default:
		log.Warn("battery unavailable", "error", err)
	}
	return func() {}
}

// startMedia installs the configured background, then watches the drop
// directory and its background subdirectory when one is configured.
func startMedia(cfg *config.Config, shelf *media.Shelf, log *slog.Logger) (stop func(), err error) {
	mlog := log.With("component", "media")
	if cfg.Media.Background != "" {
		setBackground(shelf, media.File{Path: cfg.Media.Background}, mlog)
	}

	var watchers []*media.Watcher
	stop = func() {
		for _, w := range watchers {
			w.Close()
		}
	}
	if cfg.Media.Dir == "" {
		return stop, nil
	}

	bgDir := filepath.Join(cfg.Media.Dir, backgroundDir)
	if err := os.MkdirAll(bgDir, 0o755); err != nil {
		return nil, fmt.Errorf("background dir: %w", err)
	}

	drop, err := media.NewWatcher(cfg.Media.Dir, mediaSettle, func(f media.File) {
		item, err := shelf.Route(f)
		if err != nil {
			mlog.Warn("media rejected", "path", f.Path, "error", err)
			return
		}
		mlog.Info("media added", "name", item.Name, "kind", item.Kind)
	}, mlog)
	if err != nil {
		return nil, fmt.Errorf("media dir: %w", err)
	}
	watchers = append(watchers, drop)

	bg, err := media.NewWatcher(bgDir, mediaSettle, func(f media.File) {
		setBackground(shelf, f, mlog)
	}, mlog)
	if err != nil {
		stop()
		return nil, fmt.Errorf("background dir: %w", err)
	}
	watchers = append(watchers, bg)
	return stop, nil
}

func setBackground(shelf *media.Shelf, f media.File, log *slog.Logger) {
	item, err := shelf.Background.Set(f)
	if err != nil {
		log.Warn("background rejected", "path", f.Path, "error", err)
		return
	}
	log.Info("background set", "name", item.Name, "kind", item.Kind)
}
