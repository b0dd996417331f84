package app

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/axon_dashboard/internal/config"
	"github.com/Dicklesworthstone/axon_dashboard/internal/logger"
	"github.com/Dicklesworthstone/axon_dashboard/internal/media"
	"github.com/Dicklesworthstone/axon_dashboard/internal/sensors"
	"github.com/Dicklesworthstone/axon_dashboard/internal/ui"
)

func TestStartMediaSetsConfiguredBackground(t *testing.T) {
	wall := filepath.Join(t.TempDir(), "wall.png")
	require.NoError(t, os.WriteFile(wall, []byte("png"), 0o644))

	cfg := config.DefaultConfig()
	cfg.Media.Background = wall
	shelf := media.NewShelf(1)
	defer shelf.Close()

	stop, err := startMedia(cfg, shelf, logger.Discard())
	require.NoError(t, err)
	defer stop()

	item, ok := shelf.Background.Current()
	require.True(t, ok)
	assert.Equal(t, "wall.png", item.Name)
	assert.Equal(t, media.KindImage, item.Kind)
}

func TestStartMediaMissingBackgroundIsNotFatal(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Media.Background = filepath.Join(t.TempDir(), "gone.png")
	shelf := media.NewShelf(1)
	defer shelf.Close()

	stop, err := startMedia(cfg, shelf, logger.Discard())
	require.NoError(t, err)
	defer stop()

	_, ok := shelf.Background.Current()
	assert.False(t, ok)
}

func TestStartMediaRoutesDrops(t *testing.T) {
	prev := mediaSettle
	mediaSettle = 20 * time.Millisecond
	t.Cleanup(func() { mediaSettle = prev })

	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Media.Dir = dir
	shelf := media.NewShelf(1)
	defer shelf.Close()

	stop, err := startMedia(cfg, shelf, logger.Discard())
	require.NoError(t, err)
	defer stop()

	info, err := os.Stat(filepath.Join(dir, backgroundDir))
	require.NoError(t, err)
	require.True(t, info.IsDir())

	require.NoError(t, os.WriteFile(filepath.Join(dir, backgroundDir, "sky.jpg"), []byte("jpg"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("mp3"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cat.png"), []byte("png"), 0o644))

	require.Eventually(t, func() bool {
		_, ok := shelf.Background.Current()
		return ok && shelf.Player.Len() == 1 && shelf.Gallery.Len() == 1
	}, 3*time.Second, 20*time.Millisecond)

	item, _ := shelf.Background.Current()
	assert.Equal(t, "sky.jpg", item.Name)
	assert.Equal(t, "song.mp3", shelf.Player.Items()[0].Name)
	assert.Equal(t, "cat.png", shelf.Gallery.Items()[0].Name)
}

func TestStartMediaRejectsMissingDir(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(missing, nil, 0o644))

	cfg := config.DefaultConfig()
	cfg.Media.Dir = missing
	shelf := media.NewShelf(1)
	defer shelf.Close()

	_, err := startMedia(cfg, shelf, logger.Discard())
	require.Error(t, err)
}

func TestAttachBatteryWarnsWhenAbsent(t *testing.T) {
	prev := newBatteryMonitor
	newBatteryMonitor = func(*slog.Logger) (*sensors.BatteryMonitor, error) {
		return nil, sensors.ErrNoBattery
	}
	t.Cleanup(func() { newBatteryMonitor = prev })

	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))

	var opts ui.Options
	release := attachBattery(&opts, log)
	release()

	assert.Nil(t, opts.Battery)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "no battery")
}
