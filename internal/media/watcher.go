package media

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultSettle is how long a dropped file must stay quiet before intake.
const DefaultSettle = 300 * time.Millisecond

// Watcher feeds files dropped into a directory to a handler once they stop
// changing.
type Watcher struct {
	fs     *fsnotify.Watcher
	handle func(File)
	settle time.Duration
	log    *slog.Logger

	mu      sync.Mutex
	pending map[string]*time.Timer
	seen    map[string]bool // handed to handle, until removed or renamed
	closed  bool

	stopCh chan struct{}
	wg     sync.WaitGroup
	fires  sync.WaitGroup
	once   sync.Once
}

// NewWatcher starts watching dir. Files already present are not replayed,
// and each dropped file is handled once until it is removed or renamed.
func NewWatcher(dir string, settle time.Duration, handle func(File), logger *slog.Logger) (*Watcher, error) {
	if handle == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}
	if settle <= 0 {
		settle = DefaultSettle
	}
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &Watcher{
		fs:      fw,
		handle:  handle,
		settle:  settle,
		log:     logger.With("component", "media-watcher", "dir", dir),
		pending: make(map[string]*time.Timer),
		seen:    make(map[string]bool),
		stopCh:  make(chan struct{}),
	}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			switch {
			case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
				w.forget(ev.Name)
			case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
				w.schedule(ev.Name)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) schedule(path string) {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.seen[path] {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() { w.fire(path) })
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
	delete(w.seen, path)
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	delete(w.pending, path)
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.fires.Add(1)
	w.mu.Unlock()
	defer w.fires.Done()

	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}
	w.mu.Lock()
	w.seen[path] = true
	w.mu.Unlock()
	w.log.Debug("file dropped", "path", path)
	w.handle(File{Path: path})
}

// Close stops watching, drops pending files and waits for running handlers.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		for p, t := range w.pending {
			t.Stop()
			delete(w.pending, p)
		}
		w.mu.Unlock()

		close(w.stopCh)
		err = w.fs.Close()
		w.wg.Wait()
		w.fires.Wait()
	})
	return err
}
