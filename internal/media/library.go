package media

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const urlScheme = "blob:axon/"

var ErrUnsupported = errors.New("unsupported media kind")

// File is one caller-supplied file handle with its declared MIME type.
type File struct {
	Path string
	Type string
}

// Item is a file admitted to a queue. URL stays resolvable until the item
// is released.
type Item struct {
	ID   string
	Path string
	Name string
	Size int64
	URL  string
	Kind Kind
}

// Library issues playable URLs for local files. URLs are not reclaimed
// automatically; whoever evicts an item must Revoke its URL.
type Library struct {
	mu   sync.Mutex
	urls map[string]string
}

func NewLibrary() *Library {
	return &Library{urls: make(map[string]string)}
}

// Open stats a file and registers a URL for it.
func (l *Library) Open(f File, kind Kind) (Item, error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return Item{}, fmt.Errorf("stat media file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return Item{}, fmt.Errorf("%s is not a regular file", f.Path)
	}

	item := Item{
		ID:   uuid.NewString(),
		Path: f.Path,
		Name: filepath.Base(f.Path),
		Size: info.Size(),
		URL:  urlScheme + uuid.NewString(),
		Kind: kind,
	}
	l.mu.Lock()
	l.urls[item.URL] = item.Path
	l.mu.Unlock()
	return item, nil
}

// resolve maps a live URL back to its file.
func (l *Library) resolve(url string) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.urls[url]
	return p, ok
}

// Revoke releases a URL. It reports whether the URL was live.
func (l *Library) Revoke(url string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.urls[url]; !ok {
		return false
	}
	delete(l.urls, url)
	return true
}

// Live is the number of unreleased URLs.
func (l *Library) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.urls)
}
