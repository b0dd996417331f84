package media

import (
	"fmt"
	"sync"
)

// Background is the single wallpaper slot. Replacing or clearing it
// releases the previous URL.
type Background struct {
	mu   sync.Mutex
	lib  *Library
	item *Item
}

func NewBackground(lib *Library) *Background {
	return &Background{lib: lib}
}

// Set installs f as the background. Any media kind is allowed.
func (b *Background) Set(f File) (Item, error) {
	item, err := b.lib.Open(f, Classify(f.Type, f.Path))
	if err != nil {
		return Item{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.item != nil {
		b.lib.Revoke(b.item.URL)
	}
	b.item = &item
	return item, nil
}

func (b *Background) Current() (Item, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.item == nil {
		return Item{}, false
	}
	return *b.item, true
}

func (b *Background) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.item != nil {
		b.lib.Revoke(b.item.URL)
		b.item = nil
	}
}

// Shelf groups the player queue, the gallery and the background slot over
// one Library.
type Shelf struct {
	Library    *Library
	Player     *Queue
	Gallery    *Queue
	Background *Background
}

func NewShelf(seed uint64) *Shelf {
	lib := NewLibrary()
	return &Shelf{
		Library:    lib,
		Player:     NewPlayerQueue(lib, seed),
		Gallery:    NewImageQueue(lib, seed^0x5bd1e995),
		Background: NewBackground(lib),
	}
}

// Route sends a dropped file to the gallery if it is an image and to the
// player otherwise.
func (s *Shelf) Route(f File) (Item, error) {
	q := s.Player
	if Classify(f.Type, f.Path) == KindImage {
		q = s.Gallery
	}
	items, err := q.Add(f)
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, fmt.Errorf("%s: %w", f.Path, ErrUnsupported)
	}
	return items[0], nil
}

// Close releases every URL the shelf holds.
func (s *Shelf) Close() {
	s.Player.Clear()
	s.Gallery.Clear()
	s.Background.Clear()
}
