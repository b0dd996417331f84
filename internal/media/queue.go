package media

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

// admit maps a classified kind to the kind stored in a queue, or rejects it.
type admit func(Kind) (Kind, bool)

// Player queue: video stays video, everything else that is not an image
// plays as audio.
func admitPlayable(k Kind) (Kind, bool) {
	switch k {
	case KindVideo:
		return KindVideo, true
	case KindAudio, KindGeneric:
		return KindAudio, true
	}
	return "", false
}

func admitImage(k Kind) (Kind, bool) {
	switch k {
	case KindImage, KindGeneric:
		return KindImage, true
	}
	return "", false
}

// Queue is an ordered playlist with a cursor.
type Queue struct {
	mu      sync.Mutex
	lib     *Library
	admit   admit
	items   []Item
	cur     int
	shuffle bool
	rng     *rand.Rand
}

// NewPlayerQueue holds video and audio.
func NewPlayerQueue(lib *Library, seed uint64) *Queue {
	return newQueue(lib, admitPlayable, seed)
}

// NewImageQueue holds gallery images.
func NewImageQueue(lib *Library, seed uint64) *Queue {
	return newQueue(lib, admitImage, seed)
}

func newQueue(lib *Library, a admit, seed uint64) *Queue {
	return &Queue{lib: lib, admit: a, rng: rand.New(rand.NewPCG(seed, seed+1))}
}

// accepts reports whether files of kind k can join this queue.
func (q *Queue) accepts(k Kind) bool {
	_, ok := q.admit(k)
	return ok
}

// Add classifies and appends files. Files the queue does not accept are
// skipped and reported in the error; accepted ones are still added.
func (q *Queue) Add(files ...File) ([]Item, error) {
	var (
		added []Item
		errs  []error
	)
	for _, f := range files {
		kind, ok := q.admit(Classify(f.Type, f.Path))
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w", f.Path, ErrUnsupported))
			continue
		}
		item, err := q.lib.Open(f, kind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		added = append(added, item)
	}

	q.mu.Lock()
	q.items = append(q.items, added...)
	q.mu.Unlock()

	if len(errs) > 0 {
		return added, errors.Join(errs...)
	}
	return added, nil
}

// Items returns a copy of the queue.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Item(nil), q.items...)
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Current is the item under the cursor.
func (q *Queue) Current() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return Item{}, false
	}
	return q.items[q.cur], true
}

// SetShuffle toggles random advance.
func (q *Queue) SetShuffle(on bool) {
	q.mu.Lock()
	q.shuffle = on
	q.mu.Unlock()
}

// Next advances the cursor. With shuffle on it never lands on the current
// item unless it is the only one.
func (q *Queue) Next() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if n == 0 {
		return Item{}, false
	}
	switch {
	case q.shuffle && n > 1:
		next := q.rng.IntN(n - 1)
		if next >= q.cur {
			next++
		}
		q.cur = next
	default:
		q.cur = (q.cur + 1) % n
	}
	return q.items[q.cur], true
}

// Prev moves the cursor back, wrapping around.
func (q *Queue) Prev() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := len(q.items)
	if n == 0 {
		return Item{}, false
	}
	q.cur = (q.cur - 1 + n) % n
	return q.items[q.cur], true
}

// Remove evicts an item and releases its URL.
func (q *Queue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, it := range q.items {
		if it.ID != id {
			continue
		}
		q.lib.Revoke(it.URL)
		q.items = append(q.items[:i], q.items[i+1:]...)
		if i < q.cur || q.cur >= len(q.items) {
			q.cur--
		}
		if q.cur < 0 {
			q.cur = 0
		}
		return true
	}
	return false
}

// Clear evicts everything.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, it := range q.items {
		q.lib.Revoke(it.URL)
	}
	q.items = nil
	q.cur = 0
}
