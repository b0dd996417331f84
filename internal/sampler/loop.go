// Package sampler drives the telemetry adapter on a fixed cadence and
// publishes each new snapshot to subscribers.
package sampler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

// DefaultInterval is the tick period.
const DefaultInterval = time.Second

// Adapter produces the next snapshot. It must not fail.
type Adapter interface {
	Sample(ctx context.Context, prev model.Snapshot) model.Snapshot
}

// Loop owns the current snapshot. It is the only writer; readers get copies.
type Loop struct {
	adapter  Adapter
	interval time.Duration
	log      *slog.Logger

	mu      sync.RWMutex
	current model.Snapshot
	ticks   uint64

	subMu      sync.Mutex
	subs       map[int]chan model.Snapshot
	nextID     int
	subsClosed bool

	runMu   sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	stopped bool
}

func New(adapter Adapter, initial model.Snapshot, interval time.Duration, log *slog.Logger) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		adapter:  adapter,
		interval: interval,
		log:      log,
		current:  initial.Clone(),
		subs:     make(map[int]chan model.Snapshot),
	}
}

// Start samples once immediately, then every interval until ctx is done
// or Stop is called. Samples never overlap: a tick that fires while a
// sample is still running is dropped. Start on a running or stopped loop
// is a no-op.
func (l *Loop) Start(ctx context.Context) {
	l.runMu.Lock()
	defer l.runMu.Unlock()
	if l.cancel != nil || l.stopped {
		return
	}
	ctx, l.cancel = context.WithCancel(ctx)
	l.done = make(chan struct{})

	go l.run(ctx)
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.tick(ctx)
	for {
		select {
		case <-ticker.C:
			l.tick(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	prev := l.Latest()
	next := l.adapter.Sample(ctx, prev)
	// a sample that finished after cancellation is discarded
	if ctx.Err() != nil {
		return
	}

	l.mu.Lock()
	l.current = next.Clone()
	l.ticks++
	n := l.ticks
	l.mu.Unlock()

	l.log.Debug("tick", "n", n, "source", next.Source, "cpu_avg", next.AvgCPU())
	l.publish(next)
}

// Stop cancels the loop and waits for the in-flight sample to finish.
// After Stop returns the current snapshot never changes again.
func (l *Loop) Stop() {
	l.runMu.Lock()
	cancel, done := l.cancel, l.done
	l.stopped = true
	l.runMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	l.subMu.Lock()
	l.subsClosed = true
	for id, ch := range l.subs {
		close(ch)
		delete(l.subs, id)
	}
	l.subMu.Unlock()
}

// Latest returns a copy of the current snapshot.
func (l *Loop) Latest() model.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current.Clone()
}

// completed is the number of finished samples.
func (l *Loop) completed() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ticks
}

// Subscribe returns a channel holding at most the newest unread snapshot.
// The cancel func unsubscribes and closes the channel.
func (l *Loop) Subscribe() (<-chan model.Snapshot, func()) {
	ch := make(chan model.Snapshot, 1)

	l.subMu.Lock()
	if l.subsClosed {
		l.subMu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := l.nextID
	l.nextID++
	l.subs[id] = ch
	l.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			l.subMu.Lock()
			defer l.subMu.Unlock()
			if c, ok := l.subs[id]; ok {
				close(c)
				delete(l.subs, id)
			}
		})
	}
}

func (l *Loop) publish(s model.Snapshot) {
	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		// drop the unread value, keep the newest
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- s.Clone():
		default:
		}
	}
}

// Stream starts the loop and forwards snapshots on the returned channel
// until ctx is done, then closes it. A slow reader only sees the newest.
func (l *Loop) Stream(ctx context.Context) <-chan model.Snapshot {
	sub, unsubscribe := l.Subscribe()
	out := make(chan model.Snapshot)
	l.Start(ctx)
	go func() {
		defer close(out)
		defer unsubscribe()
		for {
			select {
			case s, ok := <-sub:
				if !ok {
					return
				}
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
