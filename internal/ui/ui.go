// Package ui is the terminal dashboard.
package ui

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Dicklesworthstone/axon_dashboard/internal/media"
	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

// Snapshots is the sampling loop as seen by the view.
type Snapshots interface {
	Latest() model.Snapshot
	Subscribe() (<-chan model.Snapshot, func())
	Stop()
}

// Battery is the optional battery feed.
type Battery interface {
	Updates() <-chan model.BatteryStatus
	Latest() model.BatteryStatus
	Close()
}

// Exporter writes the current snapshot to disk.
type Exporter interface {
	Export(s model.Snapshot, now time.Time) (string, error)
}

// Options wires the dashboard. Battery, Exporter and Shelf may be nil.
type Options struct {
	Loop     Snapshots
	Battery  Battery
	Exporter Exporter
	Shelf    *media.Shelf
	Log      *slog.Logger
	Now      func() time.Time
	// Shuffle is the player queue's shuffle state at startup.
	Shuffle bool
	// SlideInterval advances the gallery while it holds more than one
	// image. Zero means DefaultSlideInterval.
	SlideInterval time.Duration
}

// Model renders live snapshots from the sampling loop.
type Model struct {
	opts    Options
	latest  model.Snapshot
	stream  <-chan model.Snapshot
	unsub   func()
	battery *model.BatteryStatus
	shuffle bool
	status  string
	statusT time.Time
	width   int
	height  int

	slideshow bool
	lastSlide time.Time

	closeOnce sync.Once
}

const statusTTL = 5 * time.Second

const DefaultSlideInterval = 5 * time.Second

func New(opts Options) *Model {
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SlideInterval <= 0 {
		opts.SlideInterval = DefaultSlideInterval
	}
	stream, unsub := opts.Loop.Subscribe()
	m := &Model{
		opts:    opts,
		latest:  opts.Loop.Latest(),
		stream:  stream,
		unsub:   unsub,
		shuffle: opts.Shuffle,
		width:   120,
		height:  40,

		slideshow: true,
		lastSlide: opts.Now(),
	}
	if opts.Battery != nil {
		b := opts.Battery.Latest()
		m.battery = &b
	}
	return m
}

// Messages
type tickMsg struct{}

func tickCmd() tea.Cmd { return tea.Tick(time.Second/5, func(time.Time) tea.Msg { return tickMsg{} }) }

func (m *Model) Init() tea.Cmd { return tickCmd() }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	case tickMsg:
		m.drain()
		now := m.opts.Now()
		if m.status != "" && now.Sub(m.statusT) > statusTTL {
			m.status = ""
		}
		m.advanceSlide(now)
		return m, tickCmd()
	}
	return m, nil
}

// advanceSlide moves the gallery on once per SlideInterval. The timer
// restarts whenever there is nothing to cycle.
func (m *Model) advanceSlide(now time.Time) {
	shelf := m.opts.Shelf
	if shelf == nil || !m.slideshow || shelf.Gallery.Len() < 2 {
		m.lastSlide = now
		return
	}
	if now.Sub(m.lastSlide) < m.opts.SlideInterval {
		return
	}
	shelf.Gallery.Next()
	m.lastSlide = now
}

func (m *Model) handleKey(key string) tea.Cmd {
	shelf := m.opts.Shelf
	switch key {
	case "q", "ctrl+c", "esc":
		m.Close()
		return tea.Quit
	case "e":
		m.export()
	case "n":
		if shelf != nil {
			m.announceItem(shelf.Player.Next())
		}
	case "p":
		if shelf != nil {
			m.announceItem(shelf.Player.Prev())
		}
	case "g":
		if shelf != nil {
			m.slideshow = !m.slideshow
			m.lastSlide = m.opts.Now()
			m.setStatus(fmt.Sprintf("slideshow %s", onOff(m.slideshow)))
		}
	case "s":
		if shelf != nil {
			on := !m.shuffle
			shelf.Player.SetShuffle(on)
			m.shuffle = on
			m.setStatus(fmt.Sprintf("shuffle %s", onOff(on)))
		}
	case "x":
		if shelf != nil {
			if cur, ok := shelf.Player.Current(); ok {
				shelf.Player.Remove(cur.ID)
				m.setStatus("removed " + cur.Name)
			}
		}
	case "c":
		if shelf != nil {
			shelf.Player.Clear()
			shelf.Gallery.Clear()
			m.setStatus("queues cleared")
		}
	case "b":
		if shelf != nil {
			shelf.Background.Clear()
			m.setStatus("background cleared")
		}
	}
	return nil
}

// drain takes whatever the loop and battery published since the last tick.
func (m *Model) drain() {
	select {
	case s, ok := <-m.stream:
		if ok {
			m.latest = s
		}
	default:
	}
	if m.opts.Battery == nil {
		return
	}
	select {
	case b := <-m.opts.Battery.Updates():
		m.battery = &b
	default:
	}
}

func (m *Model) export() {
	if m.opts.Exporter == nil {
		m.setStatus("export disabled")
		return
	}
	path, err := m.opts.Exporter.Export(m.latest, m.opts.Now())
	if err != nil {
		m.opts.Log.Error("export failed", "component", "ui", "error", err)
		m.setStatus("export failed: " + err.Error())
		return
	}
	m.opts.Log.Info("snapshot exported", "component", "ui", "path", path)
	m.setStatus("exported " + path)
}

func (m *Model) announceItem(it media.Item, ok bool) {
	if ok {
		m.setStatus(fmt.Sprintf("now playing %s", it.Name))
	}
}

func (m *Model) setStatus(s string) {
	m.status, m.statusT = s, m.opts.Now()
}

// Close stops the loop and the battery feed. It is safe to call twice.
func (m *Model) Close() {
	m.closeOnce.Do(func() {
		m.unsub()
		m.opts.Loop.Stop()
		if m.opts.Battery != nil {
			m.opts.Battery.Close()
		}
	})
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// RunTUI starts the Bubble Tea program and tears the feeds down on exit.
func RunTUI(opts Options) error {
	m := New(opts)
	defer m.Close()
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}
