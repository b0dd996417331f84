package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

// Adapter is the single entry point the sampling loop calls each tick.
// The source is chosen once, at construction.
type Adapter struct {
	source Source
	sim    *SimulatedSource
	start  time.Time
	now    func() time.Time
	log    *slog.Logger
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithStart sets the instant uptime is counted from.
func WithStart(t time.Time) Option { return func(a *Adapter) { a.start = t } }

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(a *Adapter) { a.now = now } }

// NewAdapter uses source when non-nil, otherwise sim alone.
func NewAdapter(source Source, sim *SimulatedSource, log *slog.Logger, opts ...Option) *Adapter {
	a := &Adapter{source: source, sim: sim, now: time.Now, log: log}
	if a.source == nil {
		a.source = sim
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.start.IsZero() {
		a.start = a.now()
	}
	return a
}

// SourceName reports the source chosen at startup.
func (a *Adapter) SourceName() string { return a.source.Name() }

// Sample never fails. A source error degrades to the simulator; a
// simulator failure or panic returns prev unchanged.
func (a *Adapter) Sample(ctx context.Context, prev model.Snapshot) (snap model.Snapshot) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("sample panicked, keeping previous snapshot", "panic", fmt.Sprint(r))
			snap = prev.Clone()
		}
	}()

	next, err := a.source.Sample(ctx, prev)
	if err != nil {
		a.log.Warn("telemetry source failed, simulating", "source", a.source.Name(), "error", err)
		base := prev
		if len(next.CPUUsage) > 0 {
			base = next
		}
		next, err = a.sim.Sample(ctx, base)
		if err != nil {
			a.log.Error("simulation failed, keeping previous snapshot", "error", err)
			return prev.Clone()
		}
	}

	backfill(&next, prev)
	now := a.now()
	next.Timestamp = now
	next.OSInfo.Uptime = FormatUptime(now.Sub(a.start))
	return next
}

// FormatUptime renders "<H> hours, <M> mins".
func FormatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := int(d / time.Hour)
	mins := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%d hours, %d mins", hours, mins)
}

// backfill restores any field a source left empty from prev.
func backfill(next *model.Snapshot, prev model.Snapshot) {
	if len(next.CPUUsage) == 0 {
		next.CPUUsage = append([]float64(nil), prev.CPUUsage...)
	}
	if next.CPUName == "" {
		next.CPUName = prev.CPUName
	}
	if next.RAM.TotalGB <= 0 {
		next.RAM = prev.RAM
	}
	if next.Storage.TotalGB <= 0 {
		next.Storage = prev.Clone().Storage
	}
	if next.Network.IP == "" {
		next.Network.IP = prev.Network.IP
	}
	if next.GPU.Name == "" {
		next.GPU.Name = prev.GPU.Name
	}
	if next.Source == "" {
		next.Source = prev.Source
	}

	o, p := &next.OSInfo, prev.OSInfo
	fill := func(dst *string, src string) {
		if *dst == "" {
			*dst = src
		}
	}
	fill(&o.Platform, p.Platform)
	fill(&o.Kernel, p.Kernel)
	fill(&o.Packages, p.Packages)
	fill(&o.Shell, p.Shell)
	fill(&o.Resolution, p.Resolution)
	fill(&o.DE, p.DE)
	fill(&o.WM, p.WM)
	fill(&o.Theme, p.Theme)
	fill(&o.Icons, p.Icons)
	fill(&o.Terminal, p.Terminal)
}
