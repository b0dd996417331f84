package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"

	"github.com/Dicklesworthstone/axon_dashboard/internal/bridge"
	"github.com/Dicklesworthstone/axon_dashboard/internal/config"
	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
	"github.com/Dicklesworthstone/axon_dashboard/internal/osinfo"
	"github.com/Dicklesworthstone/axon_dashboard/internal/sampler"
	"github.com/Dicklesworthstone/axon_dashboard/internal/sensors"
	"github.com/Dicklesworthstone/axon_dashboard/internal/telemetry"
)

// pipeline is the sampling side of the dashboard: the probed host, the
// adapter and the first snapshot.
type pipeline struct {
	seed    uint64
	bridged bool
	adapter *telemetry.Adapter
	initial model.Snapshot
	release func()
}

func buildPipeline(ctx context.Context, cfg *config.Config, log *slog.Logger) (*pipeline, error) {
	mode, err := bridge.ParseMode(cfg.Bridge.Mode)
	if err != nil {
		return nil, err
	}
	host, release, err := bridge.Probe(ctx, mode, log.With("component", "bridge"))
	switch {
	case err == nil:
	case errors.Is(err, bridge.ErrNoBridge):
		if mode == bridge.ModeAuto || mode == bridge.ModeNone {
			log.Info("no host bridge, simulating", "mode", mode)
		} else {
			log.Warn("requested host bridge unavailable, simulating", "mode", mode, "error", err)
		}
	default:
		return nil, err
	}

	seed := cfg.Sampling.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	sim := telemetry.NewSimulatedSource(seed, sensors.InterfaceConnectivity{}, sensors.NetworkBaseline(ctx))

	var src telemetry.Source
	if host != nil {
		src = telemetry.NewHostBridgeSource(host, sim, log.With("component", "telemetry"))
	}
	adapter := telemetry.NewAdapter(src, sim, log.With("component", "adapter"),
		telemetry.WithStart(uptimeStart(ctx, cfg, log, time.Now())))

	cores, err := cpu.CountsWithContext(ctx, true)
	if err != nil || cores <= 0 {
		cores = 4
	}
	initial := cfg.Profile.Initial(cores)
	initial.OSInfo = osinfo.Collect(ctx, initial.OSInfo)
	initial.Network.IP = osinfo.LocalIP(ctx, initial.Network.IP)

	return &pipeline{
		seed:    seed,
		bridged: host != nil,
		adapter: adapter,
		initial: initial,
		release: release,
	}, nil
}

func (p *pipeline) newLoop(cfg *config.Config, log *slog.Logger) *sampler.Loop {
	return sampler.New(p.adapter, p.initial, cfg.Interval(), log.With("component", "sampler"))
}

// uptimeStart is process start minus the configured offset, or the host
// boot time when host_uptime is set and the boot time is known.
func uptimeStart(ctx context.Context, cfg *config.Config, log *slog.Logger, now time.Time) time.Time {
	if cfg.Sampling.HostUptime {
		boot, err := osinfo.BootTime(ctx)
		if err == nil && boot.Before(now) {
			return boot
		}
		log.Debug("host boot time unavailable", "error", err)
	}
	return now.Add(-cfg.UptimeOffset())
}

// collect runs a loop until n snapshots were published and returns the last.
func collect(ctx context.Context, loop *sampler.Loop, n int) (model.Snapshot, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer loop.Stop()

	var last model.Snapshot
	got := 0
	for s := range loop.Stream(ctx) {
		last = s
		got++
		if got >= n {
			return last, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return last, err
	}
	return last, errors.New("sampling stopped early")
}
