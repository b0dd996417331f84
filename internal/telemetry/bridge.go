package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/axon_dashboard/internal/bridge"
	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

// HostBridgeSource merges host bridge readings over the previous snapshot.
// Fields the bridge does not report keep their previous value.
type HostBridgeSource struct {
	host bridge.Host
	sim  *SimulatedSource
	log  *slog.Logger
}

func NewHostBridgeSource(host bridge.Host, sim *SimulatedSource, log *slog.Logger) *HostBridgeSource {
	return &HostBridgeSource{host: host, sim: sim, log: log}
}

func (s *HostBridgeSource) Name() string { return SourceBridge }

// Sample calls stats and storage in parallel. A storage failure only
// leaves storage untouched. A stats failure returns the storage-merged
// snapshot together with the error so the caller can simulate the rest.
func (s *HostBridgeSource) Sample(ctx context.Context, prev model.Snapshot) (model.Snapshot, error) {
	var (
		stats      *bridge.Stats
		storage    *bridge.StorageReport
		statsErr   error
		storageErr error
		g          errgroup.Group
	)
	g.Go(func() error {
		stats, statsErr = s.host.GetStats(ctx)
		return statsErr
	})
	g.Go(func() error {
		storage, storageErr = s.host.GetStorage(ctx)
		return storageErr
	})
	_ = g.Wait()

	out := prev.Clone()
	if storageErr != nil {
		s.log.Warn("bridge storage failed, keeping previous", "error", storageErr)
	} else {
		mergeStorage(&out, storage)
	}

	if statsErr == nil && stats == nil {
		statsErr = fmt.Errorf("empty reply")
	}
	if statsErr != nil {
		return out, fmt.Errorf("bridge stats: %w", statsErr)
	}

	mergeStats(&out, stats)
	if stats.Network != nil {
		out.Network.DownMbps = stats.Network.DownMbps
		out.Network.UpMbps = stats.Network.UpMbps
	} else {
		s.sim.Network(&out)
	}
	out.Source = SourceBridge
	return out, nil
}

func mergeStats(out *model.Snapshot, st *bridge.Stats) {
	if len(st.CPUUsage) > 0 {
		out.CPUUsage = append([]float64(nil), st.CPUUsage...)
	}
	if st.CPUTemp != nil {
		out.CPUTemp = *st.CPUTemp
	}
	if st.CPUName != nil && *st.CPUName != "" {
		out.CPUName = *st.CPUName
	}
	if st.RAM != nil && st.RAM.TotalGB > 0 {
		out.RAM = *st.RAM
	}
	if st.GPU != nil {
		if st.GPU.Name != "" {
			out.GPU.Name = st.GPU.Name
		}
		out.GPU.Usage = clamp(st.GPU.Usage, 0, 100)
		out.GPU.Temp = st.GPU.Temp
	}
}

func mergeStorage(out *model.Snapshot, rep *bridge.StorageReport) {
	if rep == nil || rep.TotalGB <= 0 {
		return
	}
	disks := make([]model.Disk, len(rep.Disks))
	for i, d := range rep.Disks {
		if d.UsedGB > d.TotalGB {
			d.UsedGB = d.TotalGB
		}
		disks[i] = d
	}
	out.Storage = model.Storage{
		TotalGB: rep.TotalGB,
		UsedGB:  clamp(rep.UsedGB, 0, rep.TotalGB),
		Disks:   disks,
	}
}
