package telemetry

import (
	"context"
	"math/rand/v2"
	"sync"

	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
	"github.com/Dicklesworthstone/axon_dashboard/internal/sensors"
)

// Walk limits.
const (
	coreStep    = 7.5
	coreMin     = 2.0
	coreMax     = 100.0
	ramStep     = 0.025
	ramFloor    = 1.5
	ramHeadroom = 0.5
	gpuStep     = 4.0
	tempBase    = 40.0
	tempPerLoad = 0.4
	tempNoise   = 2.0
	downShare   = 0.8
	upShare     = 0.5
)

// SimulatedSource is a seeded random walk over the previous snapshot.
type SimulatedSource struct {
	mu   sync.Mutex
	rng  *rand.Rand
	conn sensors.Connectivity
	base sensors.Baseline
}

func NewSimulatedSource(seed uint64, conn sensors.Connectivity, base sensors.Baseline) *SimulatedSource {
	if conn == nil {
		conn = sensors.Fixed(true)
	}
	return &SimulatedSource{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		conn: conn,
		base: base,
	}
}

func (s *SimulatedSource) Name() string { return SourceSimulated }

func (s *SimulatedSource) Sample(_ context.Context, prev model.Snapshot) (model.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := prev.Clone()

	for i, v := range out.CPUUsage {
		out.CPUUsage[i] = clamp(v+s.delta(coreStep), coreMin, coreMax)
	}
	// temperature follows load rather than walking on its own
	out.CPUTemp = tempBase + out.AvgCPU()*tempPerLoad + s.rng.Float64()*tempNoise

	lo, hi := ramFloor, out.RAM.TotalGB-ramHeadroom
	if hi < lo {
		lo, hi = out.RAM.TotalGB/2, out.RAM.TotalGB/2
	}
	out.RAM.UsedGB = clamp(out.RAM.UsedGB+s.delta(ramStep), lo, hi)
	out.RAM.AvailableGB = out.RAM.TotalGB - out.RAM.UsedGB

	s.walkNetwork(&out)

	out.GPU.Usage = clamp(out.GPU.Usage+s.delta(gpuStep), 0, 100)

	out.Source = SourceSimulated
	return out, nil
}

// Network redraws throughput every tick from the connection baseline.
// Callers hold s.mu.
func (s *SimulatedSource) walkNetwork(out *model.Snapshot) {
	if !s.conn.Online() {
		out.Network.DownMbps, out.Network.UpMbps = 0, 0
		return
	}
	out.Network.DownMbps = s.rng.Float64() * s.base.DownMbps * downShare
	out.Network.UpMbps = s.rng.Float64() * s.base.UpMbps * upShare
}

// Network redraws only the network fields. Used by the bridge source,
// since the bridge reports no throughput.
func (s *SimulatedSource) Network(out *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.walkNetwork(out)
}

// delta is uniform in [-step, +step).
func (s *SimulatedSource) delta(step float64) float64 {
	return (s.rng.Float64() - 0.5) * 2 * step
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
