package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialIsFullyPopulated(t *testing.T) {
	s := DefaultProfile().Initial(6)
	assert.Empty(t, s.Missing())
	require.Len(t, s.CPUUsage, 6)
	assert.InDelta(t, s.RAM.TotalGB-s.RAM.UsedGB, s.RAM.AvailableGB, 1e-9)
	assert.LessOrEqual(t, s.Storage.UsedGB, s.Storage.TotalGB)
	assert.Equal(t, "simulated", s.Source)
}

func TestInitialDefaultsCores(t *testing.T) {
	assert.Len(t, DefaultProfile().Initial(0).CPUUsage, 4)
}

func TestInitialSmallRAM(t *testing.T) {
	p := DefaultProfile()
	p.RAMTotalGB = 2
	s := p.Initial(2)
	assert.InDelta(t, 1.0, s.RAM.UsedGB, 1e-9)
}

func TestCloneIsDeep(t *testing.T) {
	s := DefaultProfile().Initial(2)
	c := s.Clone()
	c.CPUUsage[0] = 99
	c.Storage.Disks[0].UsedGB = 1
	assert.InDelta(t, 10.0, s.CPUUsage[0], 1e-9)
	assert.InDelta(t, 16.56, s.Storage.Disks[0].UsedGB, 1e-9)
}

func TestAverages(t *testing.T) {
	s := Snapshot{CPUUsage: []float64{10, 30}, RAM: Memory{TotalGB: 8, UsedGB: 2}}
	assert.InDelta(t, 20.0, s.AvgCPU(), 1e-9)
	assert.InDelta(t, 25.0, s.RAMPercent(), 1e-9)
	assert.Zero(t, Snapshot{}.AvgCPU())
	assert.Zero(t, Snapshot{}.RAMPercent())
}

func TestMissing(t *testing.T) {
	s := DefaultProfile().Initial(2)
	s.CPUName = ""
	s.OSInfo.Uptime = ""
	assert.Equal(t, []string{"cpuName", "osInfo.uptime"}, s.Missing())
}
