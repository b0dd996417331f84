package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dicklesworthstone/axon_dashboard/internal/bridge"
	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

func TestHostBridge_PartialMerge(t *testing.T) {
	host := &fakeHost{
		stats: &bridge.Stats{
			CPUUsage: []float64{10, 20},
			RAM:      &model.Memory{TotalGB: 16, UsedGB: 8, AvailableGB: 8},
		},
		storageErr: errHostDown,
	}
	src := NewHostBridgeSource(host, newSim(true), discardLogger())
	prev := initial()

	next, err := src.Sample(context.Background(), prev)
	require.NoError(t, err)

	assert.Equal(t, []float64{10, 20}, next.CPUUsage)
	assert.Equal(t, model.Memory{TotalGB: 16, UsedGB: 8, AvailableGB: 8}, next.RAM)
	assert.Equal(t, prev.GPU, next.GPU, "gpu is not reported and keeps its value")
	assert.Equal(t, prev.CPUTemp, next.CPUTemp)
	assert.Equal(t, prev.CPUName, next.CPUName)
	assert.Equal(t, prev.Storage, next.Storage, "failed storage call keeps previous storage")
	assert.Equal(t, SourceBridge, next.Source)
}

func TestHostBridge_StorageMergeClamps(t *testing.T) {
	host := &fakeHost{
		stats: &bridge.Stats{CPUUsage: []float64{1}},
		storage: &bridge.StorageReport{
			TotalGB: 100, UsedGB: 120,
			Disks: []model.Disk{
				{Path: "/", TotalGB: 60, UsedGB: 70, FS: "ext4"},
				{Path: "/home", TotalGB: 40, UsedGB: 10, FS: "xfs"},
			},
		},
	}
	next, err := NewHostBridgeSource(host, newSim(true), discardLogger()).Sample(context.Background(), initial())
	require.NoError(t, err)

	assert.LessOrEqual(t, next.Storage.UsedGB, next.Storage.TotalGB)
	require.Len(t, next.Storage.Disks, 2)
	for _, d := range next.Storage.Disks {
		assert.LessOrEqual(t, d.UsedGB, d.TotalGB, d.Path)
	}
}

func TestHostBridge_StatsFailureReturnsError(t *testing.T) {
	host := &fakeHost{
		statsErr: errHostDown,
		storage: &bridge.StorageReport{
			TotalGB: 10, UsedGB: 5,
			Disks: []model.Disk{{Path: "/", TotalGB: 10, UsedGB: 5, FS: "ext4"}},
		},
	}
	next, err := NewHostBridgeSource(host, newSim(true), discardLogger()).Sample(context.Background(), initial())
	require.ErrorIs(t, err, errHostDown)
	assert.Equal(t, 10.0, next.Storage.TotalGB, "storage still merged")
}

func TestHostBridge_NilStatsIsFailure(t *testing.T) {
	_, err := NewHostBridgeSource(&fakeHost{}, newSim(true), discardLogger()).Sample(context.Background(), initial())
	assert.Error(t, err)
}

func TestHostBridge_GPUFromHost(t *testing.T) {
	host := &fakeHost{stats: &bridge.Stats{GPU: &model.GPU{Name: "RTX", Usage: 140, Temp: 60}}}
	next, err := NewHostBridgeSource(host, newSim(true), discardLogger()).Sample(context.Background(), initial())
	require.NoError(t, err)
	assert.Equal(t, model.GPU{Name: "RTX", Usage: 100, Temp: 60}, next.GPU)
}

func TestHostBridge_MeasuredNetworkWins(t *testing.T) {
	host := &fakeHost{stats: &bridge.Stats{Network: &bridge.NetRates{DownMbps: 12.5, UpMbps: 3}}}
	next, err := NewHostBridgeSource(host, newSim(false), discardLogger()).Sample(context.Background(), initial())
	require.NoError(t, err)
	assert.Equal(t, 12.5, next.Network.DownMbps)
	assert.Equal(t, 3.0, next.Network.UpMbps)
}

func TestHostBridge_SimulatedNetworkWhenOffline(t *testing.T) {
	host := &fakeHost{stats: &bridge.Stats{CPUUsage: []float64{5}}}
	next, err := NewHostBridgeSource(host, newSim(false), discardLogger()).Sample(context.Background(), initial())
	require.NoError(t, err)
	assert.Equal(t, 0.0, next.Network.DownMbps)
	assert.Equal(t, 0.0, next.Network.UpMbps)
}
