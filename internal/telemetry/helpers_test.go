package telemetry

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/Dicklesworthstone/axon_dashboard/internal/bridge"
	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
	"github.com/Dicklesworthstone/axon_dashboard/internal/sensors"
)

var errHostDown = errors.New("host down")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func initial() model.Snapshot {
	return model.DefaultProfile().Initial(4)
}

func newSim(online bool) *SimulatedSource {
	return NewSimulatedSource(42, sensors.Fixed(online), sensors.DefaultBaseline)
}

type fakeHost struct {
	stats      *bridge.Stats
	storage    *bridge.StorageReport
	statsErr   error
	storageErr error
}

func (f *fakeHost) GetStats(context.Context) (*bridge.Stats, error) {
	return f.stats, f.statsErr
}

func (f *fakeHost) GetStorage(context.Context) (*bridge.StorageReport, error) {
	return f.storage, f.storageErr
}

type panicSource struct{}

func (panicSource) Name() string { return "panic" }

func (panicSource) Sample(context.Context, model.Snapshot) (model.Snapshot, error) {
	panic("boom")
}
