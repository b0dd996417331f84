// Package telemetry produces one Snapshot per tick, either from a host
// bridge or from a random-walk simulator, and never leaves a field empty.
package telemetry

import (
	"context"

	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

// Source names recorded in Snapshot.Source.
const (
	SourceBridge    = "bridge"
	SourceSimulated = "simulated"
)

// Source derives the next snapshot from the previous one. Implementations
// must not modify prev; they work on a clone.
type Source interface {
	Name() string
	Sample(ctx context.Context, prev model.Snapshot) (model.Snapshot, error)
}
