// Package bridge is the privileged host capability that exposes real OS
// metrics to the dashboard. It can run in-process (Local, backed by
// gopsutil) or out of process behind a D-Bus service (Service / Client).
package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

// ErrNoBridge reports that no host capability could be found.
var ErrNoBridge = errors.New("no host bridge available")

// Stats is a partial reading. Nil fields were not supplied by the host.
type Stats struct {
	CPUUsage []float64     `json:"cpuUsage,omitempty"`
	CPUTemp  *float64      `json:"cpuTemp,omitempty"`
	CPUName  *string       `json:"cpuName,omitempty"`
	RAM      *model.Memory `json:"ram,omitempty"`
	GPU      *model.GPU    `json:"gpu,omitempty"`
	Network  *NetRates     `json:"network,omitempty"`
}

// NetRates is measured throughput over the last interval.
type NetRates struct {
	DownMbps float64 `json:"down"`
	UpMbps   float64 `json:"up"`
}

// StorageReport is the filesystem summary in GiB.
type StorageReport struct {
	TotalGB float64      `json:"total"`
	UsedGB  float64      `json:"used"`
	Disks   []model.Disk `json:"disks"`
}

// Host is the bridge contract. Either call may fail independently.
type Host interface {
	GetStats(ctx context.Context) (*Stats, error)
	GetStorage(ctx context.Context) (*StorageReport, error)
}

// Mode selects how Probe looks for a host.
type Mode string

const (
	ModeAuto  Mode = "auto"
	ModeDBus  Mode = "dbus"
	ModeLocal Mode = "local"
	ModeNone  Mode = "none"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeAuto, ModeDBus, ModeLocal, ModeNone:
		return m, nil
	case "":
		return ModeAuto, nil
	default:
		return "", fmt.Errorf("unknown bridge mode %q (want auto|dbus|local|none)", s)
	}
}

const bytesPerGiB = 1 << 30

func toGiB(b uint64) float64 { return float64(b) / bytesPerGiB }
