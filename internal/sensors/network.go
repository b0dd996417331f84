package sensors

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/net"
)

// Baseline is the connection class used to scale simulated throughput.
type Baseline struct {
	DownMbps float64
	UpMbps   float64
}

// DefaultBaseline is used when the link speed cannot be discovered.
var DefaultBaseline = Baseline{DownMbps: 10, UpMbps: 2}

var sysfsRoot = "/sys"

// NetworkBaseline reads the link speed of the first active interface once.
func NetworkBaseline(ctx context.Context) Baseline {
	ifaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return DefaultBaseline
	}
	return baselineFor(activeInterfaces(ifaces))
}

func baselineFor(names []string) Baseline {
	for _, name := range names {
		b, err := os.ReadFile(filepath.Join(sysfsRoot, "class/net", name, "speed"))
		if err != nil {
			continue
		}
		speed, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
		if err != nil || speed <= 0 {
			continue
		}
		return Baseline{DownMbps: speed, UpMbps: speed / 4}
	}
	return DefaultBaseline
}

// activeInterfaces returns up, non-loopback interfaces that carry an address.
func activeInterfaces(list net.InterfaceStatList) []string {
	var names []string
	for _, iface := range list {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		if len(iface.Addrs) == 0 {
			continue
		}
		names = append(names, iface.Name)
	}
	return names
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

// Connectivity reports whether the host is online.
type Connectivity interface {
	Online() bool
}

// InterfaceConnectivity is online when any active interface exists.
type InterfaceConnectivity struct{}

func (InterfaceConnectivity) Online() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	return len(activeInterfaces(ifaces)) > 0
}

// Fixed is a Connectivity with a constant answer.
type Fixed bool

func (f Fixed) Online() bool { return bool(f) }
