// Package osinfo collects the fetch-style description of the host shown in
// the system card.
package osinfo

import (
	"bufio"
	"context"
	"fmt"
	"net/netip"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

const cmdTimeout = 2 * time.Second

// Overridable in tests.
var (
	getenv     = os.Getenv
	hostInfo   = host.InfoWithContext
	bootTime   = host.BootTimeWithContext
	interfaces = net.InterfacesWithContext
	runCmd     = run
)

// Collect fills every field it can discover and keeps fallback for the rest.
// Uptime is owned by the sampler and is copied through unchanged.
func Collect(ctx context.Context, fallback model.OSInfo) model.OSInfo {
	out := fallback

	if info, err := hostInfo(ctx); err == nil && info != nil {
		if p := join(info.Platform, info.PlatformVersion, info.KernelArch); p != "" {
			out.Platform = p
		}
		if info.KernelVersion != "" {
			out.Kernel = join(osName(info.OS), info.KernelVersion)
		}
	}

	if sh := getenv("SHELL"); sh != "" {
		out.Shell = filepath.Base(sh)
	}
	if term := firstEnv("TERM_PROGRAM", "TERM"); term != "" {
		out.Terminal = term
	}
	if de := getenv("XDG_CURRENT_DESKTOP"); de != "" {
		out.DE = strings.ReplaceAll(de, ":", " ")
	}
	if session := getenv("XDG_SESSION_TYPE"); session != "" {
		out.WM = session
	}
	if theme := getenv("GTK_THEME"); theme != "" {
		out.Theme = theme
	}
	if pk := packages(ctx); pk != "" {
		out.Packages = pk
	}
	if res := resolution(ctx); res != "" {
		out.Resolution = res
	}
	return out
}

// BootTime is when the host came up.
func BootTime(ctx context.Context) (time.Time, error) {
	secs, err := bootTime(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("read boot time: %w", err)
	}
	if secs == 0 {
		return time.Time{}, fmt.Errorf("boot time unavailable")
	}
	return time.Unix(int64(secs), 0), nil
}

// LocalIP returns the primary IPv4 CIDR or fallback.
func LocalIP(ctx context.Context, fallback string) string {
	list, err := interfaces(ctx)
	if err != nil {
		return fallback
	}
	if ip := PrimaryIP(list); ip != "" {
		return ip
	}
	return fallback
}

// PrimaryIP picks the first IPv4 address of an up, non-loopback interface.
func PrimaryIP(list net.InterfaceStatList) string {
	for _, iface := range list {
		if !hasFlag(iface.Flags, "up") || hasFlag(iface.Flags, "loopback") {
			continue
		}
		for _, a := range iface.Addrs {
			prefix, err := netip.ParsePrefix(a.Addr)
			if err != nil || !prefix.Addr().Is4() {
				continue
			}
			return prefix.String()
		}
	}
	return ""
}

type pkgManager struct {
	name string
	cmd  []string
}

var pkgManagers = []pkgManager{
	{"pacman", []string{"pacman", "-Qq"}},
	{"dpkg", []string{"dpkg-query", "-f", ".\n", "-W"}},
	{"rpm", []string{"rpm", "-qa"}},
}

func packages(ctx context.Context) string {
	for _, pm := range pkgManagers {
		out, err := runCmd(ctx, pm.cmd[0], pm.cmd[1:]...)
		if err != nil {
			continue
		}
		if n := countLines(out); n > 0 {
			return fmt.Sprintf("%d (%s)", n, pm.name)
		}
	}
	return ""
}

func resolution(ctx context.Context) string {
	if getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == "" {
		return ""
	}
	out, err := runCmd(ctx, "xrandr", "--current")
	if err != nil {
		return ""
	}
	return parseXrandr(out)
}

// parseXrandr returns the active mode of each connected output, joined
// with ", ".
func parseXrandr(out string) string {
	var modes []string
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !strings.HasPrefix(line, " ") || !strings.Contains(line, "*") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) > 0 {
			modes = append(modes, fields[0])
		}
	}
	return strings.Join(modes, ", ")
}

func countLines(s string) int {
	n := 0
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) != "" {
			n++
		}
	}
	return n
}

func osName(goos string) string {
	switch goos {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "freebsd":
		return "FreeBSD"
	}
	return goos
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func join(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}

func run(parent context.Context, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(parent, cmdTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	return string(out), err
}
