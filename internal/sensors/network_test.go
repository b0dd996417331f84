package sensors

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shirou/gopsutil/v3/net"
	"github.com/stretchr/testify/assert"
)

func setTestSysfsRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	old := sysfsRoot
	sysfsRoot = root
	t.Cleanup(func() { sysfsRoot = old })
	return root
}

func writeSpeed(t *testing.T, root, iface, contents string) {
	t.Helper()

	dir := filepath.Join(root, "class/net", iface)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "speed"), []byte(contents), 0o644); err != nil {
		t.Fatalf("write speed: %v", err)
	}
}

func TestBaselineFor(t *testing.T) {
	root := setTestSysfsRoot(t)
	writeSpeed(t, root, "wlan0", "-1\n")
	writeSpeed(t, root, "eth0", "100\n")

	got := baselineFor([]string{"wlan0", "eth0"})
	assert.Equal(t, Baseline{DownMbps: 100, UpMbps: 25}, got)
}

func TestBaselineFor_DefaultsWhenUnknown(t *testing.T) {
	setTestSysfsRoot(t)
	assert.Equal(t, DefaultBaseline, baselineFor([]string{"wlan0"}))
	assert.Equal(t, DefaultBaseline, baselineFor(nil))
}

func TestActiveInterfaces(t *testing.T) {
	list := net.InterfaceStatList{
		{Name: "lo", Flags: []string{"up", "loopback"}, Addrs: net.InterfaceAddrList{{Addr: "127.0.0.1/8"}}},
		{Name: "eth0", Flags: []string{"up", "broadcast"}, Addrs: net.InterfaceAddrList{{Addr: "10.0.0.2/24"}}},
		{Name: "wlan0", Flags: []string{"broadcast"}, Addrs: net.InterfaceAddrList{{Addr: "10.0.0.3/24"}}},
		{Name: "docker0", Flags: []string{"up"}},
	}
	assert.Equal(t, []string{"eth0"}, activeInterfaces(list))
}

func TestFixedConnectivity(t *testing.T) {
	assert.True(t, Fixed(true).Online())
	assert.False(t, Fixed(false).Online())
}
