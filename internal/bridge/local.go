package bridge

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"

	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

const gpuPollInterval = 2 * time.Second

// pseudo filesystems never shown as disks
var skipFS = map[string]bool{
	"tmpfs": true, "devtmpfs": true, "proc": true, "sysfs": true, "overlay": true,
	"squashfs": true, "cgroup": true, "cgroup2": true, "devpts": true, "efivarfs": true,
	"autofs": true, "fuse.portal": true, "ramfs": true, "nsfs": true, "tracefs": true,
}

// Local reads host metrics in-process.
type Local struct {
	mu        sync.Mutex
	prevCore  []cpu.TimesStat
	cpuName   string
	prevNet   []net.IOCountersStat
	prevNetAt time.Time

	// nvidia-smi is slow; keep the last answer for gpuPollInterval.
	gpuMu      sync.Mutex
	gpuChecked bool
	hasSMI     bool
	gpu        *model.GPU
	gpuAt      time.Time
}

func NewLocal() *Local { return &Local{} }

// Available reports whether gopsutil can read this host at all.
func (l *Local) Available(ctx context.Context) bool {
	n, err := cpu.CountsWithContext(ctx, true)
	return err == nil && n > 0
}

// GetStats implements Host. Usage is absent on the first call because
// per-core load needs two cpu.Times readings.
func (l *Local) GetStats(ctx context.Context) (*Stats, error) {
	times, err := cpu.TimesWithContext(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("cpu times: %w", err)
	}

	st := &Stats{}

	l.mu.Lock()
	if len(l.prevCore) == len(times) {
		st.CPUUsage = coreUsage(l.prevCore, times)
	}
	l.prevCore = times
	name := l.cpuName
	l.mu.Unlock()

	if name == "" {
		if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
			name = cpuDisplayName(infos[0])
			l.mu.Lock()
			l.cpuName = name
			l.mu.Unlock()
		}
	}
	if name != "" {
		st.CPUName = &name
	}

	temps, _ := host.SensorsTemperaturesWithContext(ctx)
	if t, ok := pickCPUTemp(temps); ok {
		st.CPUTemp = &t
	} else if t, ok := thermalZoneTemp(); ok {
		st.CPUTemp = &t
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm.Total > 0 {
		total := toGiB(vm.Total)
		avail := toGiB(vm.Available)
		st.RAM = &model.Memory{TotalGB: total, UsedGB: total - avail, AvailableGB: avail}
	}

	st.GPU = l.queryGPU(ctx)
	st.Network = l.netRates(ctx)
	return st, nil
}

// netRates is absent until two counter readings exist.
func (l *Local) netRates(ctx context.Context) *NetRates {
	counters, err := net.IOCountersWithContext(ctx, false)
	if err != nil || len(counters) == 0 {
		return nil
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	prev, prevAt := l.prevNet, l.prevNetAt
	l.prevNet, l.prevNetAt = counters, now
	if len(prev) == 0 {
		return nil
	}
	return rates(prev[0], counters[0], now.Sub(prevAt))
}

func rates(prev, cur net.IOCountersStat, dt time.Duration) *NetRates {
	secs := dt.Seconds()
	if secs <= 0 || cur.BytesRecv < prev.BytesRecv || cur.BytesSent < prev.BytesSent {
		return nil
	}
	rx := cur.BytesRecv - prev.BytesRecv
	tx := cur.BytesSent - prev.BytesSent
	return &NetRates{
		DownMbps: float64(rx*8) / 1e6 / secs,
		UpMbps:   float64(tx*8) / 1e6 / secs,
	}
}

// GetStorage implements Host.
func (l *Local) GetStorage(ctx context.Context) (*StorageReport, error) {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("disk partitions: %w", err)
	}
	seen := make(map[string]bool)
	var disks []model.Disk
	for _, p := range parts {
		if skipFS[p.Fstype] || seen[p.Device] {
			continue
		}
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || u.Total == 0 {
			continue
		}
		seen[p.Device] = true
		disks = append(disks, model.Disk{
			Path:    p.Mountpoint,
			TotalGB: toGiB(u.Total),
			UsedGB:  toGiB(u.Used),
			FS:      p.Fstype,
		})
	}
	if len(disks) == 0 {
		return nil, fmt.Errorf("no usable filesystems")
	}
	return summarize(disks), nil
}

// summarize sorts disks by path and computes the aggregate, clamping used
// to total everywhere.
func summarize(disks []model.Disk) *StorageReport {
	sort.Slice(disks, func(i, j int) bool { return disks[i].Path < disks[j].Path })
	r := &StorageReport{Disks: disks}
	for i := range r.Disks {
		d := &r.Disks[i]
		if d.UsedGB > d.TotalGB {
			d.UsedGB = d.TotalGB
		}
		r.TotalGB += d.TotalGB
		r.UsedGB += d.UsedGB
	}
	return r
}

// coreUsage turns two cpu.Times(percpu) readings into per-core percent.
func coreUsage(prev, cur []cpu.TimesStat) []float64 {
	out := make([]float64, len(cur))
	for i, c := range cur {
		if i >= len(prev) {
			continue
		}
		p := prev[i]
		dt := c.Total() - p.Total()
		di := (c.Idle + c.Iowait) - (p.Idle + p.Iowait)
		if dt > 0 {
			out[i] = clamp(100*(1-di/dt), 0, 100)
		}
	}
	return out
}

func cpuDisplayName(info cpu.InfoStat) string {
	name := strings.TrimSpace(info.ModelName)
	if name == "" {
		name = strings.TrimSpace(info.VendorID)
	}
	return name
}

// pickCPUTemp prefers package sensors, then any core sensor.
func pickCPUTemp(temps []host.TemperatureStat) (float64, bool) {
	prefixes := []string{"coretemp_package", "k10temp_tctl", "k10temp", "zenpower", "cpu_thermal", "coretemp", "acpitz"}
	for _, prefix := range prefixes {
		for _, t := range temps {
			if strings.HasPrefix(strings.ToLower(t.SensorKey), prefix) && t.Temperature > 0 {
				return t.Temperature, true
			}
		}
	}
	return 0, false
}

var thermalGlob = "/sys/class/thermal/thermal_zone*/temp"

// thermalZoneTemp is the hottest sysfs thermal zone, for hosts where
// hwmon exposes nothing gopsutil recognises.
func thermalZoneTemp() (float64, bool) {
	paths, _ := filepath.Glob(thermalGlob)
	var best float64
	for _, p := range paths {
		b, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		if v := parseFloat(string(b)) / 1000; v > best {
			best = v
		}
	}
	return best, best > 0
}

func (l *Local) queryGPU(ctx context.Context) *model.GPU {
	l.gpuMu.Lock()
	defer l.gpuMu.Unlock()

	if !l.gpuChecked {
		_, err := exec.LookPath("nvidia-smi")
		l.hasSMI = err == nil
		l.gpuChecked = true
	}
	if !l.hasSMI {
		return nil
	}
	if l.gpu != nil && time.Since(l.gpuAt) < gpuPollInterval {
		g := *l.gpu
		return &g
	}

	out, _ := runCmd(ctx, 400*time.Millisecond, "nvidia-smi",
		"--query-gpu=name,utilization.gpu,temperature.gpu",
		"--format=csv,noheader,nounits")
	g, ok := parseSMI(out)
	if !ok {
		return nil
	}
	l.gpu, l.gpuAt = &g, time.Now()
	return &g
}

// parseSMI reads the first device line of nvidia-smi csv output.
func parseSMI(out string) (model.GPU, bool) {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		parts := strings.Split(sc.Text(), ",")
		if len(parts) < 3 {
			continue
		}
		return model.GPU{
			Name:  strings.TrimSpace(parts[0]),
			Usage: parseFloat(parts[1]),
			Temp:  parseFloat(parts[2]),
		}, true
	}
	return model.GPU{}, false
}

func parseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	f, _ := strconv.ParseFloat(s, 64)
	return f
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

func runCmd(parent context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if ctx.Err() == context.DeadlineExceeded {
		return "", ctx.Err()
	}
	return string(out), err
}
