package model

import "time"

// Memory is RAM usage in GiB.
type Memory struct {
	TotalGB     float64 `json:"total" yaml:"total"`
	UsedGB      float64 `json:"used" yaml:"used"`
	AvailableGB float64 `json:"available" yaml:"available"`
}

// Disk is one mounted filesystem.
type Disk struct {
	Path    string  `json:"path" yaml:"path" toml:"path"`
	TotalGB float64 `json:"total" yaml:"total" toml:"total_gb"`
	UsedGB  float64 `json:"used" yaml:"used" toml:"used_gb"`
	FS      string  `json:"fs" yaml:"fs" toml:"fs"`
}

// Storage aggregates all disks.
type Storage struct {
	TotalGB float64 `json:"total" yaml:"total"`
	UsedGB  float64 `json:"used" yaml:"used"`
	Disks   []Disk  `json:"disks" yaml:"disks"`
}

// Network holds throughput in Mbps and the primary address.
type Network struct {
	UpMbps   float64 `json:"up" yaml:"up"`
	DownMbps float64 `json:"down" yaml:"down"`
	IP       string  `json:"ip" yaml:"ip"`
}

// GPU holds a single device reading.
type GPU struct {
	Name  string  `json:"name" yaml:"name"`
	Usage float64 `json:"usage" yaml:"usage"` // percent
	Temp  float64 `json:"temp" yaml:"temp"`
}

// OSInfo is fetch-style descriptive text.
type OSInfo struct {
	Platform   string `json:"platform" yaml:"platform"`
	Kernel     string `json:"kernel" yaml:"kernel"`
	Uptime     string `json:"uptime" yaml:"uptime"`
	Packages   string `json:"packages" yaml:"packages"`
	Shell      string `json:"shell" yaml:"shell"`
	Resolution string `json:"resolution" yaml:"resolution"`
	DE         string `json:"de" yaml:"de"`
	WM         string `json:"wm" yaml:"wm"`
	Theme      string `json:"theme" yaml:"theme"`
	Icons      string `json:"icons" yaml:"icons"`
	Terminal   string `json:"terminal" yaml:"terminal"`
}

// Snapshot is one complete reading exchanged between the sampling loop,
// the UI and the exporter. Values handed out by the loop are copies.
type Snapshot struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Source    string    `json:"source" yaml:"source"`
	CPUUsage  []float64 `json:"cpuUsage" yaml:"cpuUsage"` // per core, index order
	CPUTemp   float64   `json:"cpuTemp" yaml:"cpuTemp"`
	CPUName   string    `json:"cpuName" yaml:"cpuName"`
	RAM       Memory    `json:"ram" yaml:"ram"`
	Storage   Storage   `json:"storage" yaml:"storage"`
	Network   Network   `json:"network" yaml:"network"`
	GPU       GPU       `json:"gpu" yaml:"gpu"`
	OSInfo    OSInfo    `json:"osInfo" yaml:"osInfo"`
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.CPUUsage != nil {
		out.CPUUsage = append([]float64(nil), s.CPUUsage...)
	}
	if s.Storage.Disks != nil {
		out.Storage.Disks = append([]Disk(nil), s.Storage.Disks...)
	}
	return out
}

// AvgCPU is the mean of the per-core usage.
func (s Snapshot) AvgCPU() float64 {
	if len(s.CPUUsage) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s.CPUUsage {
		sum += v
	}
	return sum / float64(len(s.CPUUsage))
}

// RAMPercent is used/total in percent.
func (s Snapshot) RAMPercent() float64 {
	if s.RAM.TotalGB <= 0 {
		return 0
	}
	return s.RAM.UsedGB * 100 / s.RAM.TotalGB
}

// Missing lists fields that are not populated. A snapshot published by the
// sampling loop never has any.
func (s Snapshot) Missing() []string {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("cpuUsage", len(s.CPUUsage) > 0)
	check("cpuName", s.CPUName != "")
	check("ram.total", s.RAM.TotalGB > 0)
	check("storage.total", s.Storage.TotalGB > 0)
	check("network.ip", s.Network.IP != "")
	check("gpu.name", s.GPU.Name != "")
	check("osInfo.platform", s.OSInfo.Platform != "")
	check("osInfo.kernel", s.OSInfo.Kernel != "")
	check("osInfo.uptime", s.OSInfo.Uptime != "")
	check("osInfo.shell", s.OSInfo.Shell != "")
	check("osInfo.terminal", s.OSInfo.Terminal != "")
	return missing
}

// BatteryStatus mirrors the host battery. Times are seconds; +Inf means
// the host cannot estimate them.
type BatteryStatus struct {
	Charging           bool    `json:"charging" yaml:"charging"`
	Level              float64 `json:"level" yaml:"level"` // 0..1
	ChargingTimeSec    float64 `json:"chargingTime" yaml:"chargingTime"`
	DischargingTimeSec float64 `json:"dischargingTime" yaml:"dischargingTime"`
}
