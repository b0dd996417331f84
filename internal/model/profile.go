package model

// Profile is the static fallback description used until (or instead of)
// real readings. Loaded from the [profile] section of the config file.
type Profile struct {
	Platform   string  `toml:"platform"`
	Kernel     string  `toml:"kernel"`
	CPUModel   string  `toml:"cpu_model"`
	GPUModel   string  `toml:"gpu_model"`
	DE         string  `toml:"de"`
	WM         string  `toml:"wm"`
	Shell      string  `toml:"shell"`
	Terminal   string  `toml:"terminal"`
	Resolution string  `toml:"resolution"`
	Packages   string  `toml:"packages"`
	Theme      string  `toml:"theme"`
	Icons      string  `toml:"icons"`
	RAMTotalGB float64 `toml:"ram_total_gb"`
	IP         string  `toml:"ip"`
	Disks      []Disk  `toml:"disks"`
}

// DefaultProfile is the built-in fallback machine.
func DefaultProfile() Profile {
	return Profile{
		Platform:   "CachyOS x86_64",
		Kernel:     "Linux 6.17.8-1-cachyos",
		CPUModel:   "Intel(R) Core(TM) i3-2370M (4) @ 2.40 GHz",
		GPUModel:   "Intel 2nd Gen Core Family Integrated Graphics",
		DE:         "KDE Plasma 6.5.3",
		WM:         "KWin (Wayland)",
		Shell:      "fish 4.2.1",
		Terminal:   "konsole 25.8.3",
		Resolution: "1366x768",
		Packages:   "1281 (pacman)",
		Theme:      "Breeze (CachyOSNordLightly)",
		Icons:      "char-white",
		RAMTotalGB: 5.69,
		IP:         "192.168.127.147/24",
		Disks: []Disk{
			{Path: "/", TotalGB: 931.51, UsedGB: 16.56, FS: "btrfs"},
		},
	}
}

// Initial builds the first snapshot for a machine with the given number of
// cores. Every field is populated.
func (p Profile) Initial(cores int) Snapshot {
	if cores <= 0 {
		cores = 4
	}
	usage := make([]float64, cores)
	for i := range usage {
		usage[i] = 10
	}

	used := 3.0
	if used > p.RAMTotalGB-0.5 {
		used = p.RAMTotalGB / 2
	}

	var storage Storage
	for _, d := range p.Disks {
		storage.TotalGB += d.TotalGB
		storage.UsedGB += d.UsedGB
	}
	storage.Disks = append([]Disk(nil), p.Disks...)

	return Snapshot{
		Source:   "simulated",
		CPUUsage: usage,
		CPUTemp:  45,
		CPUName:  p.CPUModel,
		RAM: Memory{
			TotalGB:     p.RAMTotalGB,
			UsedGB:      used,
			AvailableGB: p.RAMTotalGB - used,
		},
		Storage: storage,
		Network: Network{IP: p.IP},
		GPU:     GPU{Name: p.GPUModel, Usage: 15, Temp: 40},
		OSInfo: OSInfo{
			Platform:   p.Platform,
			Kernel:     p.Kernel,
			Uptime:     "0 hours, 0 mins",
			Packages:   p.Packages,
			Shell:      p.Shell,
			Resolution: p.Resolution,
			DE:         p.DE,
			WM:         p.WM,
			Theme:      p.Theme,
			Icons:      p.Icons,
			Terminal:   p.Terminal,
		},
	}
}
