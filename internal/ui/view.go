package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/Dicklesworthstone/axon_dashboard/internal/media"
	"github.com/Dicklesworthstone/axon_dashboard/internal/model"
)

// Styles
var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("45"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	gaugeFill   = "█"
	gaugeEmpty  = "░"
	cardStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("60")).
			Padding(0, 1).
			MarginRight(1)
)

const gib = 1 << 30

func (m *Model) View() string {
	s := m.latest
	header := titleStyle.Render("AXON // system dashboard") + "  " +
		subtleStyle.Render(s.Timestamp.Format("Mon Jan 2 15:04:05 MST 2006")) + "  " +
		sourceBadge(s.Source)

	line1 := lipgloss.JoinHorizontal(lipgloss.Top, cpuCard(s), memoryCard(s), networkCard(s))
	row2 := []string{storageCard(s), gpuCard(s)}
	if m.battery != nil {
		row2 = append(row2, batteryCard(*m.battery))
	}
	line2 := lipgloss.JoinHorizontal(lipgloss.Top, row2...)

	row3 := []string{systemCard(s.OSInfo)}
	if m.opts.Shelf != nil {
		row3 = append(row3, mediaCard(m.opts.Shelf, m.shuffle, m.slideshow))
	}
	line3 := lipgloss.JoinHorizontal(lipgloss.Top, row3...)

	footer := subtleStyle.Render(m.helpLine())
	if m.status != "" {
		footer += "  " + warnStyle.Render(m.status)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, line1, line2, line3, footer)
}

func (m *Model) helpLine() string {
	keys := []string{"q quit", "e export"}
	if m.opts.Shelf != nil {
		keys = append(keys, "n/p next/prev", "s shuffle", "g slideshow", "x remove", "c clear", "b clear bg")
	}
	return strings.Join(keys, " · ")
}

func sourceBadge(src string) string {
	if src == "" {
		src = "simulated"
	}
	return subtleStyle.Render("[" + src + "]")
}

func cpuCard(s model.Snapshot) string {
	lines := []string{
		truncate(s.CPUName, 44),
		fmt.Sprintf("%s  %4.1f°C", gaugeBar(s.AvgCPU(), 28), s.CPUTemp),
	}
	for i, u := range s.CPUUsage {
		lines = append(lines, fmt.Sprintf("core %-2d %s", i, gaugeBar(u, 20)))
	}
	return card("CPU", strings.Join(lines, "\n"))
}

func memoryCard(s model.Snapshot) string {
	return card("Memory", fmt.Sprintf("%s\n%.2f / %.2f GiB  (%.2f free)",
		gaugeBar(s.RAMPercent(), 24), s.RAM.UsedGB, s.RAM.TotalGB, s.RAM.AvailableGB))
}

func networkCard(s model.Snapshot) string {
	return card("Network", fmt.Sprintf("↓ %6.2f Mb/s\n↑ %6.2f Mb/s\nIP %s",
		s.Network.DownMbps, s.Network.UpMbps, s.Network.IP))
}

func storageCard(s model.Snapshot) string {
	lines := []string{fmt.Sprintf("%s  %s / %s",
		gaugeBar(pct(s.Storage.UsedGB, s.Storage.TotalGB), 20),
		gbBytes(s.Storage.UsedGB), gbBytes(s.Storage.TotalGB))}
	for _, d := range s.Storage.Disks {
		lines = append(lines, fmt.Sprintf("%-12s %-6s %9s / %-9s",
			truncate(d.Path, 12), d.FS, gbBytes(d.UsedGB), gbBytes(d.TotalGB)))
	}
	return card("Storage", strings.Join(lines, "\n"))
}

func gpuCard(s model.Snapshot) string {
	return card("GPU", fmt.Sprintf("%s\n%s  %4.1f°C",
		truncate(s.GPU.Name, 40), gaugeBar(s.GPU.Usage, 20), s.GPU.Temp))
}

func batteryCard(b model.BatteryStatus) string {
	state := "discharging, " + formatRemaining(b.DischargingTimeSec) + " left"
	if b.Charging {
		state = "charging, full in " + formatRemaining(b.ChargingTimeSec)
	}
	return card("Battery", fmt.Sprintf("%s\n%s", gaugeBar(b.Level*100, 20), state))
}

func systemCard(o model.OSInfo) string {
	rows := [][2]string{
		{"OS", o.Platform},
		{"Kernel", o.Kernel},
		{"Uptime", o.Uptime},
		{"Packages", o.Packages},
		{"Shell", o.Shell},
		{"Resolution", o.Resolution},
		{"DE", o.DE},
		{"WM", o.WM},
		{"Theme", o.Theme},
		{"Icons", o.Icons},
		{"Terminal", o.Terminal},
	}
	var b strings.Builder
	for _, r := range rows {
		fmt.Fprintf(&b, "%-10s %s\n", r[0], r[1])
	}
	return card("System", strings.TrimRight(b.String(), "\n"))
}

func mediaCard(shelf *media.Shelf, shuffle, slideshow bool) string {
	var lines []string
	if cur, ok := shelf.Player.Current(); ok {
		lines = append(lines, fmt.Sprintf("▶ %s  %s  %s",
			truncate(cur.Name, 28), cur.Kind, humanize.IBytes(uint64(cur.Size))))
	} else {
		lines = append(lines, subtleStyle.Render("drop audio or video to play"))
	}
	lines = append(lines,
		fmt.Sprintf("queue %d  shuffle %s", shelf.Player.Len(), onOff(shuffle)))
	if img, ok := shelf.Gallery.Current(); ok {
		lines = append(lines, fmt.Sprintf("gallery %d  ◉ %s  slideshow %s",
			shelf.Gallery.Len(), truncate(img.Name, 20), onOff(slideshow)))
	} else {
		lines = append(lines, "gallery 0")
	}
	if bg, ok := shelf.Background.Current(); ok {
		lines = append(lines, "background "+truncate(bg.Name, 24))
	}
	return card("Media", strings.Join(lines, "\n"))
}

// Helpers
func gaugeBar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int((pct / 100) * float64(width))
	if filled > width {
		filled = width
	}
	return fmt.Sprintf("[%s%s] %5.1f%%",
		strings.Repeat(gaugeFill, filled),
		strings.Repeat(gaugeEmpty, width-filled),
		pct)
}

func card(title, body string) string {
	titleStr := labelStyle.Render(title)
	content := titleStr + "\n" + body
	return cardStyle.Render(content)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func pct(used, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return used * 100 / total
}

func gbBytes(gb float64) string {
	if gb <= 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(gb * gib))
}

func formatRemaining(sec float64) string {
	if math.IsInf(sec, 0) || math.IsNaN(sec) || sec < 0 {
		return "unknown"
	}
	d := time.Duration(sec) * time.Second
	return fmt.Sprintf("%dh %02dm", int(d.Hours()), int(d.Minutes())%60)
}
