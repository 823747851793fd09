package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"pingdash/internal/models"
	"pingdash/internal/portscan"
	"pingdash/internal/speedtest"
)

var graphBlocks = []rune(" ▁▂▃▄▅▆▇█")

func (m model) View() string {
	s := m.sess
	t := m.theme
	stats := s.mon.Stats()

	if m.width < 50 || m.height < 12 {
		view := m.graphBox(stats, m.width, m.height)
		if s.showSettings {
			return m.settingsOverlay()
		}
		return view
	}

	sections := []string{m.header(stats)}
	var below []string
	below = append(below, m.bottomRow(stats))
	switch {
	case s.speed != nil:
		below = append(below, m.speedTestPanel())
	case s.scan != nil:
		below = append(below, m.portScanPanel())
	case s.showDiagnostics:
		below = append(below, m.diagnosticsPanel(stats))
	}
	if s.status != "" {
		below = append(below, t.style(t.Low).Render(" "+s.status))
	}
	below = append(below, m.footer(stats))

	used := lipgloss.Height(sections[0])
	for _, b := range below {
		used += lipgloss.Height(b)
	}
	graphHeight := max(m.height-used, 5)

	sections = append(sections, m.graphBox(stats, m.width, graphHeight))
	sections = append(sections, below...)

	if s.showSettings {
		return m.settingsOverlay()
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m model) header(stats models.NetworkStats) string {
	s := m.sess
	t := m.theme
	sep := t.style(t.Box).Render("│")
	qc := t.QualityColor(stats.Quality)

	parts := []string{
		t.style(t.Title).Bold(true).Render(" pingdash "),
		t.style(t.Low).Render(" " + s.mon.Target().String() + " "),
		t.style(t.HiFg).Render(" Target: " + s.target + " "),
		t.style(qc).Render(" ● ") + t.style(qc).Bold(true).Render(string(stats.Quality)) + " ",
		t.style(t.Fg).Render(fmt.Sprintf(" Packets: %d ", stats.TotalPings)),
	}
	return t.box().Width(m.width - 2).Render(strings.Join(parts, sep))
}

func (m model) graphBox(stats models.NetworkStats, width, height int) string {
	t := m.theme
	data := m.sess.mon.LatencyData()

	innerW := max(width-4, 1)
	innerH := max(height-3, 1)

	title := fmt.Sprintf("%s │ last %ds", m.sess.mon.Target(), len(data))
	if stats.CurrentResponse != nil {
		cur := *stats.CurrentResponse
		title += " │ " + t.style(t.LatencyColor(cur)).Render(fmt.Sprintf("%.1f ms", cur))
	}
	body := t.style(t.Title).Render(title) + "\n" + renderGraph(data, innerW, innerH, t)
	return t.box().Width(width - 2).Render(body)
}

// renderGraph draws the newest samples as a bar graph of width columns and
// height rows, scaled to the slowest sample shown. Lost samples are marked
// on the baseline.
func renderGraph(samples []models.LatencySample, width, height int, t Theme) string {
	if width < 1 || height < 1 {
		return ""
	}
	if len(samples) > width {
		samples = samples[len(samples)-width:]
	}

	scale := 1.0
	for _, smp := range samples {
		if !smp.Lost && smp.RTTMs > scale {
			scale = smp.RTTMs
		}
	}

	rows := make([]strings.Builder, height)
	pad := strings.Repeat(" ", width-len(samples))
	for r := range rows {
		rows[r].WriteString(pad)
	}

	lost := t.style(t.Missed).Render("×")
	for _, smp := range samples {
		if smp.Lost {
			for r := range rows {
				if r == height-1 {
					rows[r].WriteString(lost)
				} else {
					rows[r].WriteByte(' ')
				}
			}
			continue
		}

		ratio := smp.RTTMs / scale
		level := max(int(math.Round(ratio*float64(height*8))), 1)
		style := t.style(t.GraphGradient(ratio))
		for r := range rows {
			fill := level - (height-1-r)*8
			fill = max(0, min(8, fill))
			rows[r].WriteString(style.Render(string(graphBlocks[fill])))
		}
	}

	lines := make([]string, height)
	for r := range rows {
		lines[r] = rows[r].String()
	}
	return strings.Join(lines, "\n")
}

func (m model) bottomRow(stats models.NetworkStats) string {
	s := m.sess
	panels := []func(models.NetworkStats, int) string{m.statsPanel}
	if s.showJitter && m.width >= 100 {
		panels = append(panels, m.jitterPanel)
	}
	if s.showHistory && m.width >= 100 {
		panels = append(panels, m.historyPanel)
	}

	w := m.width / len(panels)
	rendered := make([]string, len(panels))
	for i, p := range panels {
		rendered[i] = p(stats, w)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m model) row(label, value string, c lipgloss.TerminalColor) string {
	t := m.theme
	return t.style(t.Low).Render(label) + t.style(c).Render(value)
}

func (m model) panelTitle(title string) string {
	return m.theme.style(m.theme.Title).Bold(true).Render(title)
}

func (m model) statsPanel(stats models.NetworkStats, width int) string {
	t := m.theme
	current := "     --- ms"
	currentColor := t.Crit
	if stats.CurrentResponse != nil {
		current = fmt.Sprintf("%8.1f ms", *stats.CurrentResponse)
		currentColor = t.LatencyColor(*stats.CurrentResponse)
	}

	lines := []string{
		m.panelTitle("STATISTICS"),
		m.row("Current:   ", current, currentColor),
		m.row("Avg (10):  ", fmt.Sprintf("%8.1f ms", stats.CurrentAvg), t.LatencyColor(stats.CurrentAvg)),
		m.panelTitle("Session:"),
		m.row("  Avg:    ", fmt.Sprintf("%8.1f ms", stats.AvgResponse), t.Fg),
		m.row("  Min:    ", fmt.Sprintf("%8.1f ms", stats.MinResponse), t.Good),
		m.row("  Max:    ", fmt.Sprintf("%8.1f ms", stats.MaxResponse), t.Warn),
		m.row("Uptime:    ", fmt.Sprintf("%6.1f%%", stats.UptimePct), t.Fg),
		m.row("Loss:      ", fmt.Sprintf("%6.1f%%", stats.PacketLossPct), t.Fg),
	}
	return t.box().Width(width - 2).Render(strings.Join(lines, "\n"))
}

func (m model) jitterPanel(stats models.NetworkStats, width int) string {
	t := m.theme
	m.gauge.Width = max(width-6, 10)

	jitterColor := t.Good
	if stats.AvgResponse > 0 {
		jitterColor = t.GraphGradient(stats.Jitter / stats.AvgResponse)
	}
	webCheck := "off"
	if m.sess.webCheck {
		webCheck = "on"
	}

	lines := []string{
		m.panelTitle("QUALITY"),
		m.row("Jitter:       ", fmt.Sprintf("%8.1f ms", stats.Jitter), jitterColor),
		m.row("Stability:    ", fmt.Sprintf("%6.0f%%", stats.Stability), t.Fg),
		m.gauge.ViewAs(stats.Stability / 100),
		m.row("Quality:      ", string(stats.Quality), t.QualityColor(stats.Quality)),
		m.row("TCP 80:       ", stats.TCPPort80.String(), webColor(t, stats.TCPPort80)),
		m.row("TCP 443:      ", stats.TCPPort443.String(), webColor(t, stats.TCPPort443)),
		m.row("Web check:    ", webCheck, t.Fg),
	}
	return t.box().Width(width - 2).Render(strings.Join(lines, "\n"))
}

func webColor(t Theme, st models.WebCheckStatus) lipgloss.TerminalColor {
	switch st.Kind {
	case models.WebSuccess:
		return t.LatencyColor(st.Ms)
	case models.WebUntested:
		return t.Idle
	default:
		return t.Crit
	}
}

func (m model) historyPanel(_ models.NetworkStats, width int) string {
	t := m.theme
	lines := []string{m.panelTitle("RECENT TARGETS")}
	if len(m.sess.recent) == 0 {
		lines = append(lines, t.style(t.Idle).Italic(true).Render("No history yet"))
	}
	for i, e := range m.sess.recent {
		if i == 7 {
			break
		}
		name := e.Target
		if e.Alias != nil && *e.Alias != "" {
			name = *e.Alias
		}
		line := fmt.Sprintf("%-18.18s", name)
		if e.AvgLatency != nil {
			line += t.style(t.LatencyColor(*e.AvgLatency)).Render(fmt.Sprintf(" %6.1f ms", *e.AvgLatency))
		}
		if e.SuccessRate != nil {
			line += t.style(t.Low).Render(fmt.Sprintf(" %5.1f%%", *e.SuccessRate))
		}
		lines = append(lines, line)
	}
	return t.box().Width(width - 2).Render(strings.Join(lines, "\n"))
}

func (m model) closeHint() string {
	return m.key("C", "Close")
}

func (m model) key(k, label string) string {
	t := m.theme
	return t.style(t.KeyHighlight).Bold(true).Render("["+k+"]") + " " + t.style(t.Low).Render(label)
}

func (m model) speedTestPanel() string {
	t := m.theme
	var lines []string

	switch st := m.sess.speed.State().(type) {
	case speedtest.Preparing:
		lines = append(lines, t.style(t.Title).Render("Preparing speed test..."))
	case speedtest.Downloading:
		lines = append(lines,
			m.panelTitle("Download Speed Test"),
			t.style(t.Title).Render("Downloading..."),
			m.row("Bytes: ", fmt.Sprintf("%.2f MB", float64(st.BytesReceived)/1e6), t.Fg),
		)
		if n := len(st.Samples); n > 0 {
			lines = append(lines, m.row("Speed: ", fmt.Sprintf("%.2f Mbps", st.Samples[n-1].Mbps), t.Good))
		}
	case speedtest.Uploading:
		lines = append(lines,
			m.panelTitle("Upload Speed Test"),
			t.style(t.Title).Render("Uploading..."),
			m.row("Download: ", fmt.Sprintf("%.2f Mbps", st.Download.Mbps), t.Good),
			m.row("Bytes:    ", fmt.Sprintf("%.2f MB", float64(st.BytesSent)/1e6), t.Fg),
		)
	case speedtest.Complete:
		lines = append(lines,
			t.style(t.Good).Bold(true).Render("Speed Test Complete"),
			m.row("Download: ", fmt.Sprintf("%.2f Mbps", st.DownloadMbps), t.Good),
			m.row("Upload:   ", fmt.Sprintf("%.2f Mbps", st.UploadMbps), t.Good),
			m.row("Peak DL:  ", fmt.Sprintf("%.2f Mbps", st.PeakSpeed), t.Fg),
			m.row("Avg DL:   ", fmt.Sprintf("%.2f Mbps", st.AvgSpeed), t.Fg),
			m.row("Data:     ", fmt.Sprintf("%.2f MB", float64(st.TotalBytes)/1e6), t.Fg),
			m.row("Duration: ", fmt.Sprintf("%.1fs", st.Duration.Seconds()), t.Fg),
		)
	case speedtest.Failed:
		lines = append(lines,
			t.style(t.Crit).Bold(true).Render("Speed Test Error"),
			t.style(t.Crit).Render("Error: ")+t.style(t.Fg).Render(st.Message),
		)
	}

	lines = append(lines, "", m.closeHint())
	title := m.panelTitle("SPEED TEST") + t.style(t.Low).Render(" "+speedtest.StageName(m.sess.speed.State()))
	return t.box().Width(m.width - 2).Render(title + "\n" + strings.Join(lines, "\n"))
}

func (m model) portScanPanel() string {
	t := m.theme
	st := m.sess.scan

	pct := 0.0
	if st.total > 0 {
		pct = float64(st.scanned) / float64(st.total)
	}
	heading := "Scanning: " + m.sess.target
	if st.done {
		heading = "Scan complete: " + m.sess.target
	}
	m.bar.Width = max(min(m.width-8, 50), 10)

	sum := portscan.Summarize(st.results)
	lines := []string{
		t.style(t.Title).Render(heading),
		t.style(t.Low).Render(fmt.Sprintf("Progress: %d/%d (%.0f%%)", st.scanned, st.total, pct*100)),
		m.bar.ViewAs(pct),
		t.style(t.Fg).Render(fmt.Sprintf("Open: %d  Filtered: %d  Closed: %d", sum.Open, sum.Filtered, sum.Closed)),
	}

	var open []models.PortResult
	for _, r := range st.results {
		if r.Status == models.PortOpen {
			open = append(open, r)
		}
	}
	for i, r := range open {
		if i == 5 {
			lines = append(lines, t.style(t.Low).Render(fmt.Sprintf("  ... %d more open", len(open)-5)))
			break
		}
		svc := ""
		if r.Service != "" {
			svc = " (" + r.Service + ")"
		}
		lines = append(lines, t.style(t.Title).Render(fmt.Sprintf("%5d ", r.Port))+
			t.style(t.Good).Bold(true).Render("OPEN")+
			t.style(t.Low).Render(svc))
	}
	if len(open) == 0 && st.done {
		lines = append(lines, t.style(t.Low).Render("No open ports found"))
	}

	lines = append(lines, "", m.closeHint())
	return t.box().Width(m.width - 2).Render(m.panelTitle("PORT SCAN") + "\n" + strings.Join(lines, "\n"))
}

func (m model) diagnosticsPanel(stats models.NetworkStats) string {
	t := m.theme
	s := m.sess

	dns := "n/a"
	if stats.DNSDuration != nil {
		dns = fmt.Sprintf("%.2f ms", *stats.DNSDuration)
	}
	recording := "off"
	if s.rec.Enabled() {
		recording = "on"
	}

	lines := []string{
		m.row("Target:     ", s.target, t.HiFg),
		m.row("Address:    ", s.mon.Target().String(), t.Fg),
	}
	if s.location != "" {
		lines = append(lines, m.row("Location:   ", s.location, t.Fg))
	}
	lines = append(lines,
		m.row("DNS lookup: ", dns, t.Fg),
		m.row("TCP 80:     ", stats.TCPPort80.String(), webColor(t, stats.TCPPort80)),
		m.row("TCP 443:    ", stats.TCPPort443.String(), webColor(t, stats.TCPPort443)),
		m.row("Interval:   ", fmt.Sprintf("%dms", s.cfg.PingIntervalMs), t.Fg),
		m.row("Timeout:    ", s.cfg.Timeout().String(), t.Fg),
		m.row("Window:     ", fmt.Sprintf("%d samples", s.mon.MaxHistory()), t.Fg),
		m.row("Recording:  ", recording, t.Fg),
		"",
		m.key("Enter", "Close"),
	)
	return t.box().Width(m.width - 2).Render(m.panelTitle("DIAGNOSTICS") + "\n" + strings.Join(lines, "\n"))
}

func (m model) footer(stats models.NetworkStats) string {
	t := m.theme
	s := m.sess
	sep := t.style(t.Box).Render(" │ ")

	parts := []string{m.key("Q", "Quit"), m.key("ESC", "Settings")}
	if s.panelOpen() {
		parts = append(parts, m.closeHint())
	} else {
		parts = append(parts, m.key("S", "Speed"), m.key("P", "Ports"))
	}
	parts = append(parts,
		m.key("E", "Export"),
		t.style(t.Low).Render("Runtime: ")+t.style(t.Fg).Render(formatRuntime(s.Runtime())),
		t.style(t.Low).Render("Pkts: ")+t.style(t.Fg).Render(fmt.Sprint(stats.TotalPings)),
		t.style(t.Low).Render("Int: ")+t.style(t.Fg).Render(fmt.Sprintf("%dms", s.cfg.PingIntervalMs))+" (↑↓)",
		t.style(t.Low).Render("Hist: ")+t.style(t.Fg).Render(fmt.Sprintf("%ds", s.cfg.GraphHistoryLength))+" (←→)",
	)
	return strings.Join(parts, sep)
}

func (m model) settingsOverlay() string {
	t := m.theme
	s := m.sess

	lines := []string{m.panelTitle("SETTINGS"), ""}
	for i, item := range settingItems {
		mark, markColor := "☐", t.Low
		if item.value(s) {
			mark, markColor = "☑", t.Good
		}
		label := t.style(t.Fg).Render(fmt.Sprintf("%d. %s", i+1, item.label))
		if i == s.settingsSelected {
			label = t.style(t.HiFg).Bold(true).Render(fmt.Sprintf("%d. %s", i+1, item.label))
			mark = "> " + mark
		} else {
			mark = "  " + mark
		}
		lines = append(lines, t.style(markColor).Render(mark)+" "+label)
	}
	lines = append(lines, "", m.key("↑↓", "Navigate")+"  "+m.key("Enter", "Toggle")+"  "+m.key("Esc", "Close"))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.KeyHighlight).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func formatRuntime(d time.Duration) string {
	secs := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs/60%60, secs%60)
}
