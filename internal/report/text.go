package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pingdash/internal/logging"
	"pingdash/internal/models"
	"pingdash/internal/portscan"
)

func (g *Generator) generateTextReport(outputDir string, snap Snapshot) error {
	filename := filepath.Join(outputDir, "summary.txt")
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	g.WriteSummary(file, snap)
	return nil
}

// WriteSummary renders the plain-text session summary.
func (g *Generator) WriteSummary(w io.Writer, snap Snapshot) {
	s := snap.Stats

	fmt.Fprintf(w, "Network Connectivity Report\n")
	fmt.Fprintf(w, "Generated: %s\n", snap.Generated.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Target: %s", snap.Target)
	if snap.Address != "" && snap.Address != snap.Target {
		fmt.Fprintf(w, " (%s)", snap.Address)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintln(w, "\nSESSION STATISTICS")
	fmt.Fprintf(w, "  Quality: %s\n", s.Quality)
	fmt.Fprintf(w, "  Total Pings: %d\n", s.TotalPings)
	fmt.Fprintf(w, "  Uptime: %.2f%%\n", s.UptimePct)
	fmt.Fprintf(w, "  Packet Loss: %.2f%%\n", s.PacketLossPct)
	if s.AvgResponse > 0 {
		fmt.Fprintf(w, "  Average RTT: %.2f ms\n", s.AvgResponse)
		fmt.Fprintf(w, "  Min RTT: %.2f ms\n", s.MinResponse)
		fmt.Fprintf(w, "  Max RTT: %.2f ms\n", s.MaxResponse)
		fmt.Fprintf(w, "  Jitter: %.2f ms\n", s.Jitter)
		fmt.Fprintf(w, "  Stability: %.1f%%\n", s.Stability)
	}
	if s.DNSDuration != nil {
		fmt.Fprintf(w, "  DNS Lookup: %.2f ms\n", *s.DNSDuration)
	}
	fmt.Fprintf(w, "  TCP 80: %s\n", s.TCPPort80)
	fmt.Fprintf(w, "  TCP 443: %s\n", s.TCPPort443)

	if st := snap.SpeedTest; st != nil {
		fmt.Fprintln(w, "\nSPEED TEST")
		if st.ErrorMessage != "" {
			fmt.Fprintf(w, "  Failed: %s\n", st.ErrorMessage)
		} else {
			fmt.Fprintf(w, "  Download: %.2f Mbps (peak %.2f)\n", st.DownloadMbps, st.PeakMbps)
			fmt.Fprintf(w, "  Upload: %.2f Mbps\n", st.UploadMbps)
			fmt.Fprintf(w, "  Duration: %s\n", st.Duration.Round(100*time.Millisecond))
		}
	}

	if len(snap.Ports) > 0 {
		fmt.Fprintln(w, "\nPORT SCAN")
		for _, p := range snap.Ports {
			if p.Status == models.PortOpen {
				fmt.Fprintf(w, "  %5d/tcp  open  %s\n", p.Port, p.Service)
			}
		}
		sum := portscan.Summarize(snap.Ports)
		fmt.Fprintf(w, "  %d open, %d closed, %d filtered\n", sum.Open, sum.Closed, sum.Filtered)
	}

	if g.store != nil {
		g.writeHistory(w, snap.Target)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 60))
}

func (g *Generator) writeHistory(w io.Writer, target string) {
	stats, err := g.store.GetStats(24)
	if err != nil {
		logging.Warnf("Failed to load recorded stats: %v", err)
		return
	}
	fmt.Fprintln(w, "\nRECORDED HISTORY (24h)")
	for _, s := range stats {
		if s.Target != target {
			continue
		}
		fmt.Fprintf(w, "  Total Pings: %d\n", s.TotalPings)
		fmt.Fprintf(w, "  Successful: %d\n", s.Successful)
		fmt.Fprintf(w, "  Packet Loss: %.2f%%\n", s.PacketLoss)
		fmt.Fprintf(w, "  Average RTT: %.2f ms\n", s.AvgRTT)
	}

	outages, err := g.store.GetOutages(1)
	if err != nil {
		logging.Warnf("Failed to load outages: %v", err)
		return
	}
	count := 0
	for _, o := range outages {
		if o.Target != target {
			continue
		}
		count++
		fmt.Fprintf(w, "  Outage #%d: %s to %s (%s, %d checks)\n", count,
			o.StartTime.Format("2006-01-02 15:04:05"), o.EndTime.Format("15:04:05"), o.Duration, o.FailedChecks)
	}
	if count == 0 {
		fmt.Fprintln(w, "  No significant outages detected.")
	}
}
