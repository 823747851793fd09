package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"pingdash/internal/models"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func testSnapshot() Snapshot {
	samples := make([]models.LatencySample, 0, 40)
	for i := 0; i < 40; i++ {
		if i%9 == 0 {
			samples = append(samples, models.LatencySample{Lost: true})
			continue
		}
		samples = append(samples, models.LatencySample{RTTMs: 10 + float64(i%7)})
	}
	stats := models.DefaultNetworkStats()
	stats.TotalPings = 40
	stats.AvgResponse = 13
	stats.Quality = models.QualityExcellent

	return Snapshot{
		Target:    "example.com",
		Address:   "192.0.2.10",
		Generated: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
		Interval:  500 * time.Millisecond,
		Stats:     stats,
		Latency:   samples,
		Ports: []models.PortResult{
			{Port: 22, Status: models.PortOpen, Service: "SSH"},
			{Port: 80, Status: models.PortClosed, Service: "HTTP"},
			{Port: 3389, Status: models.PortFiltered, Service: "RDP"},
		},
		SpeedTest: &models.SpeedTestRecord{DownloadMbps: 94.2, UploadMbps: 18.5, PeakMbps: 110, Duration: 14 * time.Second},
	}
}

func assertPNG(t *testing.T, path string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !bytes.HasPrefix(data, pngSignature) {
		t.Errorf("%s is not a PNG", filepath.Base(path))
	}
}

func TestGenerateReport(t *testing.T) {
	dir, err := NewGenerator(nil).GenerateReport(t.TempDir(), testSnapshot())
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if !strings.Contains(filepath.Base(dir), "example_com") {
		t.Errorf("report dir %q should include the sanitized target", dir)
	}

	assertPNG(t, filepath.Join(dir, "latency.png"))
	assertPNG(t, filepath.Join(dir, "ports.png"))

	summary, err := os.ReadFile(filepath.Join(dir, "summary.txt"))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	for _, want := range []string{"example.com (192.0.2.10)", "Quality: EXCELLENT", "Download: 94.20 Mbps", "22/tcp  open  SSH", "1 open, 1 closed, 1 filtered"} {
		if !strings.Contains(string(summary), want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestGenerateReportWithoutSamples(t *testing.T) {
	snap := testSnapshot()
	snap.Latency = nil
	snap.Ports = nil

	dir, err := NewGenerator(nil).GenerateReport(t.TempDir(), snap)
	if err != nil {
		t.Fatalf("GenerateReport: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "latency.png")); !os.IsNotExist(err) {
		t.Error("latency chart should be skipped without samples")
	}
	if _, err := os.Stat(filepath.Join(dir, "summary.txt")); err != nil {
		t.Errorf("summary missing: %v", err)
	}
}

func TestLatencySeriesSkipsLostSamples(t *testing.T) {
	snap := Snapshot{
		Generated: time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC),
		Interval:  time.Second,
		Latency: []models.LatencySample{
			{RTTMs: 1}, {Lost: true}, {RTTMs: 3},
		},
	}
	xs, ys := latencySeries(snap)
	if len(xs) != 2 || ys[0] != 1 || ys[1] != 3 {
		t.Fatalf("series = %v %v", xs, ys)
	}
	if !xs[1].Equal(snap.Generated) || !xs[0].Equal(snap.Generated.Add(-2*time.Second)) {
		t.Errorf("timestamps = %v", xs)
	}
}

type historyStore struct {
	models.Store
}

func (historyStore) GetStats(int) ([]models.Stats, error) {
	return []models.Stats{{Target: "example.com", TotalPings: 500, Successful: 495, PacketLoss: 1, AvgRTT: 12}}, nil
}

func (historyStore) GetOutages(int) ([]models.Outage, error) {
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	return []models.Outage{{Target: "example.com", StartTime: start, EndTime: start.Add(time.Minute), Duration: "1m0s", FailedChecks: 12}}, nil
}

func TestWriteSummaryWithHistory(t *testing.T) {
	var buf bytes.Buffer
	NewGenerator(historyStore{}).WriteSummary(&buf, testSnapshot())
	out := buf.String()
	if !strings.Contains(out, "RECORDED HISTORY (24h)") || !strings.Contains(out, "Total Pings: 500") {
		t.Errorf("history missing:\n%s", out)
	}
	if !strings.Contains(out, "Outage #1: 2024-06-01 09:00:00") {
		t.Errorf("outage missing:\n%s", out)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"8.8.8.8":        "8_8_8_8",
		"2001:db8::1":    "2001_db8__1",
		"a/b\\c d":       "a_b_c_d",
		"plain-hostname": "plain-hostname",
	}
	for in, want := range tests {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}
