package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pingdash/internal/logging"
	"pingdash/internal/models"
)

// Snapshot is the session state a report is built from.
type Snapshot struct {
	Target    string
	Address   string
	Generated time.Time
	Interval  time.Duration
	Stats     models.NetworkStats
	Latency   []models.LatencySample
	Ports     []models.PortResult
	SpeedTest *models.SpeedTestRecord
}

// Generator writes charts and a text summary for one session. With a
// store it also includes recorded history.
type Generator struct {
	store models.Store
}

// NewGenerator creates a new report generator. store may be nil.
func NewGenerator(store models.Store) *Generator {
	return &Generator{store: store}
}

// GenerateReport writes a timestamped report directory under outputDir and
// returns its path. Individual artefacts that fail are logged and skipped.
func (g *Generator) GenerateReport(outputDir string, snap Snapshot) (string, error) {
	if snap.Generated.IsZero() {
		snap.Generated = time.Now()
	}
	timestamp := snap.Generated.Format("2006-01-02_15-04-05")
	reportDir := filepath.Join(outputDir, fmt.Sprintf("pingdash_%s_%s", sanitizeFilename(snap.Target), timestamp))
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	if err := g.generateLatencyChart(reportDir, snap); err != nil {
		logging.Warnf("Failed to generate latency chart: %v", err)
	}

	if len(snap.Ports) > 0 {
		if err := g.generatePortChart(reportDir, snap); err != nil {
			logging.Warnf("Failed to generate port chart: %v", err)
		}
	}

	if err := g.generateTextReport(reportDir, snap); err != nil {
		return reportDir, fmt.Errorf("failed to generate text report: %w", err)
	}

	logging.Infof("Report generated in: %s", reportDir)
	return reportDir, nil
}
