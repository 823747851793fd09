package models

import "time"

// Quality is the coarse connection label shown in the dashboard.
type Quality string

const (
	QualityUnknown   Quality = "UNKNOWN"
	QualityOffline   Quality = "OFFLINE"
	QualityExcellent Quality = "EXCELLENT"
	QualityGood      Quality = "GOOD"
	QualityFair      Quality = "FAIR"
	QualityPoor      Quality = "POOR"
)

// NetworkStats is an aggregated snapshot of the ping monitor.
// All latency figures are milliseconds.
type NetworkStats struct {
	CurrentResponse *float64       `json:"current_response"`
	CurrentAvg      float64        `json:"current_avg"`
	AvgResponse     float64        `json:"avg_response"`
	MinResponse     float64        `json:"min_response"`
	MaxResponse     float64        `json:"max_response"`
	UptimePct       float64        `json:"uptime_pct"`
	PacketLossPct   float64        `json:"packet_loss_pct"`
	Jitter          float64        `json:"jitter"`
	Stability       float64        `json:"stability"`
	Quality         Quality        `json:"quality"`
	TotalPings      uint64         `json:"total_pings"`
	DNSDuration     *float64       `json:"dns_duration"`
	TCPPort80       WebCheckStatus `json:"tcp_port_80"`
	TCPPort443      WebCheckStatus `json:"tcp_port_443"`
}

// DefaultNetworkStats returns the snapshot shown before any data arrives.
func DefaultNetworkStats() NetworkStats {
	return NetworkStats{
		Stability: 100,
		Quality:   QualityUnknown,
	}
}

// Stats represents aggregated statistics for a target over a time window,
// as computed by the database.
type Stats struct {
	Target     string  `json:"target"`
	TotalPings int     `json:"total_pings"`
	Successful int     `json:"successful_pings"`
	AvgRTT     float64 `json:"avg_rtt"`
	MaxRTT     float64 `json:"max_rtt"`
	MinRTT     float64 `json:"min_rtt"`
	PacketLoss float64 `json:"packet_loss"`
}

// SpeedTestRecord is a finished throughput test.
type SpeedTestRecord struct {
	Timestamp    time.Time     `json:"timestamp"`
	Target       string        `json:"target"`
	DownloadMbps float64       `json:"download_mbps"`
	UploadMbps   float64       `json:"upload_mbps"`
	PeakMbps     float64       `json:"peak_mbps"`
	Duration     time.Duration `json:"duration_ns"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// PortScanRecord is one scanned port, stamped with the scan time.
type PortScanRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Target    string    `json:"target"`
	Port      int       `json:"port"`
	Status    string    `json:"status"`
	Service   string    `json:"service"`
}

// Outage is a run of pings where at least half of a ten-ping window failed.
type Outage struct {
	Target       string    `json:"target"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Duration     string    `json:"duration"`
	FailedChecks int       `json:"failed_checks"`
}

// HourlyStat is one archived hour of ping results.
type HourlyStat struct {
	Hour       string  `json:"hour"`
	TotalPings int     `json:"total_pings"`
	Successful int     `json:"successful_pings"`
	AvgRTT     float64 `json:"avg_rtt_ms"`
	PacketLoss float64 `json:"packet_loss_percent"`
}
