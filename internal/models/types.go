package models

import (
	"context"
	"net"
	"time"
)

// Prober sends a single echo request and waits for its reply.
type Prober interface {
	Echo(ctx context.Context, dst net.IP, seq int) (time.Duration, error)
	Close() error
}

// Store defines operations for result persistence.
type Store interface {
	SaveResult(result PingRecord) error
	SaveSpeedTest(result SpeedTestRecord) error
	SavePortScan(results []PortScanRecord) error
	GetRecent(hours int) ([]PingRecord, error)
	GetStats(hours int) ([]Stats, error)
	GetSpeedTests(limit int) ([]SpeedTestRecord, error)
	GetPortScans(limit int) ([]PortScanRecord, error)
	GetOutages(days int) ([]Outage, error)
	HourlyStats(target string) ([]HourlyStat, error)
	ArchiveOldData(retentionDays int) error
	Close() error
}
