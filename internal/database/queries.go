package database

import (
	"database/sql"
	"fmt"
	"time"

	"pingdash/internal/models"
)

// SaveResult saves a ping result to the database
func (db *DB) SaveResult(result models.PingRecord) error {
	query := `
        INSERT INTO ping_results (timestamp, target, success, rtt_ms, error_message)
        VALUES (?, ?, ?, ?, ?)
    `
	var rtt any
	if result.Success {
		rtt = result.RTT
	}
	_, err := db.Exec(query,
		result.Timestamp.UTC(),
		result.Target,
		result.Success,
		rtt,
		nullString(result.ErrorMessage),
	)
	return err
}

// SaveSpeedTest stores one finished speed test.
func (db *DB) SaveSpeedTest(result models.SpeedTestRecord) error {
	query := `
        INSERT INTO speedtest_results (timestamp, target, download_mbps, upload_mbps, peak_mbps, duration_ms, error_message)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := db.Exec(query,
		result.Timestamp.UTC(),
		result.Target,
		result.DownloadMbps,
		result.UploadMbps,
		result.PeakMbps,
		result.Duration.Milliseconds(),
		nullString(result.ErrorMessage),
	)
	return err
}

// SavePortScan stores a completed scan in one transaction.
func (db *DB) SavePortScan(results []models.PortScanRecord) error {
	if len(results) == 0 {
		return nil
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO portscan_results (timestamp, target, port, status, service) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.Exec(r.Timestamp.UTC(), r.Target, r.Port, r.Status, r.Service); err != nil {
			return fmt.Errorf("insert port %d: %w", r.Port, err)
		}
	}
	return tx.Commit()
}

// GetRecent retrieves recent ping results
func (db *DB) GetRecent(hours int) ([]models.PingRecord, error) {
	query := `
        SELECT timestamp, target, success, rtt_ms, error_message
        FROM ping_results
        WHERE timestamp > ?
        ORDER BY timestamp DESC
        LIMIT 10000
    `

	rows, err := db.Query(query, since(hours))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.PingRecord
	for rows.Next() {
		var r models.PingRecord
		var rtt sql.NullFloat64
		var errMsg sql.NullString
		if err := rows.Scan(&r.Timestamp, &r.Target, &r.Success, &rtt, &errMsg); err != nil {
			continue
		}
		r.RTT = rtt.Float64
		r.ErrorMessage = errMsg.String
		results = append(results, r)
	}

	return results, rows.Err()
}

// GetStats retrieves aggregated statistics
func (db *DB) GetStats(hours int) ([]models.Stats, error) {
	query := `
        SELECT
            target,
            COUNT(*) as total_pings,
            SUM(CASE WHEN success THEN 1 ELSE 0 END) as successful_pings,
            COALESCE(AVG(CASE WHEN success THEN rtt_ms ELSE NULL END), 0) as avg_rtt,
            COALESCE(MAX(CASE WHEN success THEN rtt_ms ELSE NULL END), 0) as max_rtt,
            COALESCE(MIN(CASE WHEN success THEN rtt_ms ELSE NULL END), 0) as min_rtt,
            ROUND((1.0 - (CAST(SUM(CASE WHEN success THEN 1 ELSE 0 END) AS REAL) / COUNT(*))) * 100, 2) as packet_loss
        FROM ping_results
        WHERE timestamp > ?
        GROUP BY target
    `

	rows, err := db.Query(query, since(hours))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []models.Stats
	for rows.Next() {
		var s models.Stats
		err := rows.Scan(&s.Target, &s.TotalPings, &s.Successful,
			&s.AvgRTT, &s.MaxRTT, &s.MinRTT, &s.PacketLoss)
		if err != nil {
			continue
		}
		stats = append(stats, s)
	}

	return stats, rows.Err()
}

// GetSpeedTests returns the most recent speed tests, newest first.
func (db *DB) GetSpeedTests(limit int) ([]models.SpeedTestRecord, error) {
	rows, err := db.Query(`
        SELECT timestamp, target, download_mbps, upload_mbps, peak_mbps, duration_ms, error_message
        FROM speedtest_results
        ORDER BY timestamp DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SpeedTestRecord
	for rows.Next() {
		var r models.SpeedTestRecord
		var durationMs int64
		var errMsg sql.NullString
		if err := rows.Scan(&r.Timestamp, &r.Target, &r.DownloadMbps, &r.UploadMbps, &r.PeakMbps, &durationMs, &errMsg); err != nil {
			continue
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		r.ErrorMessage = errMsg.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetPortScans returns up to limit scanned ports, newest scan first and
// catalogue order within a scan.
func (db *DB) GetPortScans(limit int) ([]models.PortScanRecord, error) {
	rows, err := db.Query(`
        SELECT timestamp, target, port, status, service
        FROM portscan_results
        ORDER BY timestamp DESC, id ASC
        LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PortScanRecord
	for rows.Next() {
		var r models.PortScanRecord
		var service sql.NullString
		if err := rows.Scan(&r.Timestamp, &r.Target, &r.Port, &r.Status, &service); err != nil {
			continue
		}
		r.Service = service.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetOutages retrieves detected outages using sliding window approach
func (db *DB) GetOutages(days int) ([]models.Outage, error) {
	query := `
        WITH windowed_pings AS (
            SELECT
                target,
                timestamp,
                success,
                COUNT(*) OVER (
                    PARTITION BY target
                    ORDER BY timestamp
                    ROWS 9 PRECEDING
                ) as window_size,
                SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END) OVER (
                    PARTITION BY target
                    ORDER BY timestamp
                    ROWS 9 PRECEDING
                ) as failure_count
            FROM ping_results
            WHERE timestamp > ?
        ),
        outage_periods AS (
            SELECT
                target,
                timestamp,
                CASE WHEN failure_count >= 5 AND window_size = 10 THEN 1 ELSE 0 END as is_outage,
                ROW_NUMBER() OVER (PARTITION BY target ORDER BY timestamp) -
                ROW_NUMBER() OVER (PARTITION BY target, CASE WHEN failure_count >= 5 AND window_size = 10 THEN 1 ELSE 0 END ORDER BY timestamp) as outage_grp
            FROM windowed_pings
        )
        SELECT
            target,
            MIN(timestamp) as start_time,
            MAX(timestamp) as end_time,
            COUNT(*) as failed_checks
        FROM outage_periods
        WHERE is_outage = 1
        GROUP BY target, outage_grp
        ORDER BY start_time DESC
        LIMIT 100
    `

	rows, err := db.Query(query, since(days*24))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outages []models.Outage
	for rows.Next() {
		var o models.Outage
		var start, end string
		if err := rows.Scan(&o.Target, &start, &end, &o.FailedChecks); err != nil {
			continue
		}
		o.StartTime = parseTimestamp(start)
		o.EndTime = parseTimestamp(end)
		o.Duration = o.EndTime.Sub(o.StartTime).String()
		outages = append(outages, o)
	}

	return outages, rows.Err()
}

func since(hours int) time.Time {
	return time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Aggregates lose the column's declared type, so MIN/MAX come back as text.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
}

func parseTimestamp(s string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
