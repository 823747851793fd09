package database

import (
	"fmt"
	"time"

	"pingdash/internal/models"
)

// ArchiveOldData rolls ping results older than retentionDays into
// hourly_stats, then deletes the raw rows along with old speed test and
// port scan results.
func (db *DB) ArchiveOldData(retentionDays int) error {
	if retentionDays <= 0 {
		return fmt.Errorf("retention must be positive, got %d", retentionDays)
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	archiveQuery := `
        INSERT OR IGNORE INTO hourly_stats (hour, target, total_pings, successful_pings, avg_rtt_ms, max_rtt_ms, min_rtt_ms, packet_loss_percent)
        SELECT
            substr(timestamp, 1, 13) || ':00:00' as hour,
            target,
            COUNT(*) as total_pings,
            SUM(CASE WHEN success THEN 1 ELSE 0 END) as successful_pings,
            AVG(CASE WHEN success THEN rtt_ms ELSE NULL END) as avg_rtt_ms,
            MAX(CASE WHEN success THEN rtt_ms ELSE NULL END) as max_rtt_ms,
            MIN(CASE WHEN success THEN rtt_ms ELSE NULL END) as min_rtt_ms,
            ROUND((1.0 - (CAST(SUM(CASE WHEN success THEN 1 ELSE 0 END) AS REAL) / COUNT(*))) * 100, 2) as packet_loss_percent
        FROM ping_results
        WHERE timestamp < ?
        GROUP BY hour, target
    `
	if _, err := db.Exec(archiveQuery, cutoff); err != nil {
		return fmt.Errorf("archive ping results: %w", err)
	}

	for _, table := range []string{"ping_results", "speedtest_results", "portscan_results"} {
		if _, err := db.Exec("DELETE FROM "+table+" WHERE timestamp < ?", cutoff); err != nil {
			return fmt.Errorf("prune %s: %w", table, err)
		}
	}

	// Vacuum to reclaim space (run occasionally)
	if time.Now().Day() == 1 {
		_, err := db.Exec("VACUUM")
		return err
	}

	return nil
}

// HourlyStats returns archived hourly aggregates for target, oldest first.
func (db *DB) HourlyStats(target string) ([]models.HourlyStat, error) {
	rows, err := db.Query(`
        SELECT hour, total_pings, successful_pings, avg_rtt_ms, packet_loss_percent
        FROM hourly_stats
        WHERE target = ?
        ORDER BY hour`, target)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.HourlyStat
	for rows.Next() {
		var h models.HourlyStat
		var avg *float64
		if err := rows.Scan(&h.Hour, &h.TotalPings, &h.Successful, &avg, &h.PacketLoss); err != nil {
			return nil, err
		}
		if avg != nil {
			h.AvgRTT = *avg
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

