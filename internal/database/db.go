package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps sql.DB with the pingdash schema and queries.
type DB struct {
	*sql.DB
}

// New opens (or creates) the database at path and ensures the schema.
func New(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("database open failed: %w", err)
	}

	// The recorder is the only writer; one connection avoids SQLITE_BUSY
	// between it and the status API readers.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	sqlDB.Exec("PRAGMA synchronous=NORMAL")

	db := &DB{sqlDB}
	if err := db.InitSchema(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// InitSchema creates all necessary tables
func (db *DB) InitSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS ping_results (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL,
        target TEXT NOT NULL,
        success BOOLEAN NOT NULL,
        rtt_ms REAL,
        error_message TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE INDEX IF NOT EXISTS idx_timestamp ON ping_results(timestamp);
    CREATE INDEX IF NOT EXISTS idx_target_timestamp ON ping_results(target, timestamp);

    CREATE TABLE IF NOT EXISTS speedtest_results (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL,
        target TEXT NOT NULL,
        download_mbps REAL,
        upload_mbps REAL,
        peak_mbps REAL,
        duration_ms INTEGER,
        error_message TEXT
    );

    CREATE TABLE IF NOT EXISTS portscan_results (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        timestamp DATETIME NOT NULL,
        target TEXT NOT NULL,
        port INTEGER NOT NULL,
        status TEXT NOT NULL,
        service TEXT
    );

    CREATE INDEX IF NOT EXISTS idx_portscan_timestamp ON portscan_results(timestamp);

    CREATE TABLE IF NOT EXISTS hourly_stats (
        hour TEXT NOT NULL,
        target TEXT NOT NULL,
        total_pings INTEGER,
        successful_pings INTEGER,
        avg_rtt_ms REAL,
        max_rtt_ms REAL,
        min_rtt_ms REAL,
        packet_loss_percent REAL,
        PRIMARY KEY (hour, target)
    );
    `

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}

	return nil
}
