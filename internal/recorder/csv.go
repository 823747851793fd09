package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"pingdash/internal/models"
)

const csvTimeLayout = "2006-01-02 15:04:05"

var csvHeader = []string{"Timestamp", "Target", "Latency(ms)", "Status"}

// CSVLog appends ping records to a CSV file.
type CSVLog struct {
	f *os.File
	w *csv.Writer
}

// OpenCSV opens path for appending, writing the header when the file is new
// or empty.
func OpenCSV(path string) (*CSVLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open csv log: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat csv log: %w", err)
	}

	l := &CSVLog{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := l.w.Write(csvHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write csv header: %w", err)
		}
		l.w.Flush()
	}
	return l, nil
}

// Write appends one row. Timeouts are logged with a latency of 0.00.
func (l *CSVLog) Write(rec models.PingRecord) error {
	status := "Success"
	latency := rec.RTT
	if !rec.Success {
		status = "Timeout"
		latency = 0
	}
	return l.w.Write([]string{
		rec.Timestamp.Local().Format(csvTimeLayout),
		rec.Target,
		strconv.FormatFloat(latency, 'f', 2, 64),
		status,
	})
}

// Flush pushes buffered rows to the file.
func (l *CSVLog) Flush() error {
	l.w.Flush()
	return l.w.Error()
}

func (l *CSVLog) Close() error {
	if err := l.Flush(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}
