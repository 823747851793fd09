package monitor

import (
	"net"
	"time"

	"pingdash/internal/logging"
	"pingdash/internal/models"
)

const (
	// RecentWindow is the number of successful samples kept for the
	// short-window average.
	RecentWindow = 10

	MinHistory     = 30
	MaxHistory     = 600
	DefaultHistory = 200
)

// PingMonitor folds sampler results into a bounded latency history and
// derives statistics from it. It is not safe for concurrent use: the host
// loop is its only caller.
type PingMonitor struct {
	target     net.IP
	history    []models.LatencySample
	recent     []float64
	maxHistory int

	totalPings      uint64
	successfulPings uint64
	failedPings     uint64

	dnsDuration *float64
	tcp80       models.WebCheckStatus
	tcp443      models.WebCheckStatus
}

// New creates a monitor for target retaining at most maxHistory samples.
func New(target net.IP, maxHistory int) *PingMonitor {
	if maxHistory < 1 {
		maxHistory = 1
	}
	return &PingMonitor{
		target:     target,
		history:    make([]models.LatencySample, 0, maxHistory),
		recent:     make([]float64, 0, RecentWindow),
		maxHistory: maxHistory,
	}
}

// Target returns the resolved address being monitored.
func (m *PingMonitor) Target() net.IP { return m.target }

// MaxHistory returns the current retention window.
func (m *PingMonitor) MaxHistory() int { return m.maxHistory }

// SetDNSDuration records how long the startup resolution took.
func (m *PingMonitor) SetDNSDuration(d time.Duration) {
	ms := float64(d.Microseconds()) / 1000.0
	m.dnsDuration = &ms
}

// SetMaxHistory changes the retention window. Shrinking drops the oldest
// samples immediately; growing lets the history fill naturally.
func (m *PingMonitor) SetMaxHistory(n int) {
	if n < 1 {
		n = 1
	}
	if n == m.maxHistory {
		return
	}
	m.maxHistory = n
	if excess := len(m.history) - n; excess > 0 {
		m.history = append(m.history[:0], m.history[excess:]...)
	}
}

// ProcessResult folds one sampler result into the monitor state.
func (m *PingMonitor) ProcessResult(result models.PingResult) {
	switch r := result.(type) {
	case models.Success:
		logging.Tracef("Processing ping success: %.2fms", r.RTTMs)
		m.totalPings++
		m.successfulPings++
		m.push(models.LatencySample{RTTMs: r.RTTMs})
		m.recent = append(m.recent, r.RTTMs)
		if len(m.recent) > RecentWindow {
			m.recent = append(m.recent[:0], m.recent[1:]...)
		}
	case models.Timeout:
		m.totalPings++
		m.failedPings++
		logging.Debugf("Processing ping timeout (total failed: %d)", m.failedPings)
		m.push(models.LatencySample{Lost: true})
	case models.WebCheck:
		logging.Debugf("Processing web check: port %d -> %s", r.Port, r.Status)
		switch r.Port {
		case 80:
			m.tcp80 = r.Status
		case 443:
			m.tcp443 = r.Status
		}
	}
}

func (m *PingMonitor) push(s models.LatencySample) {
	m.history = append(m.history, s)
	if excess := len(m.history) - m.maxHistory; excess > 0 {
		m.history = append(m.history[:0], m.history[excess:]...)
	}
}

// LatencyData returns the retained samples, oldest first.
func (m *PingMonitor) LatencyData() []models.LatencySample {
	out := make([]models.LatencySample, len(m.history))
	copy(out, m.history)
	return out
}

// Reset clears history and counters. Configuration, target identity, DNS
// duration and web-check statuses are kept.
func (m *PingMonitor) Reset() {
	m.history = m.history[:0]
	m.recent = m.recent[:0]
	m.totalPings = 0
	m.successfulPings = 0
	m.failedPings = 0
}
