package monitor

import (
	"math"

	"pingdash/internal/models"
)

// Stats computes a fresh snapshot from the raw history and counters.
func (m *PingMonitor) Stats() models.NetworkStats {
	stats := models.DefaultNetworkStats()
	stats.TotalPings = m.totalPings
	stats.DNSDuration = m.dnsDuration
	stats.TCPPort80 = m.tcp80
	stats.TCPPort443 = m.tcp443

	valid := make([]float64, 0, len(m.history))
	for _, s := range m.history {
		if !s.Lost {
			valid = append(valid, s.RTTMs)
		}
	}

	if n := len(m.history); n > 0 && !m.history[n-1].Lost {
		current := m.history[n-1].RTTMs
		stats.CurrentResponse = &current
	}

	stats.CurrentAvg = mean(m.recent)
	stats.AvgResponse = mean(valid)

	if len(valid) > 0 {
		stats.MinResponse = math.Inf(1)
		for _, v := range valid {
			stats.MinResponse = math.Min(stats.MinResponse, v)
			stats.MaxResponse = math.Max(stats.MaxResponse, v)
		}
	}

	if m.totalPings > 0 {
		stats.UptimePct = float64(m.successfulPings) / float64(m.totalPings) * 100
		stats.PacketLossPct = float64(m.failedPings) / float64(m.totalPings) * 100
	}

	stats.Jitter = populationStdDev(valid, stats.AvgResponse)
	if stats.AvgResponse > 0 {
		stats.Stability = clamp(100-(stats.Jitter/stats.AvgResponse*100), 0, 100)
	}

	stats.Quality = m.quality(stats.CurrentAvg)
	return stats
}

// quality classifies the connection. A lost most-recent sample wins over
// every latency threshold, even when the recent average is low.
func (m *PingMonitor) quality(recentAvg float64) models.Quality {
	n := len(m.history)
	switch {
	case n == 0:
		return models.QualityUnknown
	case m.history[n-1].Lost:
		return models.QualityOffline
	case recentAvg < 30:
		return models.QualityExcellent
	case recentAvg < 100:
		return models.QualityGood
	case recentAvg < 200:
		return models.QualityFair
	default:
		return models.QualityPoor
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func populationStdDev(values []float64, avg float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	var variance float64
	for _, v := range values {
		variance += (v - avg) * (v - avg)
	}
	return math.Sqrt(variance / float64(len(values)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
