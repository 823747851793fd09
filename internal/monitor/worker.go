package monitor

import (
	"context"
	"time"

	"pingdash/internal/logging"
	"pingdash/internal/models"
	"pingdash/internal/ping"
)

var webCheckPorts = []int{80, 443}

// run is the sampling loop. It ends on Stop, Close or ctx cancellation;
// individual probe failures are reported as results and never end it.
func (s *Sampler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	webCheck := s.opts.WebCheck
	paused := false
	seq := 0

	tick := func() bool {
		if paused {
			return true
		}
		seq++
		if webCheck {
			s.spawnWebChecks(ctx)
		}
		return s.deliver(ctx, s.performPing(ctx, seq))
	}

	// Immediate first ping
	if !tick() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case cmd := <-s.commands:
			switch c := cmd.(type) {
			case SetInterval:
				d := ClampInterval(c.Interval)
				ticker.Reset(d)
				logging.Infof("Ping interval set to %v", d)
			case ToggleWebCheck:
				webCheck = c.Enabled
				logging.Infof("Web check enabled: %v", webCheck)
			case SetPaused:
				paused = c.Paused
				logging.Debugf("Sampler paused: %v", paused)
			case Stop:
				logging.Infof("Sampler for %s stopped", s.addr)
				return
			}
		case <-ticker.C:
			if !tick() {
				return
			}
		}
	}
}

// performPing runs one echo probe bounded by the probe timeout.
func (s *Sampler) performPing(ctx context.Context, seq int) models.PingResult {
	probeCtx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	rtt, err := s.prober.Echo(probeCtx, s.addr, seq)
	if err != nil {
		logging.Debugf("Ping %s seq=%d failed: %v", s.addr, seq, err)
		return models.Timeout{}
	}
	return models.Success{RTTMs: float64(rtt.Microseconds()) / 1000.0}
}

// deliver blocks until the host accepts r or the sampler is shut down.
func (s *Sampler) deliver(ctx context.Context, r models.PingResult) bool {
	select {
	case s.results <- r:
		return true
	case <-ctx.Done():
		return false
	case <-s.done:
		return false
	}
}

// spawnWebChecks starts one detached probe per web port. Their results
// may arrive in any order relative to ping results.
func (s *Sampler) spawnWebChecks(ctx context.Context) {
	for _, port := range webCheckPorts {
		s.wg.Add(1)
		go func(port int) {
			defer s.wg.Done()
			status := ping.CheckPort(ctx, s.opts.Dialer, s.addr, port, s.opts.WebCheckTimeout)
			select {
			case s.results <- models.WebCheck{Port: port, Status: status}:
			default:
				logging.Warnf("Result channel full, dropping web check for port %d", port)
			}
		}(port)
	}
}
