package ui

import (
	"context"
	"time"

	"pingdash/internal/logging"
	"pingdash/internal/models"
	"pingdash/internal/portscan"
)

// HeadlessOptions control a run without the dashboard.
type HeadlessOptions struct {
	// Duration stops the run after this long; zero runs until ctx ends.
	Duration   time.Duration
	StatsEvery time.Duration
	Scan       bool
	SpeedTest  bool
}

// RunHeadless drives sess from a plain ticker and logs a stats line
// periodically. It returns when ctx is cancelled or Duration elapses.
func RunHeadless(ctx context.Context, sess *Session, opts HeadlessOptions) error {
	if opts.StatsEvery <= 0 {
		opts.StatsEvery = 5 * time.Second
	}
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	statsTicker := time.NewTicker(opts.StatsEvery)
	defer statsTicker.Stop()

	batches := make(chan scanBatchMsg, 1)
	if opts.Scan {
		if st := sess.StartPortScan(ctx); st != nil {
			go runScan(ctx, st, batches)
		}
	}
	speedPending := opts.SpeedTest

	logging.Infof("Monitoring %s (%s) every %dms", sess.target, sess.mon.Target(), sess.cfg.PingIntervalMs)

	for {
		select {
		case <-ctx.Done():
			logStats(sess)
			return nil

		case <-ticker.C:
			sess.Tick()
			if sess.speed != nil && sess.speedDone {
				logSpeedTest(sess.lastSpeed)
				sess.ClosePanel()
			}
			// the speed test waits for the port scan panel to close
			if speedPending && sess.StartSpeedTest() {
				speedPending = false
			}

		case msg := <-batches:
			if !sess.ApplyScanBatch(msg) && msg.done {
				sum := portscan.Summarize(msg.results)
				logging.Infof("Port scan: %d open, %d closed, %d filtered", sum.Open, sum.Closed, sum.Filtered)
				for _, r := range msg.results {
					if r.Status == models.PortOpen {
						logging.Infof("  %d/tcp open %s", r.Port, r.Service)
					}
				}
				sess.ClosePanel()
			}

		case <-statsTicker.C:
			logStats(sess)
		}
	}
}

func runScan(ctx context.Context, st *scanState, out chan<- scanBatchMsg) {
	for {
		msg := scanBatch(st)
		select {
		case out <- msg:
		case <-ctx.Done():
			return
		}
		if msg.done || ctx.Err() != nil {
			return
		}
	}
}

func logStats(sess *Session) {
	st := sess.mon.Stats()
	current := "---"
	if st.CurrentResponse != nil {
		current = formatMs(*st.CurrentResponse)
	}
	logging.Infof("%s: %s current=%s avg=%s min=%s max=%s jitter=%s loss=%.1f%% pings=%d",
		sess.target, st.Quality, current, formatMs(st.AvgResponse), formatMs(st.MinResponse),
		formatMs(st.MaxResponse), formatMs(st.Jitter), st.PacketLossPct, st.TotalPings)
}

func logSpeedTest(rec *models.SpeedTestRecord) {
	if rec == nil {
		return
	}
	if rec.ErrorMessage != "" {
		logging.Warnf("Speed test failed: %s", rec.ErrorMessage)
		return
	}
	logging.Infof("Speed test: down %.2f Mbps, up %.2f Mbps, peak %.2f Mbps in %s",
		rec.DownloadMbps, rec.UploadMbps, rec.PeakMbps, rec.Duration.Round(100*time.Millisecond))
}

func formatMs(v float64) string {
	return time.Duration(v * float64(time.Millisecond)).Round(10 * time.Microsecond).String()
}
