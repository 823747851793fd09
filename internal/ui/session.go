package ui

import (
	"context"
	"time"

	"pingdash/internal/config"
	"pingdash/internal/logging"
	"pingdash/internal/models"
	"pingdash/internal/monitor"
	"pingdash/internal/portscan"
	"pingdash/internal/recorder"
	"pingdash/internal/report"
	"pingdash/internal/speedtest"
	"pingdash/internal/web"
)

// Sampler is the part of the background sampler a session drives.
type Sampler interface {
	Results() <-chan models.PingResult
	Send(cmd monitor.Command) bool
}

// Publisher receives the live status after every tick.
type Publisher interface {
	Publish(status web.LiveStatus)
}

// SessionOptions wires a session to its collaborators. Recorder, Live and
// Reports may be nil.
type SessionOptions struct {
	Target    string
	Config    *config.Config
	Monitor   *monitor.PingMonitor
	Sampler   Sampler
	Recorder  *recorder.Recorder
	Live      Publisher
	Reports   *report.Generator
	ReportDir string

	SpeedTest speedtest.Options
	Scan      []portscan.Option

	Recent   []config.TargetEntry
	Location string
	WebCheck bool
}

// Session is the host-side state of one monitoring run. It owns the ping
// monitor, the speed test and the port scan, and is only touched from the
// host loop.
type Session struct {
	target    string
	cfg       *config.Config
	mon       *monitor.PingMonitor
	sampler   Sampler
	rec       *recorder.Recorder
	live      Publisher
	reports   *report.Generator
	reportDir string

	speedOpts   speedtest.Options
	speed       *speedtest.SpeedTest
	speedPaused bool
	speedDone   bool
	lastSpeed   *models.SpeedTestRecord

	scanOpts  []portscan.Option
	scan      *scanState
	lastPorts []models.PortResult

	recent   []config.TargetEntry
	location string

	webCheck         bool
	showJitter       bool
	showHistory      bool
	showSettings     bool
	showDiagnostics  bool
	settingsSelected int

	status  string
	started time.Time
	now     func() time.Time
}

// scanState is one port scan. The scanner itself is only touched by the
// batch command in flight; the host keeps the snapshot it last received.
type scanState struct {
	scanner *portscan.Scanner
	ctx     context.Context
	cancel  context.CancelFunc

	results []models.PortResult
	scanned int
	total   int
	done    bool
}

// scanBatchMsg carries the outcome of one scanner.Update.
type scanBatchMsg struct {
	scan    *scanState
	results []models.PortResult
	scanned int
	total   int
	done    bool
}

// scanBatch runs one batch. It must not be called concurrently for the
// same scan.
func scanBatch(st *scanState) scanBatchMsg {
	done := st.scanner.Update(st.ctx)
	scanned, total := st.scanner.Progress()
	return scanBatchMsg{
		scan:    st,
		results: st.scanner.Results(),
		scanned: scanned,
		total:   total,
		done:    done,
	}
}

func NewSession(opts SessionOptions) *Session {
	cfg := opts.Config
	if cfg == nil {
		c := config.Default()
		cfg = &c
	}
	return &Session{
		target:      opts.Target,
		cfg:         cfg,
		mon:         opts.Monitor,
		sampler:     opts.Sampler,
		rec:         opts.Recorder,
		live:        opts.Live,
		reports:     opts.Reports,
		reportDir:   opts.ReportDir,
		speedOpts:   opts.SpeedTest,
		scanOpts:    opts.Scan,
		recent:      opts.Recent,
		location:    opts.Location,
		webCheck:    opts.WebCheck,
		showJitter:  cfg.ShowJitterPanel,
		showHistory: cfg.ShowHistoryPanel,
		started:     time.Now(),
		now:         time.Now,
	}
}

func (s *Session) Target() string                { return s.target }
func (s *Session) Config() *config.Config        { return s.cfg }
func (s *Session) Monitor() *monitor.PingMonitor { return s.mon }
func (s *Session) Runtime() time.Duration        { return s.now().Sub(s.started) }

// Tick drains every pending sampler result without blocking and advances
// the speed test. It returns the number of results processed.
func (s *Session) Tick() int {
	now := s.now()
	n := 0
drain:
	for {
		select {
		case r := <-s.sampler.Results():
			n++
			s.rec.RecordPing(now, r)
			s.mon.ProcessResult(r)
		default:
			break drain
		}
	}
	if n > 0 {
		logging.Tracef("Processed %d ping results", n)
	}

	if s.speed != nil && !s.speedDone && s.speed.Update() {
		s.finishSpeedTest(now)
	}

	if s.live != nil {
		s.live.Publish(web.LiveStatus{
			Target:    s.target,
			Address:   s.mon.Target().String(),
			UpdatedAt: now,
			Stats:     s.mon.Stats(),
		})
	}
	return n
}

func (s *Session) panelOpen() bool { return s.speed != nil || s.scan != nil }

// StartSpeedTest opens the speed test panel. It reports false when a
// panel is already open.
func (s *Session) StartSpeedTest() bool {
	if s.panelOpen() {
		return false
	}
	logging.Infof("Starting speed test for %s", s.target)
	s.speed = speedtest.New(s.speedOpts)
	s.speedDone = false
	if s.cfg.PausePingDuringSpeedtest {
		s.speedPaused = s.sampler.Send(monitor.SetPaused{Paused: true})
	}
	return true
}

func (s *Session) finishSpeedTest(now time.Time) {
	s.speedDone = true
	s.resumePing()

	rec := models.SpeedTestRecord{Timestamp: now, Target: s.target}
	switch st := s.speed.State().(type) {
	case speedtest.Complete:
		rec.DownloadMbps = st.DownloadMbps
		rec.UploadMbps = st.UploadMbps
		rec.PeakMbps = st.PeakSpeed
		rec.Duration = st.Duration
		logging.Infof("Speed test complete: down %.2f Mbps, up %.2f Mbps", st.DownloadMbps, st.UploadMbps)
	case speedtest.Failed:
		rec.ErrorMessage = st.Message
		logging.Warnf("Speed test failed: %s", st.Message)
	}
	s.lastSpeed = &rec
	s.rec.RecordSpeedTest(rec)
}

func (s *Session) resumePing() {
	if s.speedPaused {
		s.sampler.Send(monitor.SetPaused{Paused: false})
		s.speedPaused = false
	}
}

// StartPortScan opens the port scan panel and returns the scan whose first
// batch the caller must run. It returns nil when a panel is already open.
func (s *Session) StartPortScan(ctx context.Context) *scanState {
	if s.panelOpen() {
		return nil
	}
	logging.Infof("Starting port scan for %s", s.target)
	scanner := portscan.New(s.mon.Target(), s.scanOpts...)
	scanned, total := scanner.Progress()
	st := &scanState{scanner: scanner, scanned: scanned, total: total}
	st.ctx, st.cancel = context.WithCancel(ctx)
	s.scan = st
	return st
}

// ApplyScanBatch stores a batch snapshot and reports whether another batch
// should run. Batches from a closed scan are ignored.
func (s *Session) ApplyScanBatch(msg scanBatchMsg) bool {
	if msg.scan == nil || msg.scan != s.scan {
		return false
	}
	st := s.scan
	st.results = msg.results
	st.scanned = msg.scanned
	st.total = msg.total
	st.done = msg.done
	if st.done {
		st.cancel()
		s.lastPorts = st.results
		s.rec.RecordPortScan(s.now(), st.results)
		return false
	}
	return true
}

// ClosePanel closes the speed test panel, or the port scan panel when no
// speed test is shown.
func (s *Session) ClosePanel() {
	switch {
	case s.speed != nil:
		s.speed.Close()
		s.speed = nil
		s.resumePing()
	case s.scan != nil:
		s.scan.cancel()
		s.scan = nil
	}
}

func (s *Session) ToggleWebCheck() {
	s.webCheck = !s.webCheck
	s.sampler.Send(monitor.ToggleWebCheck{Enabled: s.webCheck})
}

func (s *Session) ToggleJitter() {
	s.showJitter = !s.showJitter
	s.cfg.ShowJitterPanel = s.showJitter
}

func (s *Session) ToggleHistory() {
	s.showHistory = !s.showHistory
	s.cfg.ShowHistoryPanel = s.showHistory
}

func (s *Session) Reset() {
	logging.Infof("Resetting statistics for %s", s.target)
	s.mon.Reset()
	s.started = s.now()
}

// AdjustHistory resizes the latency window by delta samples.
func (s *Session) AdjustHistory(delta int) {
	n := s.cfg.AdjustHistory(delta)
	s.mon.SetMaxHistory(n)
}

// AdjustInterval changes the ping interval by delta milliseconds.
func (s *Session) AdjustInterval(delta int) {
	ms := s.cfg.AdjustInterval(delta)
	s.sampler.Send(monitor.SetInterval{Interval: time.Duration(ms) * time.Millisecond})
}

// Snapshot captures what a report needs.
func (s *Session) Snapshot() report.Snapshot {
	snap := report.Snapshot{
		Target:    s.target,
		Address:   s.mon.Target().String(),
		Generated: s.now(),
		Interval:  s.cfg.Interval(),
		Stats:     s.mon.Stats(),
		Latency:   s.mon.LatencyData(),
		SpeedTest: s.lastSpeed,
		Ports:     s.lastPorts,
	}
	if s.scan != nil && !s.scan.done {
		snap.Ports = s.scan.results
	}
	return snap
}

// Close releases the speed test and any scan in progress.
func (s *Session) Close() {
	if s.speed != nil {
		s.speed.Close()
		s.speed = nil
	}
	if s.scan != nil {
		s.scan.cancel()
		s.scan = nil
	}
	s.resumePing()
}

func (s *Session) setStatus(msg string) { s.status = msg }
