package recorder

import (
	"context"
	"sync"
	"time"

	"pingdash/internal/logging"
	"pingdash/internal/models"
)

const (
	queueSize            = 256
	flushInterval        = time.Second
	maintenanceEvery     = time.Hour
	defaultRetentionDays = 7
)

// item is one unit of work for the writer goroutine; exactly one field is
// set.
type item struct {
	ping  *models.PingRecord
	speed *models.SpeedTestRecord
	scan  []models.PortScanRecord
}

// Options configures a Recorder. Either sink may be nil.
type Options struct {
	CSV           *CSVLog
	Store         models.Store
	RetentionDays int
}

// Recorder persists results off the caller's goroutine. Record* calls never
// block: when the queue is full the record is dropped and logged.
type Recorder struct {
	target string
	csv    *CSVLog
	store  models.Store
	retain int

	queue  chan item
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// New creates a recorder for target. Call Start before recording.
func New(target string, opts Options) *Recorder {
	if opts.RetentionDays <= 0 {
		opts.RetentionDays = defaultRetentionDays
	}
	return &Recorder{
		target: target,
		csv:    opts.CSV,
		store:  opts.Store,
		retain: opts.RetentionDays,
		queue:  make(chan item, queueSize),
	}
}

// Enabled reports whether any sink is configured.
func (r *Recorder) Enabled() bool {
	return r != nil && (r.csv != nil || r.store != nil)
}

// Start launches the writer and, with a store, the maintenance worker.
func (r *Recorder) Start(ctx context.Context) {
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.processResults()
	if r.store != nil {
		r.wg.Add(1)
		go r.maintenanceWorker()
	}
}

// RecordPing queues a sampler result. Web checks are skipped.
func (r *Recorder) RecordPing(at time.Time, result models.PingResult) {
	if !r.Enabled() {
		return
	}
	rec, ok := models.NewPingRecord(r.target, at, result)
	if !ok {
		return
	}
	r.enqueue(item{ping: &rec})
}

func (r *Recorder) RecordSpeedTest(rec models.SpeedTestRecord) {
	if r.Enabled() {
		rec.Target = r.target
		r.enqueue(item{speed: &rec})
	}
}

func (r *Recorder) RecordPortScan(at time.Time, results []models.PortResult) {
	if !r.Enabled() || len(results) == 0 {
		return
	}
	recs := make([]models.PortScanRecord, len(results))
	for i, p := range results {
		recs[i] = models.PortScanRecord{
			Timestamp: at,
			Target:    r.target,
			Port:      p.Port,
			Status:    p.Status.String(),
			Service:   p.Service,
		}
	}
	r.enqueue(item{scan: recs})
}

func (r *Recorder) enqueue(it item) {
	select {
	case r.queue <- it:
	default:
		logging.Warnf("Recorder queue full, dropping result for %s", r.target)
	}
}

// Stop flushes queued records and closes the sinks.
func (r *Recorder) Stop() {
	r.once.Do(func() {
		if r.cancel != nil {
			r.cancel()
			r.wg.Wait()
		}
		if r.csv != nil {
			if err := r.csv.Close(); err != nil {
				logging.Errorf("Failed to close CSV log: %v", err)
			}
		}
	})
}

// processResults writes queued records until the context ends, then drains
// what is left.
func (r *Recorder) processResults() {
	defer r.wg.Done()

	ticker := time.NewTicker(flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			for {
				select {
				case it := <-r.queue:
					r.write(it)
				default:
					r.flush()
					return
				}
			}
		case it := <-r.queue:
			r.write(it)
		case <-ticker.C:
			r.flush()
		}
	}
}

func (r *Recorder) write(it item) {
	switch {
	case it.ping != nil:
		if r.csv != nil {
			if err := r.csv.Write(*it.ping); err != nil {
				logging.Errorf("Failed to write to CSV log: %v", err)
			}
		}
		if r.store != nil {
			if err := r.store.SaveResult(*it.ping); err != nil {
				logging.Errorf("Failed to save result: %v", err)
			}
		}
	case it.speed != nil:
		if r.store != nil {
			if err := r.store.SaveSpeedTest(*it.speed); err != nil {
				logging.Errorf("Failed to save speed test: %v", err)
			}
		}
	case it.scan != nil:
		if r.store != nil {
			if err := r.store.SavePortScan(it.scan); err != nil {
				logging.Errorf("Failed to save port scan: %v", err)
			}
		}
	}
}

func (r *Recorder) flush() {
	if r.csv == nil {
		return
	}
	if err := r.csv.Flush(); err != nil {
		logging.Errorf("Failed to flush CSV log: %v", err)
	}
}
