package speedtest

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"pingdash/internal/logging"
)

const (
	DefaultDownloadURL = "https://speed.cloudflare.com/__down?bytes=25000000"
	DefaultUploadURL   = "https://speed.cloudflare.com/__up"
	DefaultUploadSize  = 10 * 1024 * 1024
	DefaultTimeout     = 60 * time.Second

	progressInterval = 100 * time.Millisecond
	eventBuffer      = 100
	chunkSize        = 32 * 1024
)

var providers = map[string]Options{
	"cloudflare": {DownloadURL: DefaultDownloadURL, UploadURL: DefaultUploadURL},
}

// ForProvider returns the endpoints of a named provider. An unknown name
// returns the Cloudflare endpoints along with an error.
func ForProvider(name string) (Options, error) {
	if opts, ok := providers[name]; ok {
		return opts, nil
	}
	return providers["cloudflare"], fmt.Errorf("unknown speed test provider %q", name)
}

// Options configures a SpeedTest. Zero values select defaults.
type Options struct {
	DownloadURL string
	UploadURL   string
	UploadSize  int
	Client      *http.Client
}

// SpeedTest runs a download then an upload in background goroutines and
// exposes their progress as a state machine advanced by Update.
type SpeedTest struct {
	opts   Options
	client *http.Client

	state State

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a speed test in the Preparing state. No network activity
// happens until the first Update.
func New(opts Options) *SpeedTest {
	if opts.DownloadURL == "" {
		opts.DownloadURL = DefaultDownloadURL
	}
	if opts.UploadURL == "" {
		opts.UploadURL = DefaultUploadURL
	}
	if opts.UploadSize <= 0 {
		opts.UploadSize = DefaultUploadSize
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SpeedTest{
		opts:   opts,
		client: client,
		state:  Preparing{},
		events: make(chan Event, eventBuffer),
		ctx:    ctx,
		cancel: cancel,
	}
}

// State returns the current state.
func (st *SpeedTest) State() State { return st.state }

// IsComplete reports whether the test reached Complete or Failed.
func (st *SpeedTest) IsComplete() bool {
	switch st.state.(type) {
	case Complete, Failed:
		return true
	}
	return false
}

// Update advances the state machine without blocking and reports whether
// the test has finished.
func (st *SpeedTest) Update() bool {
	if st.IsComplete() {
		return true
	}
	if _, ok := st.state.(Preparing); ok {
		logging.Debugf("Starting speed test download from %s", st.opts.DownloadURL)
		st.state = Downloading{}
		st.spawn(st.runDownload)
		return false
	}

	for {
		select {
		case ev := <-st.events:
			st.apply(ev)
			if st.IsComplete() {
				return true
			}
		default:
			return false
		}
	}
}

func (st *SpeedTest) apply(ev Event) {
	logging.Tracef("Speed test event: %#v", ev)
	switch e := ev.(type) {
	case DownloadProgress:
		if d, ok := st.state.(Downloading); ok {
			d.BytesReceived = e.Bytes
			d.Samples = append(d.Samples, SpeedSample{At: time.Now(), Mbps: e.Mbps})
			st.state = d
		}
	case DownloadComplete:
		if _, ok := st.state.(Downloading); ok {
			logging.Infof("Download complete: avg=%.2f Mbps, peak=%.2f Mbps", e.Avg, e.Peak)
			st.state = Uploading{Download: DownloadResult{Mbps: e.Mbps, Avg: e.Avg, Peak: e.Peak, Bytes: e.Bytes}}
			st.spawn(st.runUpload)
		}
	case UploadProgress:
		if u, ok := st.state.(Uploading); ok {
			u.BytesSent = e.Bytes
			st.state = u
		}
	case UploadComplete:
		if u, ok := st.state.(Uploading); ok {
			logging.Infof("Upload complete: %.2f Mbps in %v", e.Mbps, e.Duration)
			st.state = Complete{
				DownloadMbps: u.Download.Mbps,
				UploadMbps:   e.Mbps,
				TotalBytes:   u.Download.Bytes + e.Bytes,
				Duration:     e.Duration,
				AvgSpeed:     u.Download.Avg,
				PeakSpeed:    u.Download.Peak,
			}
		}
	case Failure:
		logging.Errorf("Speed test failure: %s", e.Message)
		st.state = Failed{Message: e.Message}
	}
}

func (st *SpeedTest) spawn(task func(context.Context)) {
	st.wg.Add(1)
	go func() {
		defer st.wg.Done()
		task(st.ctx)
	}()
}

// emit delivers ev unless the test has been closed, in which case it is
// dropped.
func (st *SpeedTest) emit(ctx context.Context, ev Event) {
	select {
	case st.events <- ev:
	case <-ctx.Done():
	}
}

// Close abandons the test: in-flight transfers are cancelled and any
// further events are discarded. It waits for the tasks to return.
func (st *SpeedTest) Close() {
	st.cancel()
	st.wg.Wait()
}
