package speedtest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestForProvider(t *testing.T) {
	opts, err := ForProvider("cloudflare")
	if err != nil || opts.DownloadURL != DefaultDownloadURL || opts.UploadURL != DefaultUploadURL {
		t.Errorf("cloudflare = %+v, %v", opts, err)
	}

	opts, err = ForProvider("ookla")
	if err == nil {
		t.Error("unknown provider should return an error")
	}
	if opts.DownloadURL != DefaultDownloadURL {
		t.Errorf("unknown provider fallback = %+v", opts)
	}
}

func newTestServer(t *testing.T, downloadStatus, uploadStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/__down", func(w http.ResponseWriter, r *http.Request) {
		if downloadStatus != http.StatusOK {
			w.WriteHeader(downloadStatus)
			return
		}
		w.Write(make([]byte, 256*1024))
	})
	mux.HandleFunc("/__up", func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		w.WriteHeader(uploadStatus)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func runUntilDone(t *testing.T, st *SpeedTest) State {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !st.Update() {
		if time.Now().After(deadline) {
			t.Fatalf("speed test did not finish, state %T", st.State())
		}
		time.Sleep(5 * time.Millisecond)
	}
	return st.State()
}

func TestFirstUpdateStartsDownload(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, http.StatusOK)
	st := New(Options{DownloadURL: srv.URL + "/__down", UploadURL: srv.URL + "/__up", UploadSize: 1024})
	defer st.Close()

	if _, ok := st.State().(Preparing); !ok {
		t.Fatalf("initial state = %T, want Preparing", st.State())
	}
	if st.Update() {
		t.Fatal("first Update must not report completion")
	}
	if _, ok := st.State().(Downloading); !ok {
		t.Fatalf("state = %T, want Downloading", st.State())
	}
}

func TestFullRun(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, http.StatusOK)
	st := New(Options{DownloadURL: srv.URL + "/__down", UploadURL: srv.URL + "/__up", UploadSize: 64 * 1024})
	defer st.Close()

	final := runUntilDone(t, st)
	c, ok := final.(Complete)
	if !ok {
		t.Fatalf("final state = %#v, want Complete", final)
	}
	if c.DownloadMbps <= 0 || c.UploadMbps <= 0 {
		t.Errorf("expected positive throughput, got %+v", c)
	}
	if c.TotalBytes != 256*1024+64*1024 {
		t.Errorf("total bytes = %d", c.TotalBytes)
	}
	if !st.IsComplete() || !st.Update() {
		t.Error("terminal state must stay complete")
	}
}

func TestDownloadHTTPErrorFails(t *testing.T) {
	srv := newTestServer(t, http.StatusServiceUnavailable, http.StatusOK)
	st := New(Options{DownloadURL: srv.URL + "/__down", UploadURL: srv.URL + "/__up"})
	defer st.Close()

	final := runUntilDone(t, st)
	f, ok := final.(Failed)
	if !ok {
		t.Fatalf("final state = %#v, want Failed", final)
	}
	if !strings.Contains(f.Message, "503") {
		t.Errorf("message = %q, want HTTP status", f.Message)
	}
}

func TestUploadHTTPErrorFails(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, http.StatusForbidden)
	st := New(Options{DownloadURL: srv.URL + "/__down", UploadURL: srv.URL + "/__up", UploadSize: 1024})
	defer st.Close()

	if _, ok := runUntilDone(t, st).(Failed); !ok {
		t.Fatalf("final state = %#v, want Failed", st.State())
	}
}

func TestUnreachableServerFails(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	st := New(Options{DownloadURL: url + "/__down", UploadURL: url + "/__up"})
	defer st.Close()

	if _, ok := runUntilDone(t, st).(Failed); !ok {
		t.Fatalf("final state = %#v, want Failed", st.State())
	}
}

// The transitions below are driven directly so no background task runs.
func newIdle(state State) *SpeedTest {
	st := New(Options{})
	st.state = state
	return st
}

func TestDownloadProgressUpdatesState(t *testing.T) {
	st := newIdle(Downloading{})
	st.apply(DownloadProgress{Bytes: 1000, Mbps: 12.5})
	st.apply(DownloadProgress{Bytes: 3000, Mbps: 20})

	d := st.State().(Downloading)
	if d.BytesReceived != 3000 || len(d.Samples) != 2 || d.Samples[1].Mbps != 20 {
		t.Errorf("state = %+v", d)
	}
}

func TestDownloadCompleteCarriesFigures(t *testing.T) {
	st := newIdle(Downloading{BytesReceived: 10})
	st.cancel()
	st.apply(DownloadComplete{Mbps: 95, Avg: 90, Peak: 120, Bytes: 500})

	u, ok := st.State().(Uploading)
	if !ok {
		t.Fatalf("state = %T, want Uploading", st.State())
	}
	want := DownloadResult{Mbps: 95, Avg: 90, Peak: 120, Bytes: 500}
	if u.Download != want || u.BytesSent != 0 {
		t.Errorf("uploading = %+v, want download %+v", u, want)
	}
	st.Close()
}

func TestUploadCompleteMerges(t *testing.T) {
	st := newIdle(Uploading{Download: DownloadResult{Mbps: 95, Avg: 90, Peak: 120, Bytes: 500}})
	st.apply(UploadProgress{Bytes: 42})
	if st.State().(Uploading).BytesSent != 42 {
		t.Fatal("upload progress not applied")
	}
	st.apply(UploadComplete{Mbps: 30, Duration: 1500 * time.Millisecond, Bytes: 100})

	c, ok := st.State().(Complete)
	if !ok {
		t.Fatalf("state = %T, want Complete", st.State())
	}
	if c.DownloadMbps != 95 || c.UploadMbps != 30 || c.AvgSpeed != 90 || c.PeakSpeed != 120 || c.TotalBytes != 600 {
		t.Errorf("complete = %+v", c)
	}
	if c.Duration != 1500*time.Millisecond {
		t.Errorf("duration = %v, want the upload duration", c.Duration)
	}
}

func TestFailureIsTerminal(t *testing.T) {
	for _, start := range []State{Downloading{}, Uploading{}} {
		st := newIdle(start)
		st.events <- Failure{Message: "boom"}
		st.events <- DownloadComplete{Mbps: 1}
		if !st.Update() {
			t.Fatalf("%T: Update should report completion after failure", start)
		}
		if f, ok := st.State().(Failed); !ok || f.Message != "boom" {
			t.Fatalf("%T: state = %#v", start, st.State())
		}
		if !st.Update() {
			t.Error("Update on terminal state must return true")
		}
		if _, ok := st.State().(Failed); !ok {
			t.Errorf("%T: event after failure changed state to %T", start, st.State())
		}
	}
}

func TestStageName(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Preparing{}, "Preparing"},
		{Downloading{}, "Downloading"},
		{Uploading{}, "Uploading"},
		{Complete{}, "Complete"},
		{Failed{}, "Error"},
	}
	for _, tt := range tests {
		if got := StageName(tt.state); got != tt.want {
			t.Errorf("StageName(%T) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestBytesToMbps(t *testing.T) {
	if got := bytesToMbps(1_250_000, time.Second); got != 10 {
		t.Errorf("bytesToMbps = %v, want 10", got)
	}
	if got := bytesToMbps(100, 0); got != 0 {
		t.Errorf("zero duration = %v, want 0", got)
	}
}
