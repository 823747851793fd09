package speedtest

import (
	"bytes"
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"pingdash/internal/logging"
)

func (st *SpeedTest) runDownload(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, st.opts.DownloadURL, nil)
	if err != nil {
		st.emit(ctx, Failure{Message: fmt.Sprintf("Failed to create request: %v", err)})
		return
	}

	start := time.Now()
	resp, err := st.client.Do(req)
	if err != nil {
		st.emit(ctx, Failure{Message: fmt.Sprintf("Network error: %v", err)})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		st.emit(ctx, Failure{Message: fmt.Sprintf("HTTP error: %s", resp.Status)})
		return
	}

	var total int64
	var peak float64
	lastUpdate := time.Now()
	buf := make([]byte, chunkSize)
	for {
		n, err := resp.Body.Read(buf)
		total += int64(n)

		if time.Since(lastUpdate) >= progressInterval {
			current := bytesToMbps(total, time.Since(start))
			peak = max(peak, current)
			st.emit(ctx, DownloadProgress{Bytes: total, Mbps: current})
			lastUpdate = time.Now()
		}

		if err != nil {
			if !errors.Is(err, io.EOF) {
				st.emit(ctx, Failure{Message: fmt.Sprintf("Read error: %v", err)})
				return
			}
			break
		}
	}

	elapsed := time.Since(start)
	avg := bytesToMbps(total, elapsed)
	logging.Infof("Download finished: %d bytes in %v", total, elapsed)
	st.emit(ctx, DownloadComplete{Mbps: avg, Avg: avg, Peak: peak, Bytes: total})
}

func (st *SpeedTest) runUpload(ctx context.Context) {
	payload := make([]byte, st.opts.UploadSize)
	if _, err := rand.Read(payload); err != nil {
		st.emit(ctx, Failure{Message: fmt.Sprintf("Failed to generate payload: %v", err)})
		return
	}

	body := &countingReader{r: bytes.NewReader(payload)}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, st.opts.UploadURL, body)
	if err != nil {
		st.emit(ctx, Failure{Message: fmt.Sprintf("Failed to create request: %v", err)})
		return
	}
	req.ContentLength = int64(len(payload))
	req.Header.Set("Content-Type", "application/octet-stream")

	st.emit(ctx, UploadProgress{Bytes: 0})

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(progressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				st.emit(ctx, UploadProgress{Bytes: body.count()})
			}
		}
	}()

	start := time.Now()
	resp, err := st.client.Do(req)
	close(done)
	if err != nil {
		st.emit(ctx, Failure{Message: fmt.Sprintf("Network error: %v", err)})
		return
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		st.emit(ctx, Failure{Message: fmt.Sprintf("HTTP error: %s", resp.Status)})
		return
	}

	duration := time.Since(start)
	sent := int64(len(payload))
	st.emit(ctx, UploadComplete{Mbps: bytesToMbps(sent, duration), Duration: duration, Bytes: sent})
}

type countingReader struct {
	r io.Reader
	n atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

func (c *countingReader) count() int64 { return c.n.Load() }
