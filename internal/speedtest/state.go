package speedtest

import "time"

// State is the speed test's position in Preparing → Downloading →
// Uploading → Complete, with Failed reachable from any stage. Complete and
// Failed are terminal.
type State interface{ isState() }

type Preparing struct{}

// SpeedSample is one instantaneous throughput reading.
type SpeedSample struct {
	At   time.Time
	Mbps float64
}

type Downloading struct {
	BytesReceived int64
	Samples       []SpeedSample
}

// DownloadResult carries the download figures into the upload stage.
type DownloadResult struct {
	Mbps  float64
	Avg   float64
	Peak  float64
	Bytes int64
}

type Uploading struct {
	BytesSent int64
	Download  DownloadResult
}

type Complete struct {
	DownloadMbps float64
	UploadMbps   float64
	TotalBytes   int64
	Duration     time.Duration
	AvgSpeed     float64
	PeakSpeed    float64
}

type Failed struct {
	Message string
}

func (Preparing) isState()   {}
func (Downloading) isState() {}
func (Uploading) isState()   {}
func (Complete) isState()    {}
func (Failed) isState()      {}

// Event is produced by the background transfer tasks.
type Event interface{ isEvent() }

type DownloadProgress struct {
	Bytes int64
	Mbps  float64
}

type DownloadComplete struct {
	Mbps  float64
	Avg   float64
	Peak  float64
	Bytes int64
}

type UploadProgress struct {
	Bytes int64
}

type UploadComplete struct {
	Mbps     float64
	Duration time.Duration
	Bytes    int64
}

type Failure struct {
	Message string
}

func (DownloadProgress) isEvent() {}
func (DownloadComplete) isEvent() {}
func (UploadProgress) isEvent()   {}
func (UploadComplete) isEvent()   {}
func (Failure) isEvent()          {}

// StageName is a short label for display.
func StageName(s State) string {
	switch s.(type) {
	case Preparing:
		return "Preparing"
	case Downloading:
		return "Downloading"
	case Uploading:
		return "Uploading"
	case Complete:
		return "Complete"
	case Failed:
		return "Error"
	default:
		return "Unknown"
	}
}

func bytesToMbps(bytes int64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(bytes) * 8 / d.Seconds() / 1_000_000
}
