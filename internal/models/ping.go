package models

import (
	"fmt"
	"time"
)

// PingResult is one message produced by the background sampler.
// Implementations: Success, Timeout, WebCheck.
type PingResult interface {
	isPingResult()
}

// Success is a completed echo probe.
type Success struct {
	RTTMs float64
}

// Timeout is an echo probe that got no reply in time.
type Timeout struct{}

// WebCheck is the outcome of a TCP connect probe to port 80 or 443.
type WebCheck struct {
	Port   int
	Status WebCheckStatus
}

func (Success) isPingResult()  {}
func (Timeout) isPingResult()  {}
func (WebCheck) isPingResult() {}

// WebCheckKind enumerates the web-check outcomes.
type WebCheckKind int

const (
	WebUntested WebCheckKind = iota
	WebSuccess
	WebTimeout
	WebConnectionRefused
	WebError
)

// WebCheckStatus is the latest result for one monitored port.
// Ms is set for WebSuccess, Message for WebError.
type WebCheckStatus struct {
	Kind    WebCheckKind `json:"kind"`
	Ms      float64      `json:"ms,omitempty"`
	Message string       `json:"message,omitempty"`
}

func WebCheckSuccess(ms float64) WebCheckStatus {
	return WebCheckStatus{Kind: WebSuccess, Ms: ms}
}

func WebCheckError(msg string) WebCheckStatus {
	return WebCheckStatus{Kind: WebError, Message: msg}
}

func (s WebCheckStatus) String() string {
	switch s.Kind {
	case WebSuccess:
		return fmt.Sprintf("OK %.1fms", s.Ms)
	case WebTimeout:
		return "Timeout"
	case WebConnectionRefused:
		return "Refused"
	case WebError:
		return "Error: " + s.Message
	default:
		return "Untested"
	}
}

// LatencySample is one entry of the monitor history. Lost marks a timeout,
// in which case RTTMs is meaningless.
type LatencySample struct {
	RTTMs float64 `json:"rtt_ms"`
	Lost  bool    `json:"lost"`
}

// PingRecord is a single ping measurement as persisted by the recorder.
type PingRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Target       string    `json:"target"`
	Success      bool      `json:"success"`
	RTT          float64   `json:"rtt_ms"` // milliseconds
	ErrorMessage string    `json:"error_message"`
}

// NewPingRecord converts a sampler result into a persistable record.
// Web-check results are not persisted and return ok == false.
func NewPingRecord(target string, at time.Time, r PingResult) (PingRecord, bool) {
	rec := PingRecord{Timestamp: at, Target: target}
	switch v := r.(type) {
	case Success:
		rec.Success = true
		rec.RTT = v.RTTMs
	case Timeout:
		rec.ErrorMessage = "Timeout"
	default:
		return PingRecord{}, false
	}
	return rec, true
}
