package models

// PortStatus classifies a single TCP connect attempt.
type PortStatus int

const (
	PortOpen PortStatus = iota
	PortClosed
	// PortFiltered means the connect attempt timed out.
	PortFiltered
)

func (s PortStatus) String() string {
	switch s {
	case PortOpen:
		return "open"
	case PortClosed:
		return "closed"
	case PortFiltered:
		return "filtered"
	default:
		return "unknown"
	}
}

// PortResult is appended once per scanned port and never mutated.
type PortResult struct {
	Port    int        `json:"port"`
	Status  PortStatus `json:"status"`
	Service string     `json:"service,omitempty"`
}
