package portscan

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"pingdash/internal/logging"
	"pingdash/internal/models"
	"pingdash/internal/ping"
)

const (
	BatchSize      = 5
	DefaultTimeout = 1500 * time.Millisecond
)

// Scanner walks the catalogue against one address, one batch per Update.
// It is driven by a single caller and is not safe for concurrent use.
type Scanner struct {
	addr    net.IP
	ports   []Port
	dialer  ping.ContextDialer
	timeout time.Duration

	cursor   int
	results  []models.PortResult
	complete bool
}

// Option customises a Scanner.
type Option func(*Scanner)

// WithDialer replaces the default net.Dialer.
func WithDialer(d ping.ContextDialer) Option {
	return func(s *Scanner) { s.dialer = d }
}

// WithTimeout sets the per-port connect timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Scanner) { s.timeout = d }
}

// WithPorts scans ports instead of the built-in catalogue.
func WithPorts(ports []Port) Option {
	return func(s *Scanner) { s.ports = ports }
}

// New creates a scanner that has not probed anything yet.
func New(addr net.IP, opts ...Option) *Scanner {
	s := &Scanner{
		addr:    addr,
		ports:   catalogue,
		dialer:  &net.Dialer{},
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.results = make([]models.PortResult, 0, len(s.ports))
	s.complete = len(s.ports) == 0
	return s
}

// Update probes the next batch and reports whether the scan is complete.
// Ports within a batch are probed concurrently; results keep catalogue
// order. Once complete, Update does nothing. If ctx ends mid-batch the
// batch is discarded and the cursor stays put.
func (s *Scanner) Update(ctx context.Context) bool {
	if s.complete {
		return true
	}

	end := min(s.cursor+BatchSize, len(s.ports))
	batch := s.ports[s.cursor:end]
	out := make([]models.PortResult, len(batch))

	var wg sync.WaitGroup
	for i, p := range batch {
		wg.Add(1)
		go func(i int, p Port) {
			defer wg.Done()
			out[i] = models.PortResult{
				Port:    p.Number,
				Status:  s.probe(ctx, p.Number),
				Service: p.Service,
			}
		}(i, p)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		logging.Debugf("Port scan batch at %d abandoned: %v", s.cursor, err)
		return false
	}

	s.results = append(s.results, out...)
	s.cursor = end
	if s.cursor >= len(s.ports) {
		s.complete = true
		logging.Infof("Port scan of %s complete: %d ports", s.addr, len(s.results))
	}
	return s.complete
}

func (s *Scanner) probe(ctx context.Context, port int) models.PortStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conn, err := s.dialer.DialContext(ctx, "tcp", net.JoinHostPort(s.addr.String(), strconv.Itoa(port)))
	if err == nil {
		conn.Close()
		return models.PortOpen
	}
	if ping.IsTimeout(err) {
		return models.PortFiltered
	}
	logging.Tracef("Port %d closed: %v", port, err)
	return models.PortClosed
}

// Results returns the ports scanned so far in catalogue order.
func (s *Scanner) Results() []models.PortResult {
	out := make([]models.PortResult, len(s.results))
	copy(out, s.results)
	return out
}

// Progress returns how many ports have been scanned out of the total.
func (s *Scanner) Progress() (scanned, total int) {
	return s.cursor, len(s.ports)
}

func (s *Scanner) IsComplete() bool { return s.complete }

func (s *Scanner) Target() net.IP { return s.addr }

// Summary tallies the results by status.
type Summary struct {
	Open, Closed, Filtered int
}

// Summarize tallies results by status.
func Summarize(results []models.PortResult) Summary {
	var sum Summary
	for _, r := range results {
		switch r.Status {
		case models.PortOpen:
			sum.Open++
		case models.PortClosed:
			sum.Closed++
		case models.PortFiltered:
			sum.Filtered++
		}
	}
	return sum
}
