package portscan

import (
	"context"
	"net"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"pingdash/internal/models"
)

// scriptedDialer answers per port: open ports connect over a pipe, timeout
// ports return a deadline error, everything else is refused.
type scriptedDialer struct {
	open    map[int]bool
	timeout map[int]bool

	mu    sync.Mutex
	dials map[int]int
}

func (d *scriptedDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	_, portStr, _ := net.SplitHostPort(address)
	port, _ := strconv.Atoi(portStr)

	d.mu.Lock()
	if d.dials == nil {
		d.dials = map[int]int{}
	}
	d.dials[port]++
	d.mu.Unlock()

	switch {
	case d.open[port]:
		client, server := net.Pipe()
		server.Close()
		return client, nil
	case d.timeout[port]:
		return nil, context.DeadlineExceeded
	default:
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	}
}

func TestCatalogue(t *testing.T) {
	ports := Catalogue()
	if len(ports) != 27 {
		t.Fatalf("catalogue has %d ports, want 27", len(ports))
	}
	if ports[0].Number != 21 || ports[26].Number != 27017 {
		t.Errorf("unexpected catalogue bounds: %v .. %v", ports[0], ports[26])
	}
	seen := map[int]bool{}
	for _, p := range ports {
		if seen[p.Number] {
			t.Errorf("duplicate port %d", p.Number)
		}
		seen[p.Number] = true
		if p.Service == "" {
			t.Errorf("port %d has no service name", p.Number)
		}
	}

	ports[0].Number = 1
	if Catalogue()[0].Number != 21 {
		t.Error("Catalogue must return a copy")
	}
}

func TestScanCompletesInBatches(t *testing.T) {
	dialer := &scriptedDialer{
		open:    map[int]bool{22: true, 443: true},
		timeout: map[int]bool{3389: true},
	}
	s := New(net.ParseIP("192.0.2.1"), WithDialer(dialer))
	ctx := context.Background()

	updates := 0
	for !s.IsComplete() {
		done := s.Update(ctx)
		updates++
		scanned, total := s.Progress()
		if scanned > total {
			t.Fatalf("scanned %d > total %d", scanned, total)
		}
		if done != s.IsComplete() {
			t.Fatalf("Update returned %v but IsComplete is %v", done, s.IsComplete())
		}
		if updates > 10 {
			t.Fatal("scan did not terminate")
		}
	}
	if updates != 6 {
		t.Errorf("took %d updates, want 6", updates)
	}

	results := s.Results()
	if len(results) != 27 {
		t.Fatalf("got %d results, want 27", len(results))
	}
	for i, p := range Catalogue() {
		if results[i].Port != p.Number {
			t.Errorf("result %d is port %d, want %d", i, results[i].Port, p.Number)
		}
	}
	for port, n := range dialer.dials {
		if n != 1 {
			t.Errorf("port %d dialed %d times", port, n)
		}
	}

	want := map[int]models.PortStatus{22: models.PortOpen, 443: models.PortOpen, 3389: models.PortFiltered, 80: models.PortClosed}
	for _, r := range results {
		if status, ok := want[r.Port]; ok && r.Status != status {
			t.Errorf("port %d status = %v, want %v", r.Port, r.Status, status)
		}
	}

	sum := Summarize(results)
	if sum.Open != 2 || sum.Filtered != 1 || sum.Closed != 24 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestUpdateAfterCompleteIsNoop(t *testing.T) {
	dialer := &scriptedDialer{}
	s := New(net.ParseIP("192.0.2.1"), WithDialer(dialer), WithPorts([]Port{{80, "HTTP"}, {443, "HTTPS"}}))

	if !s.Update(context.Background()) {
		t.Fatal("two ports should complete in one update")
	}
	before := s.Results()
	if !s.Update(context.Background()) {
		t.Fatal("Update after completion must return true")
	}
	if after := s.Results(); len(after) != len(before) {
		t.Errorf("results changed after completion: %d -> %d", len(before), len(after))
	}
	if dialer.dials[80] != 1 {
		t.Errorf("port 80 dialed %d times", dialer.dials[80])
	}
}

func TestEmptyScannerIsComplete(t *testing.T) {
	s := New(net.ParseIP("192.0.2.1"), WithPorts(nil))
	if !s.IsComplete() || !s.Update(context.Background()) {
		t.Error("scanner with no ports should be complete")
	}
}

func TestScanLoopback(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()
	port := ln.Addr().(*net.TCPAddr).Port

	s := New(net.ParseIP("127.0.0.1"), WithPorts([]Port{{port, "test"}}), WithTimeout(time.Second))
	s.Update(context.Background())
	if got := s.Results()[0].Status; got != models.PortOpen {
		t.Errorf("status = %v, want open", got)
	}
}

func TestCancelledBatchIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(net.ParseIP("192.0.2.1"), WithDialer(&scriptedDialer{}))
	if s.Update(ctx) {
		t.Fatal("cancelled update should not complete the scan")
	}
	if got := len(s.Results()); got != 0 {
		t.Errorf("cancelled batch recorded %d results", got)
	}
	if scanned, _ := s.Progress(); scanned != 0 {
		t.Errorf("cursor moved to %d", scanned)
	}

	s.Update(context.Background())
	if scanned, _ := s.Progress(); scanned != BatchSize {
		t.Errorf("retry scanned %d, want %d", scanned, BatchSize)
	}
	if got := s.Results()[0].Status; got != models.PortClosed {
		t.Errorf("status after retry = %v, want closed", got)
	}
}

func TestSelect(t *testing.T) {
	ports := Select([]int{8080, 22, 12345, 22})
	want := []Port{{8080, "HTTP-Alt"}, {22, "SSH"}, {12345, ""}}
	if len(ports) != len(want) {
		t.Fatalf("Select = %v, want %v", ports, want)
	}
	for i := range want {
		if ports[i] != want[i] {
			t.Errorf("port %d = %v, want %v", i, ports[i], want[i])
		}
	}
}

func TestSummarize(t *testing.T) {
	sum := Summarize([]models.PortResult{
		{Port: 1, Status: models.PortOpen},
		{Port: 2, Status: models.PortFiltered},
		{Port: 3, Status: models.PortClosed},
		{Port: 4, Status: models.PortClosed},
	})
	if sum != (Summary{Open: 1, Closed: 2, Filtered: 1}) {
		t.Errorf("summary = %+v", sum)
	}
}
