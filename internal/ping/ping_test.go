package ping

import (
	"context"
	"errors"
	"net"
	"os/exec"
	"testing"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"pingdash/internal/models"
)

func TestParsePingOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected float64
	}{
		{
			name:     "macOS individual response",
			output:   "64 bytes from 8.8.8.8: icmp_seq=0 ttl=118 time=44.347 ms",
			expected: 44.347,
		},
		{
			name:     "macOS summary line",
			output:   "round-trip min/avg/max/stddev = 44.347/44.347/44.347/0.000 ms",
			expected: 44.347,
		},
		{
			name:     "Linux individual response",
			output:   "64 bytes from 8.8.8.8: icmp_seq=0 ttl=118 time=12.3 ms",
			expected: 12.3,
		},
		{
			name:     "macOS summary picks average",
			output:   "round-trip min/avg/max/stddev = 10.100/20.200/30.300/8.000 ms",
			expected: 20.2,
		},
		{
			name:     "BusyBox summary line",
			output:   "round-trip min/avg/max = 12.3/12.3/12.3 ms",
			expected: 12.3,
		},
		{
			name:     "Linux summary line",
			output:   "rtt min/avg/max/mdev = 9.812/11.406/13.001/1.594 ms",
			expected: 11.406,
		},
		{
			name:     "Windows response",
			output:   "Reply from 8.8.8.8: bytes=32 time=15ms TTL=118",
			expected: 15,
		},
		{
			name:     "Windows sub-millisecond",
			output:   "Reply from 8.8.8.8: bytes=32 time<1ms TTL=118",
			expected: 1,
		},
		{
			name:     "No match",
			output:   "ping: unknown host example.invalid",
			expected: 0,
		},
		{
			name:     "Empty output",
			output:   "",
			expected: 0,
		},
		{
			name: "Multiple lines with macOS output",
			output: `PING 8.8.8.8 (8.8.8.8): 56 data bytes
64 bytes from 8.8.8.8: icmp_seq=0 ttl=118 time=44.347 ms

--- 8.8.8.8 ping statistics ---
1 packets transmitted, 1 packets received, 0.0% packet loss
round-trip min/avg/max/stddev = 44.347/44.347/44.347/0.000 ms`,
			expected: 44.347,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := parsePingOutput(tt.output)
			if result != tt.expected {
				t.Errorf("parsePingOutput(%q) = %v, want %v", tt.output, result, tt.expected)
			}
		})
	}
}

func TestExecPingerEcho(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping ping integration test in short mode")
	}
	if _, err := exec.LookPath("ping"); err != nil {
		t.Skip("ping binary not available on PATH")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rtt, err := NewExecPinger().Echo(ctx, net.ParseIP("127.0.0.1"), 1)
	if err != nil {
		t.Skipf("skipping due to ping failure in this environment: %v", err)
	}
	if rtt <= 0 {
		t.Errorf("expected positive RTT, got %v", rtt)
	}
}

func TestExecPingerExpiredContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), -time.Second)
	defer cancel()

	if _, err := NewExecPinger().Echo(ctx, net.ParseIP("127.0.0.1"), 1); err == nil {
		t.Fatal("expected error for expired context")
	}
}

func TestMatchEchoReply(t *testing.T) {
	reply := func(id, seq int) []byte {
		msg := icmp.Message{
			Type: ipv4.ICMPTypeEchoReply,
			Body: &icmp.Echo{ID: id, Seq: seq, Data: []byte("PINGDASH")},
		}
		b, err := msg.Marshal(nil)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return b
	}

	tests := []struct {
		name    string
		raw     []byte
		checkID bool
		want    bool
	}{
		{"matching reply", reply(7, 3), true, true},
		{"wrong sequence", reply(7, 4), true, false},
		{"rewritten id on datagram socket", reply(99, 3), false, true},
		{"wrong id on raw socket", reply(99, 3), true, false},
		{"garbage", []byte{0x01}, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchEchoReply(tt.raw, protocolICMP, ipv4.ICMPTypeEchoReply, 7, 3, tt.checkID)
			if got != tt.want {
				t.Errorf("matchEchoReply = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewICMPPingerAllSocketsFail(t *testing.T) {
	var tried []string
	listen := func(network, address string) (*icmp.PacketConn, error) {
		tried = append(tried, network)
		return nil, errors.New("operation not permitted")
	}

	_, err := newICMPPinger(net.ParseIP("192.0.2.1"), listen)
	if err == nil {
		t.Fatal("expected error when no socket can be opened")
	}
	if len(tried) != 2 || tried[0] != "udp4" || tried[1] != "ip4:icmp" {
		t.Errorf("unexpected socket order: %v", tried)
	}

	tried = nil
	_, _ = newICMPPinger(net.ParseIP("2001:db8::1"), listen)
	if len(tried) != 2 || tried[0] != "udp6" {
		t.Errorf("unexpected IPv6 socket order: %v", tried)
	}
}

type fakeDialer struct {
	err error
}

func (d fakeDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	return nil, d.err
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestCheckPort(t *testing.T) {
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
	openPort := ln.Addr().(*net.TCPAddr).Port

	closed, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	closedPort := closed.Addr().(*net.TCPAddr).Port
	closed.Close()

	loopback := net.ParseIP("127.0.0.1")
	ctx := context.Background()

	if got := CheckPort(ctx, nil, loopback, openPort, time.Second); got.Kind != models.WebSuccess || got.Ms < 0 {
		t.Errorf("open port: got %v", got)
	}
	if got := CheckPort(ctx, nil, loopback, closedPort, time.Second); got.Kind != models.WebConnectionRefused {
		t.Errorf("closed port: got %v", got)
	}

	timeoutDialer := fakeDialer{err: &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}}
	if got := CheckPort(ctx, timeoutDialer, loopback, 80, time.Second); got.Kind != models.WebTimeout {
		t.Errorf("timeout: got %v", got)
	}

	otherDialer := fakeDialer{err: errors.New("network is unreachable")}
	got := CheckPort(ctx, otherDialer, loopback, 443, time.Second)
	if got.Kind != models.WebError || got.Message != "network is unreachable" {
		t.Errorf("other error: got %+v", got)
	}
}
