package ping

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	protocolICMP     = 1
	protocolIPv6ICMP = 58
)

// ErrTimeout is returned when no matching echo reply arrives before the
// deadline.
var ErrTimeout = errors.New("echo reply timeout")

type listenPacketFunc func(network, address string) (*icmp.PacketConn, error)

// ICMPPinger sends ICMP echo requests over a single socket. Only one probe
// is in flight at a time.
type ICMPPinger struct {
	id         int
	conn       *icmp.PacketConn
	privileged bool
	v4         bool
	payload    []byte

	mu  sync.Mutex
	buf []byte
}

// NewICMPPinger opens an ICMP socket suitable for dst. An unprivileged
// datagram socket is tried first, then a raw socket.
func NewICMPPinger(dst net.IP) (*ICMPPinger, error) {
	return newICMPPinger(dst, icmp.ListenPacket)
}

func newICMPPinger(dst net.IP, listen listenPacketFunc) (*ICMPPinger, error) {
	v4 := dst.To4() != nil

	type candidate struct {
		network, address string
		privileged       bool
	}
	candidates := []candidate{
		{"udp4", "0.0.0.0", false},
		{"ip4:icmp", "0.0.0.0", true},
	}
	if !v4 {
		candidates = []candidate{
			{"udp6", "::", false},
			{"ip6:ipv6-icmp", "::", true},
		}
	}

	var errs []error
	for _, c := range candidates {
		conn, err := listen(c.network, c.address)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c.network, err))
			continue
		}
		return &ICMPPinger{
			id:         os.Getpid() & 0xffff,
			conn:       conn,
			privileged: c.privileged,
			v4:         v4,
			payload:    buildPayload(16),
			buf:        make([]byte, 1500),
		}, nil
	}
	return nil, fmt.Errorf("open icmp socket: %w", errors.Join(errs...))
}

// Echo sends one echo request with the given sequence number and waits for
// the matching reply. The wait is bounded by the context deadline, or one
// second when ctx has none.
func (p *ICMPPinger) Echo(ctx context.Context, dst net.IP, seq int) (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	seq &= 0xffff
	var typ, replyType icmp.Type = ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	proto := protocolICMP
	if !p.v4 {
		typ, replyType = ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
		proto = protocolIPv6ICMP
	}

	msg := icmp.Message{
		Type: typ,
		Code: 0,
		Body: &icmp.Echo{ID: p.id, Seq: seq, Data: p.payload},
	}
	b, err := msg.Marshal(nil)
	if err != nil {
		return 0, fmt.Errorf("marshal echo: %w", err)
	}

	var addr net.Addr = &net.UDPAddr{IP: dst}
	if p.privileged {
		addr = &net.IPAddr{IP: dst}
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(time.Second)
	}
	if err := p.conn.SetReadDeadline(deadline); err != nil {
		return 0, err
	}

	start := time.Now()
	if _, err := p.conn.WriteTo(b, addr); err != nil {
		return 0, fmt.Errorf("send echo: %w", err)
	}

	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, _, err := p.conn.ReadFrom(p.buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return 0, ErrTimeout
			}
			return 0, fmt.Errorf("read echo reply: %w", err)
		}
		if matchEchoReply(p.buf[:n], proto, replyType, p.id, seq, p.privileged) {
			return time.Since(start), nil
		}
	}
}

// Close releases the socket.
func (p *ICMPPinger) Close() error {
	return p.conn.Close()
}

// matchEchoReply reports whether raw is the reply to our request. On
// datagram sockets the kernel rewrites the identifier, so only the sequence
// number is compared.
func matchEchoReply(raw []byte, proto int, replyType icmp.Type, id, seq int, checkID bool) bool {
	msg, err := icmp.ParseMessage(proto, raw)
	if err != nil || msg.Type != replyType {
		return false
	}
	echo, ok := msg.Body.(*icmp.Echo)
	if !ok || echo.Seq != seq {
		return false
	}
	return !checkID || echo.ID == id
}

func buildPayload(size int) []byte {
	payload := make([]byte, size)
	for i := range payload {
		payload[i] = 'A'
	}
	if len(payload) >= 8 {
		copy(payload, "PINGDASH")
	}
	return payload
}
