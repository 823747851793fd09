package ping

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"

	"pingdash/internal/logging"
	"pingdash/internal/models"
)

// WebCheckTimeout bounds each web-reachability connect attempt.
const WebCheckTimeout = 2 * time.Second

// ContextDialer is satisfied by *net.Dialer.
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// CheckPort performs one TCP connect to ip:port and classifies the outcome.
func CheckPort(ctx context.Context, dialer ContextDialer, ip net.IP, port int, timeout time.Duration) models.WebCheckStatus {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addr := net.JoinHostPort(ip.String(), strconv.Itoa(port))
	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err == nil {
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0
		conn.Close()
		logging.Tracef("TCP %d success: %.2fms", port, elapsed)
		return models.WebCheckSuccess(elapsed)
	}

	logging.Debugf("TCP %d error: %v", port, err)
	switch {
	case IsRefused(err):
		return models.WebCheckStatus{Kind: models.WebConnectionRefused}
	case IsTimeout(err):
		return models.WebCheckStatus{Kind: models.WebTimeout}
	default:
		return models.WebCheckError(err.Error())
	}
}

// IsRefused reports whether err is an active connection refusal.
func IsRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

// IsTimeout reports whether err is a connect timeout or an expired deadline.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ETIMEDOUT) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// NewProber returns an ICMP prober for dst, falling back to the system ping
// binary when no ICMP socket is available.
func NewProber(dst net.IP) models.Prober {
	p, err := NewICMPPinger(dst)
	if err != nil {
		logging.Warnf("ICMP unavailable, using ping binary: %v", err)
		return NewExecPinger()
	}
	return p
}
