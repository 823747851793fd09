package ping

import (
	"context"
	"fmt"
	"net"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"
)

var rttPatterns = []*regexp.Regexp{
	regexp.MustCompile(`time[=<]([0-9.]+)\s*ms`),
	regexp.MustCompile(`time[=<]([0-9.]+)ms`),
	regexp.MustCompile(`round-trip min/avg/max(?:/stddev)? = [0-9.]+/([0-9.]+)/`),
	regexp.MustCompile(`rtt min/avg/max/mdev = [0-9.]+/([0-9.]+)/`),
}

// ExecPinger probes by running the system ping binary. It is the fallback
// when no ICMP socket can be opened.
type ExecPinger struct {
	// Binary defaults to "ping".
	Binary string
}

// NewExecPinger creates a new ExecPinger
func NewExecPinger() *ExecPinger {
	return &ExecPinger{Binary: "ping"}
}

// Echo runs one ping against dst. The timeout is taken from ctx.
func (p *ExecPinger) Echo(ctx context.Context, dst net.IP, _ int) (time.Duration, error) {
	timeout := time.Second
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}

	// Platform-specific ping command
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(ctx, p.Binary, "-n", "1", "-w", strconv.Itoa(int(timeout.Milliseconds())), dst.String())
	} else {
		secs := int(timeout.Seconds())
		if secs < 1 {
			secs = 1
		}
		cmd = exec.CommandContext(ctx, p.Binary, "-c", "1", "-W", strconv.Itoa(secs), dst.String())
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ping %s: %w", dst, err)
	}

	rtt := parsePingOutput(string(output))
	if rtt <= 0 {
		return 0, fmt.Errorf("ping %s: no round-trip time in output", dst)
	}
	return time.Duration(rtt * float64(time.Millisecond)), nil
}

// Close implements models.Prober.
func (p *ExecPinger) Close() error { return nil }

// parsePingOutput parses RTT from ping output
func parsePingOutput(output string) float64 {
	// Linux/Mac: "time=XX.X ms"
	// Windows: "time=XXms" or "time<1ms"
	for _, re := range rttPatterns {
		matches := re.FindStringSubmatch(output)
		if len(matches) > 1 {
			if rtt, err := strconv.ParseFloat(matches[1], 64); err == nil {
				return rtt
			}
		}
	}

	return 0
}
