package monitor

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"pingdash/internal/logging"
	"pingdash/internal/models"
	"pingdash/internal/ping"
)

const (
	MinInterval     = 50 * time.Millisecond
	MaxInterval     = 5 * time.Second
	DefaultInterval = 500 * time.Millisecond
	DefaultTimeout  = time.Second

	resultBuffer  = 100
	commandBuffer = 8
)

// Command is a control message for a running Sampler.
type Command interface{ isCommand() }

// SetInterval retunes the tick period without restarting the sampler.
type SetInterval struct{ Interval time.Duration }

// ToggleWebCheck enables or disables the per-tick port 80/443 probes.
type ToggleWebCheck struct{ Enabled bool }

// SetPaused suspends probing while keeping the loop alive.
type SetPaused struct{ Paused bool }

// Stop ends the sampling loop.
type Stop struct{}

func (SetInterval) isCommand()    {}
func (ToggleWebCheck) isCommand() {}
func (SetPaused) isCommand()      {}
func (Stop) isCommand()           {}

// ClampInterval bounds d to the accepted sampling interval range.
func ClampInterval(d time.Duration) time.Duration {
	if d < MinInterval {
		return MinInterval
	}
	if d > MaxInterval {
		return MaxInterval
	}
	return d
}

// SamplerOptions configures a Sampler. Zero values select defaults.
type SamplerOptions struct {
	Interval        time.Duration
	Timeout         time.Duration
	WebCheckTimeout time.Duration
	WebCheck        bool
	Dialer          ping.ContextDialer
}

// Sampler probes one address on a fixed cadence from a background
// goroutine and publishes results on a buffered channel.
type Sampler struct {
	addr   net.IP
	prober models.Prober
	opts   SamplerOptions

	results  chan models.PingResult
	commands chan Command
	done     chan struct{}

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	closeOnce sync.Once
}

// NewSampler creates a stopped sampler for addr.
func NewSampler(addr net.IP, prober models.Prober, opts SamplerOptions) *Sampler {
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	opts.Interval = ClampInterval(opts.Interval)
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.WebCheckTimeout <= 0 {
		opts.WebCheckTimeout = ping.WebCheckTimeout
	}
	return &Sampler{
		addr:     addr,
		prober:   prober,
		opts:     opts,
		results:  make(chan models.PingResult, resultBuffer),
		commands: make(chan Command, commandBuffer),
		done:     make(chan struct{}),
	}
}

// Start launches the sampling goroutine. Subsequent calls are no-ops.
func (s *Sampler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.ctx, s.cancel = context.WithCancel(ctx)
		s.wg.Add(1)
		go s.run(s.ctx)
	})
}

// Results is the channel the host drains each tick.
func (s *Sampler) Results() <-chan models.PingResult { return s.results }

// Send queues a command without blocking. It reports false when the
// command queue is full or the sampler has been closed.
func (s *Sampler) Send(cmd Command) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.commands <- cmd:
		return true
	default:
		logging.Warnf("Command channel full, dropping %T", cmd)
		return false
	}
}

// Close detaches the consumer: the loop exits at its next suspension point
// and in-flight probes are cancelled. Close does not wait; use Wait.
func (s *Sampler) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// Wait blocks until the sampling goroutine and any web checks it spawned
// have returned.
func (s *Sampler) Wait() {
	s.wg.Wait()
}

// Resolve turns target into an address, recording how long it took. IP
// literals skip the resolver.
func Resolve(ctx context.Context, target string) (net.IP, time.Duration, error) {
	return ResolveWith(ctx, net.DefaultResolver, target)
}

// HostResolver is satisfied by *net.Resolver.
type HostResolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// ResolveWith is Resolve with an explicit resolver.
func ResolveWith(ctx context.Context, r HostResolver, target string) (net.IP, time.Duration, error) {
	host := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(target), "["), "]")
	if host == "" {
		return nil, 0, fmt.Errorf("resolve: empty target")
	}

	start := time.Now()
	if ip := net.ParseIP(host); ip != nil {
		return ip, time.Since(start), nil
	}

	addrs, err := r.LookupIPAddr(ctx, host)
	elapsed := time.Since(start)
	if err != nil {
		return nil, elapsed, fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return nil, elapsed, fmt.Errorf("resolve %s: no addresses found", host)
	}
	logging.Infof("Resolved %s to %s in %v", host, addrs[0].IP, elapsed)
	return addrs[0].IP, elapsed, nil
}
