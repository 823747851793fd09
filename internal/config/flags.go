package config

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Options are the command-line settings for one run.
type Options struct {
	Target     string
	List       bool
	Monotone   bool
	CSVLog     string
	DBPath     string
	HTTPAddr   string
	ReportDir  string
	GeoIPPath  string
	ConfigPath string
	LogFile    string
	LogLevel   string
	Interval   time.Duration
	Ports      []int

	Headless  bool
	Duration  time.Duration
	Scan      bool
	SpeedTest bool
}

// ParseFlags parses args (without the program name). On -h/--help it
// returns pflag.ErrHelp with the usage text.
func ParseFlags(args []string) (Options, string, error) {
	var opts Options
	var usageBuf bytes.Buffer

	fs := pflag.NewFlagSet("pingdash", pflag.ContinueOnError)
	fs.SetOutput(&usageBuf)

	fs.BoolVar(&opts.List, "list", false, "list recent targets and exit")
	fs.BoolVarP(&opts.Monotone, "monotone", "m", false, "force monochrome theme")
	fs.StringVar(&opts.CSVLog, "log", "", "append ping results to a CSV file")
	fs.StringVar(&opts.DBPath, "db", "", "record results in a SQLite database")
	fs.StringVar(&opts.HTTPAddr, "http", "", "serve the JSON status API on this address (requires --db)")
	fs.StringVar(&opts.ReportDir, "report", "", "write a latency report to this directory on exit")
	fs.StringVar(&opts.GeoIPPath, "geoip", "", "GeoLite2 City database for target location")
	fs.StringVar(&opts.ConfigPath, "config", "", "history/config file (.json, .yaml or .yml)")
	fs.StringVar(&opts.LogFile, "log-file", "", "write diagnostic logs to this file")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	fs.DurationVarP(&opts.Interval, "interval", "i", 0, "ping interval override (50ms..5s)")
	fs.BoolVar(&opts.Headless, "headless", false, "run without the terminal dashboard")
	fs.DurationVar(&opts.Duration, "duration", 0, "stop a headless run after this long (0 = until interrupted)")
	fs.BoolVar(&opts.Scan, "scan", false, "run a port scan in headless mode")
	fs.IntSliceVar(&opts.Ports, "ports", nil, "comma-separated ports to scan instead of the built-in list")
	fs.BoolVar(&opts.SpeedTest, "speedtest", false, "run a speed test in headless mode")

	fs.Usage = func() {
		fmt.Fprintln(&usageBuf, "Usage: pingdash [options] [target]")
		fmt.Fprintln(&usageBuf, "Options:")
		fs.PrintDefaults()
		fmt.Fprintln(&usageBuf, "Controls: q quit, s speed test, p port scan, c close panel, w web check,")
		fmt.Fprintln(&usageBuf, "          r reset, j/h panels, arrows adjust history/interval, e export report")
	}

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return Options{}, usageBuf.String(), err
		}
		fs.Usage()
		return Options{}, usageBuf.String(), err
	}

	if rest := fs.Args(); len(rest) > 0 {
		opts.Target = rest[0]
	}
	if opts.HTTPAddr != "" && opts.DBPath == "" {
		return Options{}, usageBuf.String(), fmt.Errorf("--http requires --db")
	}
	if opts.Interval != 0 && (opts.Interval < MinIntervalMs*time.Millisecond || opts.Interval > MaxIntervalMs*time.Millisecond) {
		return Options{}, usageBuf.String(), fmt.Errorf("--interval must be between %dms and %dms", MinIntervalMs, MaxIntervalMs)
	}
	for _, p := range opts.Ports {
		if p < 1 || p > 65535 {
			return Options{}, usageBuf.String(), fmt.Errorf("--ports: %d is not a valid port", p)
		}
	}
	return opts, usageBuf.String(), nil
}

// Apply folds command-line overrides into the persisted settings.
func (o Options) Apply(c *Config) {
	if o.Interval != 0 {
		c.PingIntervalMs = int(o.Interval / time.Millisecond)
	}
}
