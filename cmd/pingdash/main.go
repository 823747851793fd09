package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"pingdash/internal/config"
	"pingdash/internal/database"
	"pingdash/internal/geo"
	"pingdash/internal/logging"
	"pingdash/internal/models"
	"pingdash/internal/monitor"
	"pingdash/internal/ping"
	"pingdash/internal/portscan"
	"pingdash/internal/recorder"
	"pingdash/internal/report"
	"pingdash/internal/speedtest"
	"pingdash/internal/ui"
	"pingdash/internal/web"
)

func main() {
	// Parse configuration
	opts, usage, err := config.ParseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		fmt.Print(usage)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n%s", err, usage)
		os.Exit(2)
	}

	logging.SetLevel(opts.LogLevel)
	switch {
	case opts.LogFile != "":
		if err := logging.OpenFile(opts.LogFile); err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logging.Close()
	case opts.Headless:
		logging.SetOutput(os.Stderr)
	}

	historyPath := opts.ConfigPath
	if historyPath == "" {
		if historyPath, err = config.DefaultPath(); err != nil {
			log.Fatalf("Failed to locate config directory: %v", err)
		}
	}
	history, err := config.Load(historyPath)
	if err != nil {
		log.Fatalf("Failed to load history: %v", err)
	}
	if opts.List {
		history.PrintRecent(os.Stdout)
		return
	}

	cfg := history.Config
	opts.Apply(&cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	theme := ui.Blacksite()
	if opts.Monotone {
		theme = ui.Monotone()
	}

	target := opts.Target
	if target == "" {
		if opts.Headless {
			log.Fatalf("A target is required in headless mode")
		}
		if target, err = ui.PickTarget(history.Recent(10), theme); err != nil {
			log.Fatalf("Target menu failed: %v", err)
		}
		if target == "" {
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr, dnsTime, err := monitor.Resolve(ctx, target)
	if err != nil {
		log.Fatalf("Failed to resolve %s: %v", target, err)
	}
	logging.Infof("Resolved %s to %s in %v", target, addr, dnsTime)

	history.AddTarget(target, time.Now())
	if err := history.Save(historyPath); err != nil {
		logging.Warnf("Failed to save history: %v", err)
	}

	mon := monitor.New(addr, cfg.GraphHistoryLength)
	mon.SetDNSDuration(dnsTime)

	prober := ping.NewProber(addr)
	defer prober.Close()
	sampler := monitor.NewSampler(addr, prober, monitor.SamplerOptions{
		Interval: cfg.Interval(),
		Timeout:  cfg.Timeout(),
	})

	// Initialize recording sinks
	var store models.Store
	recOpts := recorder.Options{RetentionDays: cfg.RetentionDays}
	if opts.CSVLog != "" {
		csvLog, err := recorder.OpenCSV(opts.CSVLog)
		if err != nil {
			log.Fatalf("Failed to open CSV log: %v", err)
		}
		recOpts.CSV = csvLog
	}
	if opts.DBPath != "" {
		db, err := database.New(opts.DBPath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		store = db
		recOpts.Store = db
	}
	rec := recorder.New(target, recOpts)
	rec.Start(ctx)

	var live ui.Publisher
	if opts.HTTPAddr != "" {
		srv := web.New(store, opts.HTTPAddr)
		live = srv
		go func() {
			if err := srv.Start(ctx); err != nil {
				logging.Errorf("Web server failed: %v", err)
			}
		}()
	}

	speedOpts, err := speedtest.ForProvider(cfg.SpeedtestProvider)
	if err != nil {
		logging.Warnf("%v, using %s", err, config.ProviderCloudflare)
	}
	if cfg.SpeedtestDownloadURL != "" {
		speedOpts.DownloadURL = cfg.SpeedtestDownloadURL
	}
	if cfg.SpeedtestUploadURL != "" {
		speedOpts.UploadURL = cfg.SpeedtestUploadURL
	}

	var scanOpts []portscan.Option
	if len(opts.Ports) > 0 {
		scanOpts = append(scanOpts, portscan.WithPorts(portscan.Select(opts.Ports)))
	}

	reportDir := opts.ReportDir
	if reportDir == "" {
		reportDir = "."
	}

	sess := ui.NewSession(ui.SessionOptions{
		Target:    target,
		Config:    &cfg,
		Monitor:   mon,
		Sampler:   sampler,
		Recorder:  rec,
		Live:      live,
		Reports:   report.NewGenerator(store),
		ReportDir: reportDir,
		SpeedTest: speedOpts,
		Scan:      scanOpts,
		Recent:    history.Recent(10),
		Location:  lookupLocation(opts.GeoIPPath, addr),
	})

	sampler.Start(ctx)

	var runErr error
	if opts.Headless {
		runErr = ui.RunHeadless(ctx, sess, ui.HeadlessOptions{
			Duration:  opts.Duration,
			Scan:      opts.Scan,
			SpeedTest: opts.SpeedTest,
		})
	} else {
		runErr = ui.Run(ctx, sess, theme)
	}

	logging.Infof("Shutting down...")
	sess.Close()
	sampler.Close()
	sampler.Wait()
	rec.Stop()

	saveSession(historyPath, history, target, sess)

	if opts.ReportDir != "" {
		path, err := report.NewGenerator(store).GenerateReport(opts.ReportDir, sess.Snapshot())
		if err != nil {
			logging.Errorf("Failed to write report: %v", err)
		} else {
			fmt.Printf("Report written to %s\n", path)
		}
	}

	if runErr != nil {
		log.Fatalf("Dashboard failed: %v", runErr)
	}
}

// saveSession persists the session's settings and the target's figures.
func saveSession(path string, fallback *config.History, target string, sess *ui.Session) {
	history, err := config.Load(path)
	if err != nil {
		logging.Warnf("Failed to reload history, using startup copy: %v", err)
		history = fallback
	}
	history.Config = *sess.Config()

	if stats := sess.Monitor().Stats(); stats.TotalPings > 0 {
		history.UpdateStats(target, stats.AvgResponse, stats.UptimePct)
	}
	if err := history.Save(path); err != nil {
		logging.Errorf("Failed to save history: %v", err)
	}
}

func lookupLocation(dbPath string, addr net.IP) string {
	locator, err := geo.Open(dbPath)
	if err != nil {
		if errors.Is(err, geo.ErrNoDatabase) {
			logging.Debugf("GeoIP disabled: %v", err)
		} else {
			logging.Warnf("GeoIP disabled: %v", err)
		}
		return ""
	}
	defer locator.Close()

	loc, err := locator.Lookup(addr)
	if err != nil {
		logging.Warnf("GeoIP lookup failed: %v", err)
		return ""
	}
	return loc.String()
}
