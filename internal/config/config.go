package config

import (
	"fmt"
	"time"
)

const (
	MinIntervalMs = 50
	MaxIntervalMs = 5000
	IntervalStep  = 50

	MinHistory  = 30
	MaxHistory  = 600
	HistoryStep = 10

	ProviderCloudflare = "cloudflare"
)

// Config holds the user-tunable settings persisted between sessions.
type Config struct {
	PausePingDuringSpeedtest bool   `json:"pause_ping_during_speedtest" yaml:"pause_ping_during_speedtest"`
	GraphHistoryLength       int    `json:"graph_history_length" yaml:"graph_history_length"`
	PingIntervalMs           int    `json:"ping_interval_ms" yaml:"ping_interval_ms"`
	ShowJitterPanel          bool   `json:"show_jitter_panel" yaml:"show_jitter_panel"`
	ShowHistoryPanel         bool   `json:"show_history_panel" yaml:"show_history_panel"`
	SpeedtestProvider        string `json:"speedtest_provider" yaml:"speedtest_provider"`
	SpeedtestDownloadURL     string `json:"speedtest_download_url,omitempty" yaml:"speedtest_download_url,omitempty"`
	SpeedtestUploadURL       string `json:"speedtest_upload_url,omitempty" yaml:"speedtest_upload_url,omitempty"`
	PingTimeoutMs            int    `json:"ping_timeout_ms" yaml:"ping_timeout_ms"`
	RetentionDays            int    `json:"retention_days" yaml:"retention_days"`
}

// Default returns the settings used when nothing has been saved yet.
func Default() Config {
	return Config{
		PausePingDuringSpeedtest: true,
		GraphHistoryLength:       200,
		PingIntervalMs:           500,
		ShowJitterPanel:          true,
		ShowHistoryPanel:         true,
		SpeedtestProvider:        ProviderCloudflare,
		PingTimeoutMs:            1000,
		RetentionDays:            7,
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.PingIntervalMs < MinIntervalMs || c.PingIntervalMs > MaxIntervalMs {
		return fmt.Errorf("ping_interval_ms must be between %d and %d", MinIntervalMs, MaxIntervalMs)
	}
	if c.GraphHistoryLength < MinHistory || c.GraphHistoryLength > MaxHistory {
		return fmt.Errorf("graph_history_length must be between %d and %d", MinHistory, MaxHistory)
	}
	if c.PingTimeoutMs <= 0 {
		return fmt.Errorf("ping_timeout_ms must be positive")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("retention_days must be positive")
	}
	if c.SpeedtestProvider == "" {
		return fmt.Errorf("speedtest_provider cannot be empty")
	}
	return nil
}

// Normalize clamps out-of-range values into their accepted bounds and
// fills empty fields from the defaults. Saved files from older versions go
// through here.
func (c *Config) Normalize() {
	def := Default()
	c.PingIntervalMs = clampInt(c.PingIntervalMs, MinIntervalMs, MaxIntervalMs)
	c.GraphHistoryLength = clampInt(c.GraphHistoryLength, MinHistory, MaxHistory)
	if c.PingTimeoutMs <= 0 {
		c.PingTimeoutMs = def.PingTimeoutMs
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = def.RetentionDays
	}
	if c.SpeedtestProvider == "" {
		c.SpeedtestProvider = def.SpeedtestProvider
	}
}

func (c *Config) Interval() time.Duration {
	return time.Duration(c.PingIntervalMs) * time.Millisecond
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.PingTimeoutMs) * time.Millisecond
}

// AdjustInterval moves the ping interval by delta milliseconds within its
// bounds and returns the new value.
func (c *Config) AdjustInterval(delta int) int {
	c.PingIntervalMs = clampInt(c.PingIntervalMs+delta, MinIntervalMs, MaxIntervalMs)
	return c.PingIntervalMs
}

// AdjustHistory moves the graph history length by delta samples within its
// bounds and returns the new value.
func (c *Config) AdjustHistory(delta int) int {
	c.GraphHistoryLength = clampInt(c.GraphHistoryLength+delta, MinHistory, MaxHistory)
	return c.GraphHistoryLength
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
