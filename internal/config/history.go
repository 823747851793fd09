package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const appDir = "pingdash"

// TargetEntry is one previously monitored target.
type TargetEntry struct {
	Target        string    `json:"target" yaml:"target"`
	Alias         *string   `json:"alias" yaml:"alias"`
	LastUsed      time.Time `json:"last_used" yaml:"last_used"`
	TotalSessions uint32    `json:"total_sessions" yaml:"total_sessions"`
	AvgLatency    *float64  `json:"avg_latency" yaml:"avg_latency"`
	SuccessRate   *float64  `json:"success_rate" yaml:"success_rate"`
}

// History is the persisted document: recent targets, favourites and the
// settings in effect at the end of the last session.
type History struct {
	Entries   []TargetEntry `json:"entries" yaml:"entries"`
	Favorites []string      `json:"favorites" yaml:"favorites"`
	Config    Config        `json:"config" yaml:"config"`
}

// NewHistory returns an empty document with default settings.
func NewHistory() *History {
	return &History{
		Entries:   []TargetEntry{},
		Favorites: []string{},
		Config:    Default(),
	}
}

// DefaultPath is history.json inside the user's configuration directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not find config directory: %w", err)
	}
	return filepath.Join(dir, appDir, "history.json"), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Load reads the document at path. A missing file yields defaults. Files
// ending in .yaml or .yml are decoded as YAML, anything else as JSON.
func Load(path string) (*History, error) {
	h := NewHistory()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return h, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, h)
	} else {
		err = json.Unmarshal(data, h)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	h.Config.Normalize()
	return h, nil
}

// Save writes the document to path, creating parent directories.
func (h *History) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(h)
	} else {
		data, err = json.MarshalIndent(h, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// AddTarget records a session for target, most recent first. Help tokens
// are ignored.
func (h *History) AddTarget(target string, now time.Time) {
	switch target {
	case "", "--help", "-h", "?":
		return
	}

	found := false
	for i := range h.Entries {
		if h.Entries[i].Target == target {
			h.Entries[i].LastUsed = now
			h.Entries[i].TotalSessions++
			found = true
			break
		}
	}
	if !found {
		h.Entries = append(h.Entries, TargetEntry{
			Target:        target,
			LastUsed:      now,
			TotalSessions: 1,
		})
	}

	sort.SliceStable(h.Entries, func(i, j int) bool {
		return h.Entries[i].LastUsed.After(h.Entries[j].LastUsed)
	})
}

// UpdateStats stores the end-of-session figures for an existing target.
func (h *History) UpdateStats(target string, avgLatency, successRate float64) {
	for i := range h.Entries {
		if h.Entries[i].Target == target {
			h.Entries[i].AvgLatency = &avgLatency
			h.Entries[i].SuccessRate = &successRate
			return
		}
	}
}

// Recent returns up to n entries, most recent first.
func (h *History) Recent(n int) []TargetEntry {
	if n > len(h.Entries) {
		n = len(h.Entries)
	}
	out := make([]TargetEntry, n)
	copy(out, h.Entries[:n])
	return out
}

// PrintRecent writes the ten most recent targets to w.
func (h *History) PrintRecent(w io.Writer) {
	fmt.Fprintln(w, "\nRecent Targets")
	fmt.Fprintln(w, strings.Repeat("-", 44))
	if len(h.Entries) == 0 {
		fmt.Fprintln(w, "  (none yet)")
	}
	for i, e := range h.Recent(10) {
		alias := ""
		if e.Alias != nil {
			alias = *e.Alias
		}
		stats := ""
		if e.AvgLatency != nil && e.SuccessRate != nil {
			stats = fmt.Sprintf(" (%.1fms, %.1f%%)", *e.AvgLatency, *e.SuccessRate)
		}
		fmt.Fprintf(w, "%2d. %-20s %-15s%s\n", i+1, e.Target, alias, stats)
	}
	fmt.Fprintln(w)
}
