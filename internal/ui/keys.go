package ui

import (
	"pingdash/internal/config"
	"pingdash/internal/logging"
)

// action is what the key handler asks the host loop to do next.
type action int

const (
	actionNone action = iota
	actionQuit
	actionStartScan
	actionExport
)

type settingItem struct {
	label string
	value func(s *Session) bool
	flip  func(s *Session)
}

var settingItems = []settingItem{
	{"Jitter panel", func(s *Session) bool { return s.showJitter }, (*Session).ToggleJitter},
	{"History panel", func(s *Session) bool { return s.showHistory }, (*Session).ToggleHistory},
	{"Pause ping during speed test", func(s *Session) bool { return s.cfg.PausePingDuringSpeedtest }, func(s *Session) {
		s.cfg.PausePingDuringSpeedtest = !s.cfg.PausePingDuringSpeedtest
	}},
	{"Web check (TCP 80/443)", func(s *Session) bool { return s.webCheck }, (*Session).ToggleWebCheck},
}

// HandleKey applies a key press, named the way bubbletea names keys.
func (s *Session) HandleKey(key string) action {
	logging.Tracef("Key pressed: %s", key)

	switch key {
	case "q", "Q", "ctrl+c":
		return actionQuit
	case "c", "C":
		s.ClosePanel()
		return actionNone
	case "esc":
		switch {
		case s.showSettings:
			s.showSettings = false
		case s.showDiagnostics:
			s.showDiagnostics = false
		case !s.panelOpen():
			s.showSettings = true
		}
		return actionNone
	}

	if s.showSettings {
		return s.handleSettingsKey(key)
	}

	switch key {
	case "right":
		s.AdjustHistory(config.HistoryStep)
	case "left":
		s.AdjustHistory(-config.HistoryStep)
	case "up":
		s.AdjustInterval(-config.IntervalStep)
	case "down":
		s.AdjustInterval(config.IntervalStep)
	case "e", "E":
		return actionExport
	}

	if s.panelOpen() {
		return actionNone
	}

	switch key {
	case "s", "S":
		s.showDiagnostics = false
		s.StartSpeedTest()
	case "p", "P":
		s.showDiagnostics = false
		return actionStartScan
	case "j", "J":
		s.ToggleJitter()
	case "h", "H":
		s.ToggleHistory()
	case "r", "R":
		s.Reset()
	case "w", "W":
		s.ToggleWebCheck()
	case "enter":
		s.showDiagnostics = !s.showDiagnostics
	}
	return actionNone
}

func (s *Session) handleSettingsKey(key string) action {
	switch key {
	case "up":
		if s.settingsSelected > 0 {
			s.settingsSelected--
		}
	case "down":
		if s.settingsSelected < len(settingItems)-1 {
			s.settingsSelected++
		}
	case "enter", " ":
		settingItems[s.settingsSelected].flip(s)
	default:
		if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
			s.settingsSelected = min(int(key[0]-'1'), len(settingItems)-1)
		}
	}
	return actionNone
}
