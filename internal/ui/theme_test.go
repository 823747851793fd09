package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"

	"pingdash/internal/models"
)

func TestLatencyColor(t *testing.T) {
	th := Blacksite()
	tests := []struct {
		ms   float64
		want lipgloss.TerminalColor
	}{
		{0, th.Good},
		{49.9, th.Good},
		{50, th.Warn},
		{149.9, th.Warn},
		{150, th.Crit},
		{2000, th.Crit},
	}
	for _, tt := range tests {
		if got := th.LatencyColor(tt.ms); got != tt.want {
			t.Errorf("LatencyColor(%v) = %v, want %v", tt.ms, got, tt.want)
		}
	}
}

func TestGraphGradient(t *testing.T) {
	th := Blacksite()
	tests := []struct {
		ratio float64
		want  lipgloss.TerminalColor
	}{
		{-1, th.GraphLow},
		{0, th.GraphLow},
		{0.39, th.GraphLow},
		{0.4, th.GraphMid},
		{0.69, th.GraphMid},
		{0.7, th.GraphHigh},
		{1, th.GraphHigh},
		{7.5, th.GraphHigh},
	}
	for _, tt := range tests {
		if got := th.GraphGradient(tt.ratio); got != tt.want {
			t.Errorf("GraphGradient(%v) = %v, want %v", tt.ratio, got, tt.want)
		}
	}
}

func TestQualityColor(t *testing.T) {
	th := Blacksite()
	tests := []struct {
		q    models.Quality
		want lipgloss.TerminalColor
	}{
		{models.QualityExcellent, th.Good},
		{models.QualityGood, th.Good},
		{models.QualityFair, th.Warn},
		{models.QualityPoor, th.Warn},
		{models.QualityOffline, th.Crit},
		{models.QualityUnknown, th.Idle},
	}
	for _, tt := range tests {
		if got := th.QualityColor(tt.q); got != tt.want {
			t.Errorf("QualityColor(%s) = %v, want %v", tt.q, got, tt.want)
		}
	}
}

func TestMonotoneHasNoAccentColours(t *testing.T) {
	th := Monotone()
	if th.Name != "Monotone" || Blacksite().Name != "Blacksite" {
		t.Errorf("unexpected theme names %q / %q", th.Name, Blacksite().Name)
	}
	if th.Good != (lipgloss.NoColor{}) {
		t.Errorf("monotone good = %v, want no colour", th.Good)
	}
	if th.LatencyColor(10) != th.Good || th.LatencyColor(500) != th.Crit {
		t.Error("monotone thresholds should still map to its own fields")
	}
}
