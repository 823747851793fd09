package ui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"

	"pingdash/internal/models"
)

// Theme is the palette the dashboard renders with. It is passed into the
// model explicitly.
type Theme struct {
	Name string

	Fg           lipgloss.TerminalColor
	Title        lipgloss.TerminalColor
	HiFg         lipgloss.TerminalColor
	Box          lipgloss.TerminalColor
	Idle         lipgloss.TerminalColor
	Missed       lipgloss.TerminalColor
	Low          lipgloss.TerminalColor
	Good         lipgloss.TerminalColor
	Warn         lipgloss.TerminalColor
	Crit         lipgloss.TerminalColor
	KeyHighlight lipgloss.TerminalColor

	GraphLow  lipgloss.TerminalColor
	GraphMid  lipgloss.TerminalColor
	GraphHigh lipgloss.TerminalColor

	// progress bar gradient, empty for a solid bar
	barFrom, barTo string
}

func Blacksite() Theme {
	return Theme{
		Name:         "Blacksite",
		Fg:           lipgloss.Color("#C9C9C9"),
		Title:        lipgloss.Color("#E5E5E5"),
		HiFg:         lipgloss.Color("#FFFFFF"),
		Box:          lipgloss.Color("#2A2C2F"),
		Idle:         lipgloss.Color("#4A4D52"),
		Missed:       lipgloss.Color("#646464"),
		Low:          lipgloss.Color("#8F8F8F"),
		Good:         lipgloss.Color("#4A7A4A"),
		Warn:         lipgloss.Color("#C7A24A"),
		Crit:         lipgloss.Color("#FF3B3B"),
		KeyHighlight: lipgloss.Color("#64C8FF"),
		GraphLow:     lipgloss.Color("#4A7A4A"),
		GraphMid:     lipgloss.Color("#C7A24A"),
		GraphHigh:    lipgloss.Color("#FF3B3B"),
		barFrom:      "#4A7A4A",
		barTo:        "#C7A24A",
	}
}

// Monotone avoids colour entirely, for terminals or users that want it.
func Monotone() Theme {
	none := lipgloss.NoColor{}
	white := lipgloss.Color("15")
	gray := lipgloss.Color("8")
	return Theme{
		Name:         "Monotone",
		Fg:           none,
		Title:        none,
		HiFg:         white,
		Box:          gray,
		Idle:         gray,
		Missed:       gray,
		Low:          none,
		Good:         none,
		Warn:         white,
		Crit:         white,
		KeyHighlight: white,
		GraphLow:     none,
		GraphMid:     white,
		GraphHigh:    white,
	}
}

// LatencyColor grades a round-trip time in milliseconds.
func (t Theme) LatencyColor(ms float64) lipgloss.TerminalColor {
	switch {
	case ms < 50:
		return t.Good
	case ms < 150:
		return t.Warn
	default:
		return t.Crit
	}
}

func (t Theme) QualityColor(q models.Quality) lipgloss.TerminalColor {
	switch q {
	case models.QualityExcellent, models.QualityGood:
		return t.Good
	case models.QualityFair, models.QualityPoor:
		return t.Warn
	case models.QualityOffline:
		return t.Crit
	default:
		return t.Idle
	}
}

// GraphGradient picks a bar colour for a value at ratio of the graph's
// scale. Ratios outside 0..1 are clamped.
func (t Theme) GraphGradient(ratio float64) lipgloss.TerminalColor {
	ratio = max(0, min(1, ratio))
	switch {
	case ratio < 0.4:
		return t.GraphLow
	case ratio < 0.7:
		return t.GraphMid
	default:
		return t.GraphHigh
	}
}

func (t Theme) newProgress() progress.Model {
	if t.barFrom == "" {
		return progress.New(progress.WithSolidFill("15"))
	}
	return progress.New(progress.WithScaledGradient(t.barFrom, t.barTo))
}

func (t Theme) style(c lipgloss.TerminalColor) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

func (t Theme) box() lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Box).
		Padding(0, 1)
}
