package ui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"pingdash/internal/config"
)

// DefaultTargets are offered when the user has no history.
var DefaultTargets = []string{"1.1.1.1", "8.8.8.8", "google.com", "github.com", "wikipedia.org"}

// menuModel lets the user type a target or pick one from history and the
// built-in defaults.
type menuModel struct {
	theme   Theme
	input   string
	choices []string
	recent  int // choices[:recent] come from history
	cursor  int
	chosen  string
	width   int
}

func newMenu(recent []config.TargetEntry, theme Theme) menuModel {
	m := menuModel{theme: theme}
	seen := make(map[string]bool)
	for _, e := range recent {
		if !seen[e.Target] {
			seen[e.Target] = true
			m.choices = append(m.choices, e.Target)
		}
	}
	m.recent = len(m.choices)
	for _, d := range DefaultTargets {
		if !seen[d] {
			m.choices = append(m.choices, d)
		}
	}
	return m
}

func (m menuModel) Init() tea.Cmd { return nil }

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if v := strings.TrimSpace(m.input); v != "" {
				if v == "?" || v == "-h" || v == "--help" {
					m.input = ""
					return m, nil
				}
				m.chosen = v
			} else if m.cursor < len(m.choices) {
				m.chosen = m.choices[m.cursor]
			}
			if m.chosen != "" {
				return m, tea.Quit
			}
		case tea.KeyUp:
			if m.cursor > 0 {
				m.cursor--
			}
		case tea.KeyDown, tea.KeyTab:
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}
		case tea.KeyBackspace:
			if len(m.input) > 0 {
				m.input = m.input[:len(m.input)-1]
			}
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		}
	}
	return m, nil
}

func (m menuModel) View() string {
	t := m.theme
	var b strings.Builder

	b.WriteString(t.style(t.Title).Bold(true).Render("pingdash") + "\n\n")
	b.WriteString(t.style(t.Low).Render("Target: ") + t.style(t.HiFg).Render(m.input+"|") + "\n\n")

	typing := m.input != ""
	for i, c := range m.choices {
		if i == 0 && m.recent > 0 {
			b.WriteString(t.style(t.Title).Render("Recent") + "\n")
		}
		if i == m.recent {
			b.WriteString(t.style(t.Title).Render("Suggestions") + "\n")
		}
		line := "  " + c
		style := t.style(t.Fg)
		if i == m.cursor && !typing {
			line = "> " + c
			style = t.style(t.KeyHighlight).Bold(true)
		}
		b.WriteString(style.Render(line) + "\n")
	}

	b.WriteString("\n" + t.style(t.Low).Render("type a host • ↑↓ select • enter: start • esc: quit"))
	return lipgloss.NewStyle().Margin(1, 2).Render(b.String())
}

// PickTarget asks the user for a target. It returns "" if they quit.
func PickTarget(recent []config.TargetEntry, theme Theme) (string, error) {
	final, err := tea.NewProgram(newMenu(recent, theme)).Run()
	if err != nil {
		return "", err
	}
	return final.(menuModel).chosen, nil
}
