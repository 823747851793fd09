package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
)

// TickInterval is how often the host loop drains the sampler.
const TickInterval = 50 * time.Millisecond

type tickMsg time.Time

type exportDoneMsg struct {
	path string
	err  error
}

type model struct {
	ctx   context.Context
	sess  *Session
	theme Theme

	bar   progress.Model
	gauge progress.Model

	width  int
	height int
}

func newModel(ctx context.Context, sess *Session, theme Theme) model {
	gauge := theme.newProgress()
	gauge.ShowPercentage = false
	return model{
		ctx:    ctx,
		sess:   sess,
		theme:  theme,
		bar:    theme.newProgress(),
		gauge:  gauge,
		width:  100,
		height: 32,
	}
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func scanBatchCmd(st *scanState) tea.Cmd {
	return func() tea.Msg {
		return scanBatch(st)
	}
}

func (m model) exportCmd() tea.Cmd {
	gen := m.sess.reports
	dir := m.sess.reportDir
	snap := m.sess.Snapshot()
	return func() tea.Msg {
		path, err := gen.GenerateReport(dir, snap)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		m.sess.Tick()
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case scanBatchMsg:
		if m.sess.ApplyScanBatch(msg) {
			return m, scanBatchCmd(msg.scan)
		}

	case exportDoneMsg:
		if msg.err != nil {
			m.sess.setStatus("Export failed: " + msg.err.Error())
		} else {
			m.sess.setStatus("Report written to " + msg.path)
		}
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.sess.HandleKey(msg.String()) {
	case actionQuit:
		return m, tea.Quit
	case actionStartScan:
		if st := m.sess.StartPortScan(m.ctx); st != nil {
			return m, scanBatchCmd(st)
		}
	case actionExport:
		if m.sess.reports == nil {
			m.sess.setStatus("Report export unavailable")
			return m, nil
		}
		m.sess.setStatus(fmt.Sprintf("Exporting report to %s...", m.sess.reportDir))
		return m, m.exportCmd()
	}
	return m, nil
}

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, sess *Session, theme Theme) error {
	prog := tea.NewProgram(newModel(ctx, sess, theme), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := prog.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
