// Package tui hosts the session overlay inside a bubbletea program.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/DeprecatedLuke/oh-my-pi/internal/config"
	"github.com/DeprecatedLuke/oh-my-pi/internal/session"
)

const redrawInterval = 50 * time.Millisecond

// closeDelay keeps the final status frame on screen briefly before the
// program exits.
const closeDelay = 400 * time.Millisecond

type tickMsg time.Time
type doneMsg struct{}
type closeMsg struct{}

// Model drives one session overlay to completion.
type Model struct {
	orch *session.Orchestrator
	cfg  *config.Config

	width    int
	height   int
	finished bool
}

func New(orch *session.Orchestrator, cfg *config.Config) Model {
	return Model{orch: orch, cfg: cfg}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitDone(m.orch))
}

func tick() tea.Cmd {
	return tea.Tick(redrawInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitDone(orch *session.Orchestrator) tea.Cmd {
	return func() tea.Msg {
		<-orch.Done()
		return doneMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		cols, rows := m.childSize()
		m.orch.Resize(cols, rows)
		return m, nil

	case tea.KeyMsg:
		if m.finished {
			return m, tea.Quit
		}
		bytes, dismissed := m.orch.View().RouteKey(msg)
		if dismissed {
			m.orch.Dismiss()
		} else if len(bytes) > 0 {
			m.orch.WriteInput(bytes)
		}
		return m, nil

	case tickMsg:
		if m.finished {
			return m, nil
		}
		return m, tick()

	case doneMsg:
		m.finished = true
		return m, tea.Tick(closeDelay, func(time.Time) tea.Msg {
			return closeMsg{}
		})

	case closeMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) View() string {
	if m.width == 0 {
		return "starting…"
	}
	w, h := m.overlaySize()
	return m.orch.View().Render(m.orch.Buffer(), w, h)
}

// overlaySize is the frame size: a fraction of the host terminal.
func (m Model) overlaySize() (width, height int) {
	width = m.width * m.cfg.WidthFraction / 100
	if width < 20 {
		width = 20
	}
	if width > m.width {
		width = m.width
	}
	height = m.height * m.cfg.HeightFraction / 100
	if height < 5 {
		height = 5
	}
	if height > m.height {
		height = m.height
	}
	return width, height
}

// childSize is the PTY size inside the frame: overlay minus borders and
// chrome rows.
func (m Model) childSize() (cols, rows int) {
	w, h := m.overlaySize()
	cols = w - 2
	rows = h - 4
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}
