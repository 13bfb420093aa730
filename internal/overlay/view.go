// Package overlay draws a bordered frame around a live terminal session and
// routes keystrokes to it, tracking the session's lifecycle state.
package overlay

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/DeprecatedLuke/oh-my-pi/internal/render"
	"github.com/DeprecatedLuke/oh-my-pi/internal/term"
)

// State is the overlay lifecycle. Running transitions once into one of the
// terminal states and never leaves it.
type State int

const (
	StateRunning State = iota
	StateComplete
	StateTimedOut
	StateKilled
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateTimedOut:
		return "timed_out"
	case StateKilled:
		return "killed"
	default:
		return "unknown"
	}
}

var (
	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#b0b0b0", Dark: "#585858"})
	titleStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#3a3a3a", Dark: "#d0d0d0"})
	commandStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#6b6b6b", Dark: "#8a8a8a"})
	badgeOKStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#2a7f3f", Dark: "#4cc35e"})
	badgeWarnStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#9a6a00", Dark: "#e0b030"})
	badgeErrStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#b03030", Dark: "#e06060"})
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#8a8a8a", Dark: "#6b6b6b"})
)

// chromeRows is the fixed frame overhead: top border, header, footer,
// bottom border.
const chromeRows = 4

// View is the overlay presentation state machine. Safe for concurrent use;
// the render loop and the session goroutine both touch it.
type View struct {
	mu              sync.Mutex
	title           string
	command         string
	state           State
	exitCode        *int
	dismissedByUser bool
}

// NewView creates an overlay in the running state.
func NewView(command string) *View {
	return &View{
		title:   "Interactive shell",
		command: command,
		state:   StateRunning,
	}
}

// State returns the current lifecycle state.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Running reports whether keystrokes are still being routed.
func (v *View) Running() bool {
	return v.State() == StateRunning
}

// DismissedByUser reports whether the user closed the overlay while the
// child was still running.
func (v *View) DismissedByUser() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dismissedByUser
}

// SetComplete records a natural process exit. No-op once terminal.
func (v *View) SetComplete(exitCode *int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateRunning {
		return
	}
	v.state = StateComplete
	v.exitCode = exitCode
}

// SetTimedOut records a timeout kill. No-op once terminal.
func (v *View) SetTimedOut() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateRunning {
		return
	}
	v.state = StateTimedOut
}

// SetKilled records a user dismiss. No-op once terminal.
func (v *View) SetKilled() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.state != StateRunning {
		return
	}
	v.state = StateKilled
	v.dismissedByUser = true
}

// Render draws the full bordered frame at the given size, pulling the most
// recent viewport rows from the buffer.
func (v *View) Render(buf *term.Buffer, width, height int) string {
	v.mu.Lock()
	state := v.state
	exitCode := v.exitCode
	title := v.title
	command := v.command
	v.mu.Unlock()

	if width < 8 {
		width = 8
	}
	inner := width - 2
	content := height - chromeRows
	if content < 1 {
		content = 1
	}

	var sb strings.Builder
	sb.WriteString(borderStyle.Render("┌" + strings.Repeat("─", inner) + "┐"))
	sb.WriteString("\n")
	sb.WriteString(frameLine(header(state, exitCode, title, command, inner), inner))
	sb.WriteString("\n")

	_, bufRows := buf.Size()
	start := bufRows - content
	if start < 0 {
		start = 0
	}
	rows := buf.Lines(start, bufRows)
	for i := 0; i < content; i++ {
		var line string
		if i < len(rows) {
			line = render.RenderRow(rows[i], inner)
		}
		sb.WriteString(frameLine(line, inner))
		sb.WriteString("\n")
	}

	sb.WriteString(frameLine(footer(state, inner), inner))
	sb.WriteString("\n")
	sb.WriteString(borderStyle.Render("└" + strings.Repeat("─", inner) + "┘"))
	return sb.String()
}

// frameLine wraps a rendered line in side borders, padding or truncating to
// the inner width.
func frameLine(line string, inner int) string {
	w := ansi.StringWidth(line)
	if w > inner {
		line = ansi.Truncate(line, inner, "")
		w = inner
	}
	if w < inner {
		line += strings.Repeat(" ", inner-w)
	}
	return borderStyle.Render("│") + line + borderStyle.Render("│")
}

func header(state State, exitCode *int, title, command string, inner int) string {
	icon, badge, badgeStyle := statusParts(state, exitCode)
	left := fmt.Sprintf(" %s %s ", icon, titleStyle.Render(title))
	right := " " + badgeStyle.Render(badge) + " "
	avail := inner - lipgloss.Width(left) - lipgloss.Width(right)
	cmd := ""
	if avail > 3 {
		cmd = commandStyle.Render(truncateTo(command, avail-1)) + " "
	}
	gap := inner - lipgloss.Width(left) - lipgloss.Width(cmd) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + cmd + strings.Repeat(" ", gap) + right
}

func footer(state State, inner int) string {
	var hint string
	if state == StateRunning {
		hint = " esc to dismiss · input forwarded to process "
	} else {
		hint = " session finished "
	}
	return footerStyle.Render(truncateTo(hint, inner))
}

func statusParts(state State, exitCode *int) (icon, badge string, style lipgloss.Style) {
	switch state {
	case StateRunning:
		return "●", "running", badgeWarnStyle
	case StateComplete:
		if exitCode != nil && *exitCode == 0 {
			return "✓", "exit 0", badgeOKStyle
		}
		if exitCode != nil {
			return "✗", fmt.Sprintf("exit %d", *exitCode), badgeErrStyle
		}
		return "✗", "signaled", badgeErrStyle
	case StateTimedOut:
		return "⏱", "timed out", badgeWarnStyle
	case StateKilled:
		return "✗", "dismissed", badgeErrStyle
	default:
		return "?", "unknown", badgeWarnStyle
	}
}

func truncateTo(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return ansi.Truncate(s, max-1, "") + "…"
}
