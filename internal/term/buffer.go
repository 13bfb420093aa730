package term

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"
	"github.com/charmbracelet/x/vt"
)

const (
	// historyMaxBytes bounds the raw output history kept for scrollback
	// extraction. Oldest bytes are discarded first.
	historyMaxBytes = 1 << 20 // 1MiB

	// DefaultScrollbackLines is the scrollback row cap used for capture.
	DefaultScrollbackLines = 2000
)

// feedReq is either a chunk of raw output or, when settled is non-nil, a
// flush barrier marker.
type feedReq struct {
	data    []byte
	settled chan struct{}
}

// Buffer is a virtual terminal: fed raw PTY output, it maintains a styled
// cell grid for the visible viewport plus a bounded raw history from which
// scrollback is reconstructed at capture time.
//
// Parsing happens on a dedicated goroutine, decoupled from Feed. Any reader
// that needs to observe all previously fed bytes must call Flush first.
type Buffer struct {
	// sendMu guards closed and all sends on feedc, so Close never races
	// a concurrent Feed into a closed channel.
	sendMu sync.Mutex
	closed bool
	feedc  chan feedReq

	mu   sync.Mutex
	emu  *vt.Emulator
	cols int
	rows int

	// raw history for scrollback replay, OSC-stripped
	history    []byte
	overflowed bool
	lfCount    int

	scrollbackMax int
	emuClosed     bool
	finalGrid     [][]Cell
	osc           oscState // parse goroutine only
}

// NewBuffer creates a buffer with the given viewport size.
func NewBuffer(cols, rows int) *Buffer {
	if cols <= 0 {
		cols = 80
	}
	if rows <= 0 {
		rows = 24
	}
	b := &Buffer{
		emu:           vt.NewEmulator(cols, rows),
		cols:          cols,
		rows:          rows,
		feedc:         make(chan feedReq, 64),
		scrollbackMax: DefaultScrollbackLines,
		history:       make([]byte, 0, 32*1024),
	}
	go b.parseLoop()
	return b
}

// Feed queues raw output bytes for parsing. The bytes are not guaranteed
// to be visible to queries until a subsequent Flush completes.
func (b *Buffer) Feed(p []byte) {
	if len(p) == 0 {
		return
	}
	data := make([]byte, len(p))
	copy(data, p)
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if b.closed {
		return
	}
	b.feedc <- feedReq{data: data}
}

// Flush is the synchronization barrier: it returns once every byte fed
// before this call has been parsed into queryable state. Reading capture
// state without flushing first can miss the final output of a process whose
// exit notification raced ahead of its last chunk.
func (b *Buffer) Flush(ctx context.Context) error {
	settled := make(chan struct{})
	b.sendMu.Lock()
	if b.closed {
		b.sendMu.Unlock()
		return nil
	}
	select {
	case b.feedc <- feedReq{settled: settled}:
		b.sendMu.Unlock()
	case <-ctx.Done():
		b.sendMu.Unlock()
		return ctx.Err()
	}
	select {
	case <-settled:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Buffer) parseLoop() {
	for req := range b.feedc {
		if req.settled != nil {
			close(req.settled)
			continue
		}
		data := stripOSC(req.data, &b.osc)
		if len(data) == 0 {
			continue
		}
		b.mu.Lock()
		_, _ = b.emu.Write(data)
		b.appendHistory(data)
		b.mu.Unlock()
	}
	// feedc closed: drained everything. Snapshot the grid so the final
	// frame stays renderable, then release the emulator.
	b.mu.Lock()
	grid := make([][]Cell, b.rows)
	for y := range grid {
		grid[y] = b.lineLocked(y)
	}
	b.finalGrid = grid
	b.emuClosed = true
	_ = b.emu.Close()
	b.mu.Unlock()
}

// appendHistory keeps the raw tail within historyMaxBytes. Caller holds mu.
func (b *Buffer) appendHistory(data []byte) {
	for _, c := range data {
		if c == '\n' {
			b.lfCount++
		}
	}
	b.history = append(b.history, data...)
	if len(b.history) > historyMaxBytes {
		b.overflowed = true
		b.history = b.history[len(b.history)-historyMaxBytes:]
	}
}

// Resize changes the viewport size and propagates it to the emulator.
func (b *Buffer) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.emuClosed || (cols == b.cols && rows == b.rows) {
		return
	}
	b.cols, b.rows = cols, rows
	b.emu.Resize(cols, rows)
}

// Size returns the current viewport size.
func (b *Buffer) Size() (cols, rows int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cols, b.rows
}

// Line returns the cells of viewport row y.
func (b *Buffer) Line(y int) []Cell {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lineLocked(y)
}

// Lines returns viewport rows [start, end).
func (b *Buffer) Lines(start, end int) [][]Cell {
	b.mu.Lock()
	defer b.mu.Unlock()
	if start < 0 {
		start = 0
	}
	if end > b.rows {
		end = b.rows
	}
	if start >= end {
		return nil
	}
	rows := make([][]Cell, 0, end-start)
	for y := start; y < end; y++ {
		rows = append(rows, b.lineLocked(y))
	}
	return rows
}

func (b *Buffer) lineLocked(y int) []Cell {
	if y < 0 || y >= b.rows {
		return nil
	}
	if b.emuClosed {
		if y < len(b.finalGrid) {
			return b.finalGrid[y]
		}
		return nil
	}
	cells := make([]Cell, 0, b.cols)
	for x := 0; x < b.cols; {
		c := convertCell(b.emu.CellAt(x, y))
		cells = append(cells, c)
		if c.Width > 1 {
			x += c.Width
		} else {
			x++
		}
	}
	return cells
}

// ScrollbackText reconstructs the full output history (viewport plus
// backlog) as plain text lines, capped at the scrollback limit. The second
// result reports whether output beyond the cap (or beyond the raw history
// budget) was produced.
//
// The history is replayed through a capture emulator tall enough to hold
// the whole scrollback, so cursor movement and line wrapping resolve the
// same way they did on screen.
func (b *Buffer) ScrollbackText() (lines []string, truncated bool) {
	b.mu.Lock()
	history := make([]byte, len(b.history))
	copy(history, b.history)
	cols := b.cols
	overflowed := b.overflowed
	lfCount := b.lfCount
	max := b.scrollbackMax
	b.mu.Unlock()

	truncated = overflowed || lfCount > max
	if len(history) == 0 {
		return nil, truncated
	}

	capture := vt.NewEmulator(cols, max)
	defer capture.Close()
	_, _ = capture.Write(history)
	lines = renderedLines(capture)

	// Drop the blank tail of the mostly-empty capture grid.
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines, truncated
}

// renderedLines converts the emulator's rendered screen into plain text
// rows, one string per row, with all escape sequences removed.
func renderedLines(emu *vt.Emulator) []string {
	out := ansi.Strip(emu.Render())
	out = strings.ReplaceAll(out, "\r\n", "\n")
	out = strings.ReplaceAll(out, "\r", "")
	lines := strings.Split(out, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return lines
}

// Close stops accepting input and releases the emulator once queued bytes
// are drained. The last parsed grid stays readable through Line/Lines so a
// closing frame can still render. Safe to call more than once.
func (b *Buffer) Close() {
	b.sendMu.Lock()
	defer b.sendMu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.feedc)
}

// oscState carries OSC-stripping state across chunk boundaries. esc tracks
// a bare ESC seen as the final byte of a chunk, so an opener (ESC ]) or an
// ST terminator (ESC \) split across two reads still parses.
type oscState struct {
	inOSC bool
	esc   bool
}

// stripOSC removes OSC escape sequences from a chunk. A sequence opened in
// one chunk keeps being skipped in the next until its BEL or ST terminator
// arrives. Shells emit OSC (titles, background color queries) that must not
// leak into capture.
func stripOSC(p []byte, st *oscState) []byte {
	out := make([]byte, 0, len(p))
	for _, c := range p {
		if st.inOSC {
			switch {
			case c == 0x07: // BEL
				st.inOSC, st.esc = false, false
			case st.esc && c == '\\': // ST
				st.inOSC, st.esc = false, false
			default:
				st.esc = c == 0x1b
			}
			continue
		}
		if st.esc {
			st.esc = false
			if c == ']' {
				st.inOSC = true
				continue
			}
			out = append(out, 0x1b, c)
			continue
		}
		if c == 0x1b {
			st.esc = true
			continue
		}
		out = append(out, c)
	}
	return out
}
