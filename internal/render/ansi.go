// Package render turns styled terminal cells back into ANSI-escaped text,
// emitting one SGR sequence per run of identically-styled cells rather than
// one per cell.
package render

import (
	"strconv"
	"strings"

	"github.com/DeprecatedLuke/oh-my-pi/internal/term"
)

// RenderRow renders one row of cells into a string at most width columns
// wide. Concealed cells come out as spaces. A wide character that would
// cross the right edge is replaced by padding spaces so the output never
// exceeds width.
func RenderRow(cells []term.Cell, width int) string {
	var sb strings.Builder
	var cur term.Style
	wroteEscape := false
	col := 0
	for _, c := range cells {
		if col >= width {
			break
		}
		w := c.Width
		if w < 0 {
			w = 1
		}
		if w == 0 {
			// combining/zero-width content rides on the current column
			if c.Style != cur {
				writeSGR(&sb, c.Style)
				cur = c.Style
				wroteEscape = true
			}
			sb.WriteString(c.Content)
			continue
		}
		if col+w > width {
			// wide char does not fit; pad the remainder
			if !cur.IsDefault() {
				sb.WriteString("\x1b[0m")
				cur = term.Style{}
			}
			sb.WriteString(strings.Repeat(" ", width-col))
			col = width
			break
		}
		st := c.Style
		if st.Conceal {
			// concealed content renders as spaces but keeps its style run
			if st != cur {
				writeSGR(&sb, st)
				cur = st
				wroteEscape = true
			}
			sb.WriteString(strings.Repeat(" ", w))
			col += w
			continue
		}
		if st != cur {
			writeSGR(&sb, st)
			cur = st
			wroteEscape = true
		}
		if c.Content == "" {
			sb.WriteString(" ")
		} else {
			sb.WriteString(c.Content)
		}
		col += w
	}
	out := sb.String()
	// any escape in the row means it must terminate with a reset
	if wroteEscape && !strings.HasSuffix(out, "\x1b[0m") {
		out += "\x1b[0m"
	}
	return out
}

// RenderWindow renders multiple rows joined by newlines.
func RenderWindow(rows [][]term.Cell, width int) string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = RenderRow(r, width)
	}
	return strings.Join(out, "\n")
}

// writeSGR emits a single escape sequence that fully describes the style,
// always starting from a reset so runs never inherit earlier attributes.
func writeSGR(sb *strings.Builder, s term.Style) {
	if s.IsDefault() {
		sb.WriteString("\x1b[0m")
		return
	}
	params := []string{"0"}
	if s.Bold {
		params = append(params, "1")
	}
	if s.Faint {
		params = append(params, "2")
	}
	if s.Italic {
		params = append(params, "3")
	}
	if s.Underline {
		params = append(params, "4")
	}
	if s.Inverse {
		params = append(params, "7")
	}
	if s.Conceal {
		params = append(params, "8")
	}
	if s.Strikethrough {
		params = append(params, "9")
	}
	params = append(params, colorParams(s.Fg, false)...)
	params = append(params, colorParams(s.Bg, true)...)
	sb.WriteString("\x1b[")
	sb.WriteString(strings.Join(params, ";"))
	sb.WriteString("m")
}

func colorParams(c term.Color, bg bool) []string {
	switch c.Mode {
	case term.ColorANSI:
		n := c.Value
		base := uint32(30)
		if n >= 8 {
			base = 90
			n -= 8
		}
		if bg {
			base += 10
		}
		return []string{strconv.Itoa(int(base + n))}
	case term.Color256:
		lead := "38"
		if bg {
			lead = "48"
		}
		return []string{lead, "5", strconv.Itoa(int(c.Value))}
	case term.ColorRGB:
		lead := "38"
		if bg {
			lead = "48"
		}
		v := c.Value
		return []string{
			lead, "2",
			strconv.Itoa(int(v >> 16 & 0xff)),
			strconv.Itoa(int(v >> 8 & 0xff)),
			strconv.Itoa(int(v & 0xff)),
		}
	default:
		return nil
	}
}
