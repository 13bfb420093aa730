package render

import (
	"strings"
	"testing"

	"github.com/DeprecatedLuke/oh-my-pi/internal/term"
)

func plainCells(s string) []term.Cell {
	cells := make([]term.Cell, 0, len(s))
	for _, r := range s {
		cells = append(cells, term.Cell{Content: string(r), Width: 1})
	}
	return cells
}

func styledCells(s string, st term.Style) []term.Cell {
	cells := plainCells(s)
	for i := range cells {
		cells[i].Style = st
	}
	return cells
}

func TestRenderRowPlain(t *testing.T) {
	got := RenderRow(plainCells("hello"), 10)
	if got != "hello" {
		t.Errorf("plain row = %q, want %q", got, "hello")
	}
	if strings.Contains(got, "\x1b") {
		t.Errorf("plain row must not contain escapes: %q", got)
	}
}

func TestRenderRowSingleRunOneEscape(t *testing.T) {
	bold := term.Style{Bold: true}
	got := RenderRow(styledCells("abc", bold), 10)

	if n := strings.Count(got, "\x1b["); n != 2 {
		t.Errorf("expected exactly one style escape plus one reset, got %d escapes in %q", n, got)
	}
	if !strings.HasSuffix(got, "\x1b[0m") {
		t.Errorf("styled row must end with a reset: %q", got)
	}
	if !strings.Contains(got, "abc") {
		t.Errorf("content missing from %q", got)
	}
}

func TestRenderRowStyleTransitions(t *testing.T) {
	red := term.Style{Fg: term.Color{Mode: term.ColorANSI, Value: 1}}
	row := append(styledCells("ab", red), plainCells("cd")...)
	got := RenderRow(row, 10)

	// red run, reset for the default run, final reset closing the row
	if n := strings.Count(got, "\x1b["); n != 3 {
		t.Errorf("expected 3 escapes (enter red, back to default, trailing reset), got %d in %q", n, got)
	}
	if got != "\x1b[0;31mab\x1b[0mcd\x1b[0m" {
		t.Errorf("unexpected run layout: %q", got)
	}
}

func TestRenderRowStyledAlwaysEndsWithReset(t *testing.T) {
	red := term.Style{Fg: term.Color{Mode: term.ColorANSI, Value: 1}}
	rows := [][]term.Cell{
		append(styledCells("ab", red), plainCells("cd")...),
		styledCells("ab", red),
		append(plainCells("cd"), styledCells("ab", red)...),
	}
	for _, row := range rows {
		got := RenderRow(row, 10)
		if !strings.HasSuffix(got, "\x1b[0m") {
			t.Errorf("row with escapes must end with a reset: %q", got)
		}
		if strings.HasSuffix(got, "\x1b[0m\x1b[0m") {
			t.Errorf("row must not end with a doubled reset: %q", got)
		}
	}
}

func TestRenderRowWideCharOverflow(t *testing.T) {
	row := append(plainCells("abc"), term.Cell{Content: "界", Width: 2})
	got := RenderRow(row, 4)

	if strings.Contains(got, "界") {
		t.Errorf("wide char crossing the right edge must not be emitted: %q", got)
	}
	if got != "abc " {
		t.Errorf("overflow should pad with a space: %q", got)
	}
}

func TestRenderRowWideCharFits(t *testing.T) {
	row := append(plainCells("ab"), term.Cell{Content: "界", Width: 2})
	got := RenderRow(row, 4)
	if got != "ab界" {
		t.Errorf("wide char within width should render: %q", got)
	}
}

func TestRenderRowConcealAsSpaces(t *testing.T) {
	st := term.Style{Conceal: true}
	got := RenderRow(styledCells("secret", st), 10)
	if strings.Contains(got, "secret") {
		t.Errorf("concealed content leaked: %q", got)
	}
	if !strings.Contains(got, "      ") {
		t.Errorf("concealed cells should render as spaces: %q", got)
	}
}

func TestRenderRowZeroWidth(t *testing.T) {
	row := []term.Cell{
		{Content: "e", Width: 1},
		{Content: "́", Width: 0}, // combining accent
		{Content: "x", Width: 1},
	}
	got := RenderRow(row, 2)
	if got != "éx" {
		t.Errorf("zero-width cell must not consume a column: %q", got)
	}
}

func TestRenderRowTruncatesAtWidth(t *testing.T) {
	got := RenderRow(plainCells("abcdef"), 3)
	if got != "abc" {
		t.Errorf("row should stop at width: %q", got)
	}
}

func TestColorParams(t *testing.T) {
	tests := []struct {
		name  string
		color term.Color
		bg    bool
		want  string
	}{
		{"basic fg", term.Color{Mode: term.ColorANSI, Value: 1}, false, "31"},
		{"bright fg", term.Color{Mode: term.ColorANSI, Value: 9}, false, "91"},
		{"basic bg", term.Color{Mode: term.ColorANSI, Value: 4}, true, "44"},
		{"bright bg", term.Color{Mode: term.ColorANSI, Value: 12}, true, "104"},
		{"256 fg", term.Color{Mode: term.Color256, Value: 208}, false, "38;5;208"},
		{"256 bg", term.Color{Mode: term.Color256, Value: 17}, true, "48;5;17"},
		{"rgb fg", term.Color{Mode: term.ColorRGB, Value: 0xff8000}, false, "38;2;255;128;0"},
		{"default", term.Color{}, false, ""},
	}
	for _, tt := range tests {
		got := strings.Join(colorParams(tt.color, tt.bg), ";")
		if got != tt.want {
			t.Errorf("%s: colorParams = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestRenderWindow(t *testing.T) {
	rows := [][]term.Cell{plainCells("one"), plainCells("two")}
	got := RenderWindow(rows, 10)
	if got != "one\ntwo" {
		t.Errorf("RenderWindow = %q", got)
	}
}
