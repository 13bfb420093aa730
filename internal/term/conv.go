package term

import (
	"image/color"

	uv "github.com/charmbracelet/ultraviolet"
	"github.com/charmbracelet/x/ansi"
)

// convertCell maps an emulator cell into the package's own Cell type so the
// rest of the codebase never touches emulator internals.
func convertCell(c *uv.Cell) Cell {
	if c == nil || c.Content == "" {
		return BlankCell
	}
	w := c.Width
	if w <= 0 {
		w = 1
	}
	return Cell{
		Content: c.Content,
		Width:   w,
		Style:   convertStyle(c.Style),
	}
}

func convertStyle(s uv.Style) Style {
	out := Style{
		Fg:            convertColor(s.Fg),
		Bg:            convertColor(s.Bg),
		Bold:          s.Attrs&uv.AttrBold != 0,
		Faint:         s.Attrs&uv.AttrFaint != 0,
		Italic:        s.Attrs&uv.AttrItalic != 0,
		Inverse:       s.Attrs&uv.AttrReverse != 0,
		Conceal:       s.Attrs&uv.AttrConceal != 0,
		Strikethrough: s.Attrs&uv.AttrStrikethrough != 0,
	}
	if s.Underline != uv.UnderlineNone {
		out.Underline = true
	}
	return out
}

func convertColor(c color.Color) Color {
	switch v := c.(type) {
	case nil:
		return Color{}
	case ansi.BasicColor:
		return Color{Mode: ColorANSI, Value: uint32(v)}
	case ansi.IndexedColor:
		return Color{Mode: Color256, Value: uint32(v)}
	case ansi.TrueColor:
		return Color{Mode: ColorRGB, Value: uint32(v)}
	default:
		r, g, b, _ := c.RGBA()
		return Color{Mode: ColorRGB, Value: uint32(r>>8)<<16 | uint32(g>>8)<<8 | uint32(b>>8)}
	}
}
