package term

// ColorMode says how a Color's Value is to be interpreted.
type ColorMode uint8

const (
	// ColorDefault is the terminal's default foreground or background.
	ColorDefault ColorMode = iota
	// ColorANSI is one of the 16 basic ANSI colors (Value 0-15).
	ColorANSI
	// Color256 is an xterm 256-palette index (Value 0-255).
	Color256
	// ColorRGB is a 24-bit color (Value 0xRRGGBB).
	ColorRGB
)

// Color is a terminal color in one of the standard modes.
type Color struct {
	Mode  ColorMode
	Value uint32
}

// IsDefault reports whether the color is the terminal default.
func (c Color) IsDefault() bool { return c.Mode == ColorDefault }

// Style carries the graphic attributes of a single cell. It is the fixed
// capability contract the renderer depends on, independent of whichever
// emulator produced the cell.
type Style struct {
	Fg, Bg Color

	Bold          bool
	Faint         bool
	Italic        bool
	Underline     bool
	Inverse       bool
	Conceal       bool
	Strikethrough bool
}

// IsDefault reports whether the style carries no non-default attribute.
func (s Style) IsDefault() bool {
	return s == Style{}
}

// Cell is one grid position of the terminal buffer.
//
// Width is the display width: 0 for combining/zero-width content that
// attaches to the previous column, 1 for ordinary characters, 2 for wide
// (east-asian) characters that occupy two columns.
type Cell struct {
	Content string
	Width   int
	Style   Style
}

// BlankCell is the cell used for positions the emulator has never written.
var BlankCell = Cell{Content: " ", Width: 1}
