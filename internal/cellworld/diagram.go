package cellworld

import "strings"

// diagramGlyphs maps each material to its 2-character ASCII diagram cell.
var diagramGlyphs = [...]string{
	Air:   "  ",
	Dirt:  "##",
	Water: "~~",
	Wood:  "||",
	Sand:  "::",
	Metal: "[]",
	Leaf:  "\"\"",
	Wall:  "@@",
	Seed:  "o.",
}

func glyphFor(c Cell) string {
	if c.IsEmpty() && !c.IsWall() {
		return "  "
	}
	if int(c.Material) < 0 || int(c.Material) >= len(diagramGlyphs) {
		return "??"
	}
	return diagramGlyphs[c.Material]
}

// ToAsciiDiagram renders the world as a bordered grid, two characters per
// cell separated by a single space: a top border of dashes sized to the
// row width (2*width + (width-1) for the inter-cell spaces), each row
// bracketed by '|', and a matching bottom border.
func (w *World) ToAsciiDiagram() string {
	var b strings.Builder

	border := strings.Repeat("-", 3*w.Width-1)
	if w.Width == 0 {
		border = ""
	}

	b.WriteByte('+')
	b.WriteString(border)
	b.WriteString("+\n")

	for y := 0; y < w.Height; y++ {
		b.WriteByte('|')
		for x := 0; x < w.Width; x++ {
			if x > 0 {
				b.WriteByte(' ')
			}
			c, _ := w.At(x, y)
			b.WriteString(glyphFor(c))
		}
		b.WriteString("|\n")
	}

	b.WriteByte('+')
	b.WriteString(border)
	b.WriteString("+\n")

	return b.String()
}
