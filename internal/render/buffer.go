// Package render holds the character-cell screen model: a CP437 cell
// buffer and the CGA palette. Drawing it to a window lives in render/draw.
package render

import "strings"

// Cell is one character cell on screen.
type Cell struct {
	Glyph byte  // CP437 code
	FG    uint8 // palette index
	BG    uint8
}

var blank = Cell{Glyph: ' ', FG: ColorWhite, BG: ColorBlack}

// CellBuffer is a grid of character cells.
type CellBuffer struct {
	Cols  int
	Rows  int
	Cells []Cell
}

func NewCellBuffer(cols, rows int) *CellBuffer {
	b := &CellBuffer{Cols: cols, Rows: rows, Cells: make([]Cell, cols*rows)}
	b.Clear()
	return b
}

// Set writes one cell. Out-of-bounds writes are ignored.
func (b *CellBuffer) Set(x, y int, glyph byte, fg, bg uint8) {
	if x >= 0 && x < b.Cols && y >= 0 && y < b.Rows {
		b.Cells[y*b.Cols+x] = Cell{Glyph: glyph, FG: fg, BG: bg}
	}
}

// Get reads one cell. Out-of-bounds reads return the zero Cell.
func (b *CellBuffer) Get(x, y int) Cell {
	if x >= 0 && x < b.Cols && y >= 0 && y < b.Rows {
		return b.Cells[y*b.Cols+x]
	}
	return Cell{}
}

func (b *CellBuffer) Clear() {
	for i := range b.Cells {
		b.Cells[i] = blank
	}
}

// WriteString writes s from (x, y), one rune per cell, encoding to CP437.
// It returns the number of cells written.
func (b *CellBuffer) WriteString(x, y int, s string, fg, bg uint8) int {
	n := 0
	for _, r := range s {
		b.Set(x+n, y, Encode(r), fg, bg)
		n++
	}
	return n
}

// Row returns row y as a string, decoded back from CP437. Handy in tests.
func (b *CellBuffer) Row(y int) string {
	if y < 0 || y >= b.Rows {
		return ""
	}
	var sb strings.Builder
	for _, c := range b.Cells[y*b.Cols : (y+1)*b.Cols] {
		sb.WriteRune(CP437[c.Glyph])
	}
	return sb.String()
}

// Fill paints a rectangle with one cell value.
func (b *CellBuffer) Fill(x, y, w, h int, c Cell) {
	for yy := y; yy < y+h; yy++ {
		for xx := x; xx < x+w; xx++ {
			b.Set(xx, yy, c.Glyph, c.FG, c.BG)
		}
	}
}

// Box draws a single-line frame with an optional title on the top edge.
func (b *CellBuffer) Box(x, y, w, h int, title string, fg uint8) {
	if w < 2 || h < 2 {
		return
	}
	right, bottom := x+w-1, y+h-1
	for xx := x + 1; xx < right; xx++ {
		b.Set(xx, y, Encode('─'), fg, ColorBlack)
		b.Set(xx, bottom, Encode('─'), fg, ColorBlack)
	}
	for yy := y + 1; yy < bottom; yy++ {
		b.Set(x, yy, Encode('│'), fg, ColorBlack)
		b.Set(right, yy, Encode('│'), fg, ColorBlack)
	}
	b.Set(x, y, Encode('┌'), fg, ColorBlack)
	b.Set(right, y, Encode('┐'), fg, ColorBlack)
	b.Set(x, bottom, Encode('└'), fg, ColorBlack)
	b.Set(right, bottom, Encode('┘'), fg, ColorBlack)
	if title != "" {
		b.WriteString(x+2, y, " "+title+" ", fg, ColorBlack)
	}
}

// Bar draws a meter of width cells filled to ratio (clamped to [0, 1]).
func (b *CellBuffer) Bar(x, y, width int, ratio float64, fg uint8) {
	ratio = min(1, max(0, ratio))
	filled := int(ratio*float64(width) + 0.5)
	for i := 0; i < width; i++ {
		if i < filled {
			b.Set(x+i, y, GlyphBlock, fg, ColorBlack)
		} else {
			b.Set(x+i, y, GlyphShadeLight, ColorDarkGray, ColorBlack)
		}
	}
}
