// Package draw paints a render.CellBuffer onto an Ebitengine screen.
package draw

import (
	"image"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/astrodebt/astrodebt/internal/render"
)

const (
	GlyphWidth  = 16
	GlyphHeight = 16
	atlasCols   = 16
)

var ink = color.NRGBA{255, 255, 255, 255}

// Atlas holds one white 16x16 sprite per CP437 code. Glyphs are tinted
// with the cell color when drawn.
type Atlas struct {
	glyphs [256]*ebiten.Image
}

// NewAtlas rasterizes the code page. Printable ASCII and Latin glyphs come
// from basicfont.Face7x13; frames and shades are drawn by hand.
func NewAtlas() *Atlas {
	img := image.NewNRGBA(image.Rect(0, 0, atlasCols*GlyphWidth, atlasCols*GlyphHeight))
	face := basicfont.Face7x13

	for code := 0; code < 256; code++ {
		cx := code % atlasCols * GlyphWidth
		cy := code / atlasCols * GlyphHeight
		r := render.CP437[code]

		switch {
		case drawLines(img, cx, cy, r):
		case drawShade(img, cx, cy, byte(code)):
		case r > ' ' && r != 0x00A0:
			d := &font.Drawer{
				Dst:  img,
				Src:  image.NewUniform(ink),
				Face: face,
				Dot:  fixed.P(cx+4, cy+13),
			}
			d.DrawString(string(r))
		}
	}

	sheet := ebiten.NewImageFromImage(img)
	a := &Atlas{}
	for code := range a.glyphs {
		x := code % atlasCols * GlyphWidth
		y := code / atlasCols * GlyphHeight
		a.glyphs[code] = sheet.SubImage(image.Rect(x, y, x+GlyphWidth, y+GlyphHeight)).(*ebiten.Image)
	}
	return a
}

func (a *Atlas) Glyph(code byte) *ebiten.Image { return a.glyphs[code] }

// edges lists which sides a frame glyph connects to: left, right, up, down.
// The second element marks double-line strokes.
var edges = map[rune]struct {
	sides  [4]bool
	double bool
}{
	'│': {[4]bool{false, false, true, true}, false},
	'─': {[4]bool{true, true, false, false}, false},
	'┌': {[4]bool{false, true, false, true}, false},
	'┐': {[4]bool{true, false, false, true}, false},
	'└': {[4]bool{false, true, true, false}, false},
	'┘': {[4]bool{true, false, true, false}, false},
	'├': {[4]bool{false, true, true, true}, false},
	'┤': {[4]bool{true, false, true, true}, false},
	'┬': {[4]bool{true, true, false, true}, false},
	'┴': {[4]bool{true, true, true, false}, false},
	'┼': {[4]bool{true, true, true, true}, false},
	'║': {[4]bool{false, false, true, true}, true},
	'═': {[4]bool{true, true, false, false}, true},
	'╔': {[4]bool{false, true, false, true}, true},
	'╗': {[4]bool{true, false, false, true}, true},
	'╚': {[4]bool{false, true, true, false}, true},
	'╝': {[4]bool{true, false, true, false}, true},
}

// drawLines strokes a box-drawing glyph from the cell center. Double lines
// are two 1px strokes 3px apart.
func drawLines(img *image.NRGBA, cellX, cellY int, r rune) bool {
	e, ok := edges[r]
	if !ok {
		return false
	}
	offsets := []int{7, 8}
	if e.double {
		offsets = []int{5, 10}
	}
	left, right, up, down := e.sides[0], e.sides[1], e.sides[2], e.sides[3]
	for _, o := range offsets {
		if left {
			hline(img, cellX, cellX+8, cellY+o)
		}
		if right {
			hline(img, cellX+7, cellX+GlyphWidth, cellY+o)
		}
		if up {
			vline(img, cellX+o, cellY, cellY+8)
		}
		if down {
			vline(img, cellX+o, cellY+7, cellY+GlyphHeight)
		}
	}
	return true
}

func hline(img *image.NRGBA, x0, x1, y int) {
	for x := x0; x < x1; x++ {
		img.SetNRGBA(x, y, ink)
	}
}

func vline(img *image.NRGBA, x, y0, y1 int) {
	for y := y0; y < y1; y++ {
		img.SetNRGBA(x, y, ink)
	}
}

// drawShade fills shade and block glyphs with a pixel mask.
func drawShade(img *image.NRGBA, cellX, cellY int, code byte) bool {
	var on func(x, y int) bool
	switch code {
	case render.GlyphShadeLight:
		on = func(x, y int) bool { return (x+y)%4 == 0 }
	case render.GlyphShadeMedium:
		on = func(x, y int) bool { return (x+y)%2 == 0 }
	case render.GlyphShadeDark:
		on = func(x, y int) bool { return (x+y)%4 != 0 }
	case render.GlyphBlock:
		on = func(int, int) bool { return true }
	case 220: // ▄
		on = func(_, y int) bool { return y >= GlyphHeight/2 }
	case 223: // ▀
		on = func(_, y int) bool { return y < GlyphHeight/2 }
	case render.GlyphSquare:
		on = func(x, y int) bool { return x >= 4 && x < 12 && y >= 4 && y < 12 }
	default:
		return false
	}
	for y := 0; y < GlyphHeight; y++ {
		for x := 0; x < GlyphWidth; x++ {
			if on(x, y) {
				img.SetNRGBA(cellX+x, cellY+y, ink)
			}
		}
	}
	return true
}
