package draw

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/astrodebt/astrodebt/internal/render"
)

// Grid draws a CellBuffer to the screen at a fixed cell size.
type Grid struct {
	atlas *Atlas
	cellW int
	cellH int
	pixel *ebiten.Image // 1x1 white, scaled for cell backgrounds
}

func NewGrid(atlas *Atlas, cellW, cellH int) *Grid {
	pixel := ebiten.NewImage(1, 1)
	pixel.Fill(color.White)
	return &Grid{atlas: atlas, cellW: cellW, cellH: cellH, pixel: pixel}
}

func (g *Grid) Draw(screen *ebiten.Image, buf *render.CellBuffer) {
	sx := float64(g.cellW) / GlyphWidth
	sy := float64(g.cellH) / GlyphHeight

	for i, cell := range buf.Cells {
		px := float64(i % buf.Cols * g.cellW)
		py := float64(i / buf.Cols * g.cellH)

		if cell.BG != render.ColorBlack {
			var op ebiten.DrawImageOptions
			op.GeoM.Scale(float64(g.cellW), float64(g.cellH))
			op.GeoM.Translate(px, py)
			op.ColorScale.ScaleWithColor(render.Palette[cell.BG])
			screen.DrawImage(g.pixel, &op)
		}
		if cell.Glyph == ' ' || cell.Glyph == 0 {
			continue
		}
		var op ebiten.DrawImageOptions
		op.GeoM.Scale(sx, sy)
		op.GeoM.Translate(px, py)
		op.ColorScale.ScaleWithColor(render.Palette[cell.FG])
		screen.DrawImage(g.atlas.Glyph(cell.Glyph), &op)
	}
}
