package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		in   rune
		want byte
	}{
		{'A', 'A'},
		{'~', '~'},
		{'░', GlyphShadeLight},
		{'█', GlyphBlock},
		{'─', 196},
		{'┌', 218},
		{'■', GlyphSquare},
		{'é', 130},
		{'漢', '?'},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Encode(tt.in), string(tt.in))
	}
}

func TestCP437RoundTrip(t *testing.T) {
	for code := 32; code < 256; code++ {
		r := CP437[code]
		if r == '·' || r == 0x00A0 {
			continue
		}
		assert.Equal(t, byte(code), Encode(r), "code %d", code)
	}
}

func TestWriteStringClipsAndEncodes(t *testing.T) {
	b := NewCellBuffer(8, 2)
	n := b.WriteString(5, 0, "O₂ █", ColorCyan, ColorBlack)
	assert.Equal(t, 4, n)
	assert.Equal(t, "     O? ", b.Row(0))
	assert.Equal(t, Cell{}, b.Get(9, 0))
	assert.Equal(t, Cell{Glyph: 'O', FG: ColorCyan}, b.Get(5, 0))
}

func TestBoxAndBar(t *testing.T) {
	b := NewCellBuffer(10, 3)
	b.Box(0, 0, 10, 3, "Hi", ColorWhite)
	assert.Equal(t, "┌─ Hi ───┐", b.Row(0))
	assert.Equal(t, "│        │", b.Row(1))
	assert.Equal(t, "└────────┘", b.Row(2))

	b.Clear()
	b.Bar(0, 1, 10, 0.34, ColorGreen)
	assert.Equal(t, "███░░░░░░░", b.Row(1))
	b.Bar(0, 1, 10, 2, ColorGreen)
	assert.Equal(t, strings.Repeat("█", 10), b.Row(1))
	b.Bar(0, 1, 10, -1, ColorGreen)
	assert.Equal(t, strings.Repeat("░", 10), b.Row(1))
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, uint8(ColorLightRed), Severity(0.2, ColorGreen))
	assert.Equal(t, uint8(ColorYellow), Severity(0.45, ColorGreen))
	assert.Equal(t, uint8(ColorGreen), Severity(0.9, ColorGreen))
}
