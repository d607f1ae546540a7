package chr

import (
	"image"
	"image/color"
)

func inRange(buf []byte, index, bitDepth int) bool {
	if index < 0 || !ValidDepth(bitDepth) {
		return false
	}
	// Equivalent to offset + size > len(buf) without overflowing on huge
	// indices
	return index < len(buf)/TileSize(bitDepth)
}

// Decode decodes tile number index from buf. It returns false if the
// index is negative or the tile would extend past the end of buf. The
// bounds are checked on every call as buf may change size between calls.
func Decode(buf []byte, index, bitDepth int, layout Layout) (Tile, bool) {
	var t Tile
	if !inRange(buf, index, bitDepth) {
		return t, false
	}

	size := TileSize(bitDepth)
	data := buf[index*size : index*size+size]

	for y := 0; y < Height; y++ {
		for j := 0; j < bitDepth; j += 2 {
			i0, i1 := planeOffsets(layout, j, y)
			b0, b1 := data[i0], data[i1]
			for x := 0; x < Width; x++ {
				bit0 := b0 >> (7 - x) & 1
				bit1 := b1 >> (7 - x) & 1
				t[y][x] |= bit0<<j | bit1<<(j+1)
			}
		}
	}

	return t, true
}

// Render decodes tile number index from buf and maps every color index
// through palette. The palette must hold at least 2^bitDepth colors.
func Render(buf []byte, index int, palette []color.RGBA, bitDepth int, layout Layout) (*image.RGBA, bool) {
	t, ok := Decode(buf, index, bitDepth, layout)
	if !ok {
		return nil, false
	}

	m := image.NewRGBA(image.Rect(0, 0, Width, Height))
	for y := range t {
		for x, c := range t[y] {
			m.SetRGBA(x, y, palette[c])
		}
	}

	return m, true
}
