package chr

func (t *Tile) encode(data []byte, bitDepth int, layout Layout) {
	for y := 0; y < Height; y++ {
		for j := 0; j < bitDepth; j += 2 {
			var b0, b1 byte
			for x := 0; x < Width; x++ {
				c := t[y][x]
				b0 |= (c >> j & 1) << (7 - x)
				b1 |= (c >> (j + 1) & 1) << (7 - x)
			}
			i0, i1 := planeOffsets(layout, j, y)
			data[i0], data[i1] = b0, b1
		}
	}
}

// Encode returns the planar representation of t. Color index bits above
// bitDepth are discarded.
func Encode(t Tile, bitDepth int, layout Layout) []byte {
	if !ValidDepth(bitDepth) {
		return nil
	}
	b := make([]byte, TileSize(bitDepth))
	t.encode(b, bitDepth, layout)
	return b
}

// Put encodes t in place as tile number index of buf. It returns false,
// leaving buf untouched, if the tile does not fit.
func Put(buf []byte, index int, t Tile, bitDepth int, layout Layout) bool {
	if !inRange(buf, index, bitDepth) {
		return false
	}
	size := TileSize(bitDepth)
	t.encode(buf[index*size:index*size+size], bitDepth, layout)
	return true
}
