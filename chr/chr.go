/*
Package chr implements a decoder and encoder for console CHR tile data.

CHR data is a flat buffer of 8 by 8 pixel tiles stored in planar format;
the color index of each pixel is rebuilt from the same bit position in
several plane bytes rather than being stored as one packed value. A tile
with a bit depth of n occupies 8 * n bytes and can address 2^n colors.

Two layouts are supported. In the Planar layout (as used by the NES) each
pair of planes is stored as eight bytes of the low plane followed by eight
bytes of the high plane. In the Interleaved layout (as used by the SNES)
the two bytes of each row are stored next to each other.
*/
package chr

// Layout selects how the bit planes of a tile are arranged in memory.
type Layout int

const (
	// Planar stores the low and high plane of each plane pair as two
	// consecutive 8 byte blocks
	Planar Layout = iota
	// Interleaved stores both plane bytes of a row next to each other
	Interleaved
)

func (l Layout) String() string {
	switch l {
	case Planar:
		return "planar"
	case Interleaved:
		return "interleaved"
	default:
		return "unknown"
	}
}

const (
	// Width is the width of a tile in pixels
	Width = 8
	// Height is the height of a tile in pixels
	Height = Width

	maxBitDepth = 8
)

// Tile is a decoded tile, indexed as [y][x]. Each entry is a color index.
type Tile [Height][Width]uint8

// ValidDepth reports whether bitDepth is supported by the codec. Planes
// are always consumed in pairs.
func ValidDepth(bitDepth int) bool {
	return bitDepth > 0 && bitDepth <= maxBitDepth && bitDepth%2 == 0
}

// TileSize returns the number of bytes used by one tile at bitDepth.
func TileSize(bitDepth int) int {
	return Height * bitDepth
}

// Count returns the number of whole tiles held in buf.
func Count(buf []byte, bitDepth int) int {
	if !ValidDepth(bitDepth) {
		return 0
	}
	return len(buf) / TileSize(bitDepth)
}

// FlipH returns the tile mirrored horizontally.
func (t Tile) FlipH() Tile {
	var f Tile
	for y := range t {
		for x := range t[y] {
			f[y][Width-1-x] = t[y][x]
		}
	}
	return f
}

// FlipV returns the tile mirrored vertically.
func (t Tile) FlipV() Tile {
	var f Tile
	for y := range t {
		f[Height-1-y] = t[y]
	}
	return f
}

// Byte offsets of the low and high plane byte for row y of plane pair j
func planeOffsets(layout Layout, j, y int) (int, int) {
	base := Height * j
	if layout == Interleaved {
		return base + y<<1, base + y<<1 + 1
	}
	return base + y, base + y + Height
}
