package chrmap

import (
	"image"

	"github.com/bodgit/chrmap/chr"
	"golang.org/x/image/draw"
)

// Screen is one page of a tile map. Tiles holds one tile index per
// coordinate and ColorAttributes one packed attribute per attribute
// block, both row-major.
type Screen struct {
	m *TileMap

	Tiles           []int
	ColorAttributes []Attribute

	image *image.RGBA

	tileChanged []func(x, y int)
	editEnd     []func()
}

func newScreen(m *TileMap) *Screen {
	blocks := m.geometry.blocks()
	return &Screen{
		m:               m,
		Tiles:           make([]int, m.geometry.screenSize.X*m.geometry.screenSize.Y),
		ColorAttributes: make([]Attribute, blocks.X*blocks.Y),
		image:           image.NewRGBA(image.Rectangle{Max: m.geometry.pixels()}),
	}
}

// OnTileChanged registers fn to be called with the coordinate of every
// tile whose index or palette is written.
func (s *Screen) OnTileChanged(fn func(x, y int)) {
	s.tileChanged = append(s.tileChanged, fn)
}

// OnEditEnd registers fn to be called once at the end of every edit
// gesture.
func (s *Screen) OnEditEnd(fn func()) {
	s.editEnd = append(s.editEnd, fn)
}

func (s *Screen) changed(x, y int) {
	for _, fn := range s.tileChanged {
		fn(x, y)
	}
}

// EditEnd signals that a continuous edit gesture has finished.
func (s *Screen) EditEnd() {
	for _, fn := range s.editEnd {
		fn()
	}
}

// Image returns the cached raster of the screen.
func (s *Screen) Image() *image.RGBA {
	return s.image
}

// Tile returns the tile index at x, y or NoTile if the coordinate is
// outside of the screen.
func (s *Screen) Tile(x, y int) int {
	size := s.m.geometry.screenSize
	if x < 0 || x >= size.X || y < 0 || y >= size.Y {
		return NoTile
	}
	return s.Tiles[y*size.X+x]
}

// PrintTile writes the tile index at x, y. The coordinate must be inside
// the screen.
func (s *Screen) PrintTile(x, y, index int) {
	s.Tiles[y*s.m.geometry.screenSize.X+x] = index
	s.changed(x, y)
}

// ImportTiles writes a row-major grid of tile indices covering the whole
// screen, as produced by flattening an imported layered map.
func (s *Screen) ImportTiles(tiles []int) {
	width := s.m.geometry.screenSize.X
	for i := 0; i < len(tiles) && i < len(s.Tiles); i++ {
		s.PrintTile(i%width, i/width, tiles[i])
	}
}

func (s *Screen) attributeIndex(x, y int) int {
	return y*s.m.geometry.blocks().X + x
}

// Attribute returns the packed attribute of block x, y including the
// reserved bits.
func (s *Screen) Attribute(x, y int) Attribute {
	return s.ColorAttributes[s.attributeIndex(x, y)]
}

// ColorAttribute returns the palette index of block x, y.
func (s *Screen) ColorAttribute(x, y int) int {
	return s.Attribute(x, y).Palette()
}

// SetColorAttribute sets the palette index of block x, y leaving the
// reserved bits alone. Every tile covered by the block is reported as
// changed.
func (s *Screen) SetColorAttribute(x, y, index int) {
	i := s.attributeIndex(x, y)
	s.ColorAttributes[i] = s.ColorAttributes[i].WithPalette(index)

	if len(s.tileChanged) == 0 {
		return
	}
	size := s.m.geometry.attributeSize
	for dx := 0; dx < size.X; dx++ {
		for dy := 0; dy < size.Y; dy++ {
			s.changed(x*size.X+dx, y*size.Y+dy)
		}
	}
}

// ColorTile returns the palette index used by the tile at x, y.
func (s *Screen) ColorTile(x, y int) int {
	size := s.m.geometry.attributeSize
	return s.ColorAttribute(x/size.X, y/size.Y)
}

// SetColorTile sets the palette index of the attribute block containing
// the tile at x, y.
func (s *Screen) SetColorTile(x, y, index int) {
	size := s.m.geometry.attributeSize
	s.SetColorAttribute(x/size.X, y/size.Y, index)
}

// RefreshTile redraws the tile at x, y into the cached raster using the
// CHR data in chrData. A tile that can't be decoded, or that selects a
// palette missing from the table or too short for the bit depth, leaves
// the raster untouched.
func (s *Screen) RefreshTile(x, y int, chrData []byte) {
	g := s.m.geometry

	p := s.ColorTile(x, y)
	if p >= s.m.Palettes.Len() {
		return
	}
	pal := s.m.Palettes.Get(p)
	if pal.Len() < 1<<g.bitsPerPixel {
		return
	}

	tile, ok := chr.Render(chrData, s.Tiles[y*g.screenSize.X+x], pal.Colors, g.bitsPerPixel, g.layout)
	if !ok {
		return
	}

	r := image.Rect(x*chr.Width, y*chr.Height, (x+1)*chr.Width, (y+1)*chr.Height)
	draw.Draw(s.image, r, tile, image.Point{}, draw.Src)
}

// RefreshAllTiles redraws every tile of the screen.
func (s *Screen) RefreshAllTiles(chrData []byte) {
	size := s.m.geometry.screenSize
	for x := 0; x < size.X; x++ {
		for y := 0; y < size.Y; y++ {
			s.RefreshTile(x, y, chrData)
		}
	}
}
