package chrmap

import (
	"image"

	"github.com/bodgit/chrmap/chr"
	"github.com/bodgit/chrmap/palette"
	"golang.org/x/image/draw"
)

// TileMap is a grid of screens sharing one geometry and one palette
// table. A screen slot stays absent until something is written to it.
type TileMap struct {
	geometry geometry
	size     image.Point
	screens  *grid

	// MetaTileResolutions lists the meta tile sizes offered to the editor
	MetaTileResolutions []int
	// ChrSource refers to the external CHR data used by the map
	ChrSource string
	// Palettes is the palette table shared by every screen
	Palettes *palette.Table

	materialized []func(x, y int, s *Screen)
}

// Option configures a TileMap created by NewTileMap.
type Option func(*TileMap)

// WithSize sets the number of screens across and down.
func WithSize(width, height int) Option {
	return func(m *TileMap) {
		m.size = image.Pt(width, height)
	}
}

// WithScreenSize sets the size of each screen in tiles.
func WithScreenSize(width, height int) Option {
	return func(m *TileMap) {
		m.geometry.screenSize = image.Pt(width, height)
	}
}

// WithAttributeSize sets the size of each attribute block in tiles.
func WithAttributeSize(width, height int) Option {
	return func(m *TileMap) {
		m.geometry.attributeSize = image.Pt(width, height)
	}
}

// WithBitsPerPixel sets the bit depth of the CHR data.
func WithBitsPerPixel(bpp int) Option {
	return func(m *TileMap) {
		m.geometry.bitsPerPixel = bpp
	}
}

// WithLayout sets the plane layout of the CHR data.
func WithLayout(layout chr.Layout) Option {
	return func(m *TileMap) {
		m.geometry.layout = layout
	}
}

// WithPalettes sets the initial palette table.
func WithPalettes(palettes ...palette.Palette) Option {
	return func(m *TileMap) {
		m.Palettes = palette.NewTable(palettes...)
	}
}

// NewTileMap returns a new, empty tile map. Without options it is a
// single 32 by 30 tile screen with 2 by 2 attribute blocks and 2 bits per
// pixel.
func NewTileMap(options ...Option) (*TileMap, error) {
	m := &TileMap{
		geometry:            defaultGeometry(),
		size:                image.Pt(1, 1),
		MetaTileResolutions: []int{2, 4},
		Palettes:            palette.NewTable(),
	}
	for _, o := range options {
		o(m)
	}

	if err := m.geometry.validate(); err != nil {
		return nil, err
	}
	if m.size.X <= 0 || m.size.Y <= 0 {
		return nil, errBadMapSize
	}
	m.screens = newGrid(m.size.X, m.size.Y)

	return m, nil
}

// Size returns the number of screens across and down.
func (m *TileMap) Size() (int, int) {
	return m.screens.width, m.screens.height
}

// ScreenSize returns the size of a screen in tiles.
func (m *TileMap) ScreenSize() image.Point {
	return m.geometry.screenSize
}

// AttributeSize returns the size of an attribute block in tiles.
func (m *TileMap) AttributeSize() image.Point {
	return m.geometry.attributeSize
}

// BaseTileSize returns the size of a tile in pixels.
func (m *TileMap) BaseTileSize() image.Point {
	return image.Pt(chr.Width, chr.Height)
}

// BitsPerPixel returns the bit depth of the CHR data.
func (m *TileMap) BitsPerPixel() int {
	return m.geometry.bitsPerPixel
}

// ColorCount returns the number of colors a tile can address.
func (m *TileMap) ColorCount() int {
	return 1 << m.geometry.bitsPerPixel
}

// Layout returns the plane layout of the CHR data.
func (m *TileMap) Layout() chr.Layout {
	return m.geometry.layout
}

// OnMaterialize registers fn to be called whenever an absent screen slot
// is allocated.
func (m *TileMap) OnMaterialize(fn func(x, y int, s *Screen)) {
	m.materialized = append(m.materialized, fn)
}

// Screen returns the screen at x, y. It returns false if the slot is
// absent or outside of the map.
func (m *TileMap) Screen(x, y int) (*Screen, bool) {
	return m.screens.get(x, y)
}

// MaterializeScreen returns the screen at x, y, allocating a blank screen
// if the slot is absent. The slot must be inside the map.
func (m *TileMap) MaterializeScreen(x, y int) *Screen {
	if s, ok := m.screens.get(x, y); ok {
		return s
	}
	s := newScreen(m)
	m.screens.set(x, y, s)
	for _, fn := range m.materialized {
		fn(x, y, s)
	}
	return s
}

// Screens calls fn for every allocated screen in row-major order.
func (m *TileMap) Screens(fn func(x, y int, s *Screen)) {
	m.screens.each(fn)
}

// Tile returns the tile index at x, y of screen sx, sy. Absent screens
// read as blank; coordinates outside of the map read as NoTile.
func (m *TileMap) Tile(sx, sy, x, y int) int {
	if !m.screens.inside(sx, sy) {
		return NoTile
	}
	s, ok := m.screens.get(sx, sy)
	if !ok {
		size := m.geometry.screenSize
		if x < 0 || x >= size.X || y < 0 || y >= size.Y {
			return NoTile
		}
		return 0
	}
	return s.Tile(x, y)
}

// PrintTile writes the tile index at x, y of screen sx, sy, allocating
// the screen if needed.
func (m *TileMap) PrintTile(sx, sy, x, y, index int) {
	m.MaterializeScreen(sx, sy).PrintTile(x, y, index)
}

// Resize changes the number of screens across and down. Screens outside
// of the new size are dropped.
func (m *TileMap) Resize(width, height int) error {
	if width <= 0 || height <= 0 {
		return errBadMapSize
	}
	m.size = image.Pt(width, height)
	m.screens = m.screens.resized(width, height)
	return nil
}

// ScreenImage returns the cached raster of screen x, y. Absent screens
// render as a blank raster.
func (m *TileMap) ScreenImage(x, y int) *image.RGBA {
	if s, ok := m.screens.get(x, y); ok {
		return s.Image()
	}
	return image.NewRGBA(image.Rectangle{Max: m.geometry.pixels()})
}

// Image composes the cached rasters of every screen into one image.
func (m *TileMap) Image() *image.RGBA {
	px := m.geometry.pixels()
	dst := image.NewRGBA(image.Rect(0, 0, px.X*m.screens.width, px.Y*m.screens.height))
	m.screens.each(func(x, y int, s *Screen) {
		r := image.Rectangle{Max: px}.Add(image.Pt(x*px.X, y*px.Y))
		draw.Draw(dst, r, s.Image(), image.Point{}, draw.Src)
	})
	return dst
}
