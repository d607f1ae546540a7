package chrmap

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/bodgit/chrmap/chr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTileMap(t *testing.T) {
	m, err := NewTileMap()
	require.NoError(t, err)

	w, h := m.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	assert.Equal(t, image.Pt(32, 30), m.ScreenSize())
	assert.Equal(t, image.Pt(2, 2), m.AttributeSize())
	assert.Equal(t, image.Pt(8, 8), m.BaseTileSize())
	assert.Equal(t, 2, m.BitsPerPixel())
	assert.Equal(t, 4, m.ColorCount())
	assert.Equal(t, chr.Planar, m.Layout())

	tests := map[string]struct {
		options []Option
		err     error
	}{
		"screen size":    {[]Option{WithScreenSize(0, 30)}, errBadScreenSize},
		"attribute size": {[]Option{WithAttributeSize(3, 2)}, errBadAttributeSize},
		"zero attribute": {[]Option{WithAttributeSize(0, 2)}, errBadAttributeSize},
		"bits per pixel": {[]Option{WithBitsPerPixel(3)}, errBadBitsPerPixel},
		"map size":       {[]Option{WithSize(-1, 1)}, errBadMapSize},
	}

	for name, table := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewTileMap(table.options...)
			assert.Equal(t, table.err, err)
		})
	}
}

func TestAbsentScreens(t *testing.T) {
	m := newTestMap(t, WithSize(3, 2))

	var materialized []image.Point
	m.OnMaterialize(func(x, y int, _ *Screen) {
		materialized = append(materialized, image.Pt(x, y))
	})

	_, ok := m.Screen(1, 1)
	assert.False(t, ok)
	_, ok = m.Screen(3, 0)
	assert.False(t, ok)

	assert.Equal(t, 0, m.Tile(1, 1, 0, 0))
	assert.Equal(t, NoTile, m.Tile(1, 1, 16, 0))
	assert.Equal(t, NoTile, m.Tile(5, 5, 0, 0))

	blank := m.ScreenImage(1, 1)
	assert.Equal(t, image.Rect(0, 0, 128, 128), blank.Bounds())

	m.PrintTile(1, 1, 2, 3, 4)
	s, ok := m.Screen(1, 1)
	require.True(t, ok)
	assert.Equal(t, 4, s.Tile(2, 3))
	assert.Equal(t, 4, m.Tile(1, 1, 2, 3))
	assert.Same(t, s, m.MaterializeScreen(1, 1))

	assert.Equal(t, []image.Point{{1, 1}}, materialized)
}

func TestResize(t *testing.T) {
	m := newTestMap(t, WithSize(2, 2))
	m.PrintTile(0, 0, 0, 0, 1)
	m.PrintTile(1, 1, 0, 0, 2)

	require.NoError(t, m.Resize(1, 3))
	w, h := m.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 3, h)

	_, ok := m.Screen(0, 0)
	assert.True(t, ok)
	assert.Equal(t, NoTile, m.Tile(1, 1, 0, 0))

	assert.Equal(t, errBadMapSize, m.Resize(0, 1))
}

func TestImage(t *testing.T) {
	m := newTestMap(t, WithSize(2, 1), WithScreenSize(2, 2), WithAttributeSize(1, 1))
	s := m.MaterializeScreen(1, 0)
	s.PrintTile(0, 0, 1)
	s.RefreshAllTiles(testChr)

	img := m.Image()
	assert.Equal(t, image.Rect(0, 0, 32, 16), img.Bounds())
	assert.Equal(t, color.RGBA{}, img.RGBAAt(0, 0))
	assert.Equal(t, blue, img.RGBAAt(16, 0))
	assert.Equal(t, black, img.RGBAAt(24, 0))
}

func testDocument() *SerializableTileMap {
	tiles := make([]int, 4*2)
	for i := range tiles {
		tiles[i] = i + 1
	}
	return &SerializableTileMap{
		ScreenSize:    image.Pt(4, 2),
		AttributeSize: image.Pt(2, 2),
		BitsPerPixel:  4,
		Layout:        chr.Interleaved,
		Width:         2,
		Height:        2,
		ChrSource:     "tiles.chr",
		Screens: []*SerializableScreen{
			{Tiles: tiles, ColorAttributes: []int{0xf8 | 3, 0x10}},
			nil,
			nil,
			{Tiles: make([]int, 8), ColorAttributes: []int{0, 0x07}},
		},
		Palettes: [][]color.RGBA{
			{black, white, red, blue},
			{blue, red, white, black},
		},
	}
}

func TestSerializable(t *testing.T) {
	d := testDocument()

	m, err := FromSerializable(d)
	require.NoError(t, err)

	_, ok := m.Screen(1, 0)
	assert.False(t, ok)
	s, ok := m.Screen(0, 0)
	require.True(t, ok)
	assert.Equal(t, 3, s.ColorAttribute(0, 0))
	assert.Equal(t, Attribute(0xf8), s.Attribute(0, 0).Reserved())
	assert.Equal(t, 2, m.Palettes.Len())
	assert.Equal(t, "tiles.chr", m.ChrSource)

	assert.Equal(t, d, m.Serializable())

	// The conversion copies
	s.Tiles[0] = 99
	assert.Equal(t, 1, d.Screens[0].Tiles[0])
}

func TestFromSerializableDefaults(t *testing.T) {
	m, err := FromSerializable(&SerializableTileMap{
		Width:  1,
		Height: 1,
		Screens: []*SerializableScreen{
			{Tiles: []int{5}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, image.Pt(32, 30), m.ScreenSize())
	s, ok := m.Screen(0, 0)
	require.True(t, ok)
	assert.Len(t, s.Tiles, 32*30)
	assert.Equal(t, 5, s.Tile(0, 0))
	assert.Equal(t, 0, s.Tile(1, 0))
	assert.Len(t, s.ColorAttributes, 16*15)

	_, err = FromSerializable(&SerializableTileMap{})
	assert.Equal(t, errBadMapSize, err)
}

func TestDocument(t *testing.T) {
	d := testDocument()

	buf := new(bytes.Buffer)
	require.NoError(t, WriteDocument(buf, d))

	r, err := ReadDocument(buf)
	require.NoError(t, err)
	assert.Equal(t, d, r)

	b, err := MarshalDocument(d)
	require.NoError(t, err)

	r, err = UnmarshalDocument(b)
	require.NoError(t, err)
	assert.Equal(t, d, r)
}
