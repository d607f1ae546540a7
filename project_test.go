package chrmap

import (
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"

	"github.com/bodgit/chrmap/chr"
	"github.com/bodgit/chrmap/palette"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidTile(c uint8) []byte {
	var t chr.Tile
	for y := range t {
		for x := range t[y] {
			t[y][x] = c
		}
	}
	return chr.Encode(t, 2, chr.Planar)
}

func patternTile() []byte {
	var t chr.Tile
	for y := range t {
		t[y][0] = 1
		t[y][7] = 2
	}
	t[0][1] = 3
	return chr.Encode(t, 2, chr.Planar)
}

func tiles(data ...[]byte) []byte {
	var b []byte
	for _, d := range data {
		b = append(b, d...)
	}
	return b
}

func newTestProject(t *testing.T, data []byte) (*Project, *Screen) {
	p := NewProject(newTestMap(t), data, zerolog.Nop())
	return p, p.Map.MaterializeScreen(0, 0)
}

func TestTileUsage(t *testing.T) {
	p, s := newTestProject(t, tiles(solidTile(0), solidTile(3)))

	var changes int
	p.OnTileUsageChanged(func() { changes++ })

	for x := 0; x < 3; x++ {
		s.PrintTile(x, 0, 1)
	}
	assert.Equal(t, 0, changes)

	s.EditEnd()
	assert.Equal(t, 1, changes)
	assert.Equal(t, 3, p.TileUsage(1))
	assert.Equal(t, 16*16-3, p.TileUsage(0))
	assert.Equal(t, 2, p.TileCount())

	// Screens that exist before the project are tracked too
	m := newTestMap(t)
	m.MaterializeScreen(0, 0).PrintTile(0, 0, 1)
	q := NewProject(m, tiles(solidTile(0), solidTile(3)), zerolog.Nop())
	assert.Equal(t, 1, q.TileUsage(1))
	s2, _ := m.Screen(0, 0)
	s2.PrintTile(1, 0, 1)
	s2.EditEnd()
	assert.Equal(t, 2, q.TileUsage(1))
}

func TestRemoveTile(t *testing.T) {
	p, s := newTestProject(t, tiles(solidTile(0), solidTile(3)))

	var chrChanges int
	p.OnChrDataChanged(func() { chrChanges++ })

	s.PrintTile(0, 0, 1)
	s.PrintTile(1, 0, 1)
	s.EditEnd()

	err := p.RemoveTile(1)
	var inUse *TileInUseError
	require.True(t, errors.As(err, &inUse))
	assert.Equal(t, 1, inUse.Tile)
	assert.Equal(t, 2, inUse.Usages)
	assert.Equal(t, "chrmap: cannot delete tile 1 used in 2 locations", err.Error())

	assert.Equal(t, ErrInvalidTile, p.RemoveTile(5))
	assert.Equal(t, ErrInvalidTile, p.RemoveTile(-1))

	n, err := p.CopyTile(1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 3, p.TileCount())

	require.NoError(t, p.RemoveTile(2))
	assert.Equal(t, 2, p.TileCount())
	assert.Equal(t, tiles(solidTile(0), solidTile(3)), p.ChrData())

	// Tile 0 fills the rest of the screen
	assert.True(t, errors.As(p.RemoveTile(0), &inUse))
	assert.Equal(t, 16*16-2, inUse.Usages)

	assert.Equal(t, 2, chrChanges)
}

func TestRemoveUnusedTiles(t *testing.T) {
	p, s := newTestProject(t, tiles(solidTile(0), solidTile(3), patternTile()))

	s.PrintTile(0, 0, 2)
	s.EditEnd()

	assert.Equal(t, []int{1}, p.UnusedTiles())
	assert.Equal(t, 1, p.RemoveUnusedTiles())

	assert.Equal(t, 2, p.TileCount())
	assert.Equal(t, 1, s.Tile(0, 0))
	assert.Equal(t, 0, s.Tile(1, 0))
	assert.Equal(t, tiles(solidTile(0), patternTile()), p.ChrData())
	assert.Equal(t, 1, p.TileUsage(1))

	assert.Equal(t, 0, p.RemoveUnusedTiles())
}

func TestMergeIdenticalTiles(t *testing.T) {
	p, s := newTestProject(t, tiles(solidTile(0), patternTile(), solidTile(0), patternTile()))

	s.PrintTile(0, 0, 2)
	s.PrintTile(1, 0, 3)
	s.PrintTile(2, 0, 1)
	s.EditEnd()

	assert.Equal(t, 2, p.MergeIdenticalTiles())
	assert.Equal(t, 2, p.TileCount())
	assert.Equal(t, tiles(solidTile(0), patternTile()), p.ChrData())

	assert.Equal(t, 0, s.Tile(0, 0))
	assert.Equal(t, 1, s.Tile(1, 0))
	assert.Equal(t, 1, s.Tile(2, 0))
	assert.Equal(t, 2, p.TileUsage(1))

	assert.Equal(t, 0, p.MergeIdenticalTiles())
}

func TestMoveTile(t *testing.T) {
	p, s := newTestProject(t, tiles(solidTile(0), solidTile(3), patternTile()))

	s.PrintTile(0, 0, 0)
	s.PrintTile(1, 0, 1)
	s.PrintTile(2, 0, 2)
	s.EditEnd()
	p.RefreshAll()
	before := image.NewRGBA(s.Image().Bounds())
	copy(before.Pix, s.Image().Pix)

	require.NoError(t, p.MoveTile(0, 2))
	assert.Equal(t, tiles(solidTile(3), patternTile(), solidTile(0)), p.ChrData())
	assert.Equal(t, 2, s.Tile(0, 0))
	assert.Equal(t, 0, s.Tile(1, 0))
	assert.Equal(t, 1, s.Tile(2, 0))

	p.RefreshAll()
	assert.Equal(t, before.Pix, s.Image().Pix)

	require.NoError(t, p.MoveTile(2, 0))
	assert.Equal(t, tiles(solidTile(0), solidTile(3), patternTile()), p.ChrData())
	assert.Equal(t, 0, s.Tile(0, 0))

	assert.Equal(t, ErrInvalidTile, p.MoveTile(0, 3))
	require.NoError(t, p.MoveTile(1, 1))
}

func TestFlipTileAt(t *testing.T) {
	p, s := newTestProject(t, tiles(solidTile(0), patternTile()))

	s.PrintTile(0, 0, 1)
	s.PrintTile(1, 0, 1)
	s.EditEnd()

	require.NoError(t, p.FlipTileAt(s, 0, 0, false))
	s.EditEnd()

	assert.Equal(t, 3, p.TileCount())
	assert.Equal(t, 2, s.Tile(0, 0))
	assert.Equal(t, 1, s.Tile(1, 0))

	flipped, ok := chr.Decode(p.ChrData(), 2, 2, chr.Planar)
	require.True(t, ok)
	original, ok := chr.Decode(p.ChrData(), 1, 2, chr.Planar)
	require.True(t, ok)
	assert.Equal(t, original.FlipH(), flipped)

	// Used once, flipped in place
	require.NoError(t, p.FlipTileAt(s, 0, 0, true))
	assert.Equal(t, 3, p.TileCount())
	again, _ := chr.Decode(p.ChrData(), 2, 2, chr.Planar)
	assert.Equal(t, flipped.FlipV(), again)

	assert.Equal(t, ErrInvalidTile, p.FlipTileAt(s, -1, 0, false))
	assert.Equal(t, ErrInvalidTile, p.FlipTile(9, false))
}

func TestImportImage(t *testing.T) {
	p, _ := newTestProject(t, nil)

	var palettes []int
	p.OnPaletteChanged(func(index int) {
		palettes = append(palettes, index)
	})

	m := image.NewPaletted(image.Rect(0, 0, 32, 16), color.Palette{black, white, red, blue})
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			m.Set(x, y, white)
			m.Set(x+16, y, red)
		}
	}

	require.NoError(t, p.ImportImage(m))

	w, h := p.Map.Size()
	assert.Equal(t, 1, w)
	assert.Equal(t, 1, h)
	// White, black and red share one palette
	assert.Equal(t, 3, p.TileCount())
	assert.Equal(t, 1, p.Map.Palettes.Len())
	assert.Equal(t, []int{palette.All}, palettes)

	s, ok := p.Map.Screen(0, 0)
	require.True(t, ok)
	assert.Equal(t, 0, s.Tile(0, 0))
	assert.Equal(t, 1, s.Tile(1, 0))
	assert.Equal(t, 2, s.Tile(2, 0))
	assert.Equal(t, s.Tile(1, 0), s.Tile(3, 1))
	assert.Equal(t, s.ColorTile(0, 0), s.ColorTile(2, 0))
	// Cells past the image keep tile 0
	assert.Equal(t, 16*16-8+1, p.TileUsage(0))
	assert.Equal(t, 6, p.TileUsage(1))

	p.RefreshAll()
	img := p.Map.Image()
	assert.Equal(t, white, img.RGBAAt(0, 0))
	assert.Equal(t, red, img.RGBAAt(16, 0))
	assert.Equal(t, black, img.RGBAAt(8, 8))
}

func TestTileSetPreview(t *testing.T) {
	p, _ := newTestProject(t, tiles(solidTile(0), solidTile(3)))

	var redraws int32
	c := p.TileSetPreview(0, 2, func() {
		atomic.AddInt32(&redraws, 1)
	})
	c.Wait()

	img := c.Image()
	require.NotNil(t, img)
	assert.Equal(t, image.Rect(0, 0, 16, 8), img.Bounds())
	assert.Equal(t, black, img.RGBAAt(0, 0))
	assert.Equal(t, blue, img.RGBAAt(8, 0))

	p.SetChrData(tiles(solidTile(0), solidTile(3), solidTile(1)))
	c.Wait()
	assert.Equal(t, image.Rect(0, 0, 16, 16), c.Image().Bounds())
	assert.Equal(t, white, c.Image().RGBAAt(0, 8))

	p.Map.Palettes.Set(0, palette.New(red, red, red, red))
	c.Wait()
	assert.Equal(t, red, c.Image().RGBAAt(8, 0))

	assert.Equal(t, int32(3), atomic.LoadInt32(&redraws))
}
