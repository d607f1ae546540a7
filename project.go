package chrmap

import (
	"errors"
	"fmt"
	"image"

	"github.com/bodgit/chrmap/chr"
	"github.com/bodgit/chrmap/compositor"
	chrimage "github.com/bodgit/chrmap/image"
	"github.com/bodgit/chrmap/palette"
	"github.com/rs/zerolog"
	"github.com/zyedidia/generic/mapset"
)

// ErrInvalidTile is returned when a tile index doesn't address a whole
// tile of the CHR data.
var ErrInvalidTile = errors.New("chrmap: invalid tile index")

// TileInUseError is returned when removing a tile that is still placed
// on the map.
type TileInUseError struct {
	Tile   int
	Usages int
}

func (e *TileInUseError) Error() string {
	return fmt.Sprintf("chrmap: cannot delete tile %d used in %d locations", e.Tile, e.Usages)
}

// Project ties a TileMap to the CHR data it is drawn with and raises the
// notifications the editor front end listens to.
type Project struct {
	Map *TileMap

	chrData []byte
	logger  zerolog.Logger
	usage   map[int]int

	chrDataChanged   []func()
	paletteChanged   []func(index int)
	tileUsageChanged []func()
}

// NewProject returns a Project editing m with the tiles in chrData.
func NewProject(m *TileMap, chrData []byte, logger zerolog.Logger) *Project {
	p := &Project{
		Map:     m,
		chrData: chrData,
		logger:  logger,
	}

	m.Screens(func(_, _ int, s *Screen) {
		s.OnEditEnd(p.updateUsage)
	})
	m.OnMaterialize(func(_, _ int, s *Screen) {
		s.OnEditEnd(p.updateUsage)
	})
	m.Palettes.OnChange(func(index int) {
		for _, fn := range p.paletteChanged {
			fn(index)
		}
	})

	p.countUsage()

	return p
}

// OnChrDataChanged registers fn to be called whenever the CHR data
// changes.
func (p *Project) OnChrDataChanged(fn func()) {
	p.chrDataChanged = append(p.chrDataChanged, fn)
}

// OnPaletteChanged registers fn to be called with the index of every
// palette that changes, or palette.All.
func (p *Project) OnPaletteChanged(fn func(index int)) {
	p.paletteChanged = append(p.paletteChanged, fn)
}

// OnTileUsageChanged registers fn to be called after tile usage has been
// recounted, at most once per edit gesture.
func (p *Project) OnTileUsageChanged(fn func()) {
	p.tileUsageChanged = append(p.tileUsageChanged, fn)
}

func (p *Project) chrChanged() {
	for _, fn := range p.chrDataChanged {
		fn()
	}
}

func (p *Project) countUsage() {
	p.usage = make(map[int]int)
	p.Map.Screens(func(_, _ int, s *Screen) {
		for _, t := range s.Tiles {
			if t >= 0 {
				p.usage[t]++
			}
		}
	})
}

func (p *Project) updateUsage() {
	p.countUsage()
	for _, fn := range p.tileUsageChanged {
		fn()
	}
}

// ChrData returns the CHR data.
func (p *Project) ChrData() []byte {
	return p.chrData
}

// SetChrData replaces the CHR data.
func (p *Project) SetChrData(b []byte) {
	p.chrData = b
	p.chrChanged()
}

// TileCount returns the number of whole tiles in the CHR data.
func (p *Project) TileCount() int {
	return chr.Count(p.chrData, p.Map.BitsPerPixel())
}

// TileUsage returns how many times tile index is placed on the map as of
// the last recount.
func (p *Project) TileUsage(index int) int {
	return p.usage[index]
}

// UnusedTiles returns every tile that isn't placed anywhere on the map.
func (p *Project) UnusedTiles() []int {
	p.countUsage()

	used := mapset.New[int]()
	for t := range p.usage {
		used.Put(t)
	}

	var unused []int
	for i := 0; i < p.TileCount(); i++ {
		if !used.Has(i) {
			unused = append(unused, i)
		}
	}
	return unused
}

func (p *Project) tileData(index int) []byte {
	size := chr.TileSize(p.Map.BitsPerPixel())
	return p.chrData[index*size : index*size+size]
}

func (p *Project) validTile(index int) bool {
	return index >= 0 && index < p.TileCount()
}

// remap rewrites every placed tile index through fn.
func (p *Project) remap(fn func(int) int) {
	p.Map.Screens(func(_, _ int, s *Screen) {
		for i, t := range s.Tiles {
			if t >= 0 {
				s.Tiles[i] = fn(t)
			}
		}
	})
}

// compact deletes the tiles in remove and shifts the following tiles
// down. Placements of the remaining tiles are remapped.
func (p *Project) compact(remove mapset.Set[int]) int {
	if remove.Size() == 0 {
		return 0
	}

	n := p.TileCount()
	mapping := make([]int, n)
	data := make([]byte, 0, len(p.chrData))
	next := 0
	for i := 0; i < n; i++ {
		if remove.Has(i) {
			mapping[i] = i
			continue
		}
		mapping[i] = next
		next++
		data = append(data, p.tileData(i)...)
	}

	p.remap(func(t int) int {
		if t < n {
			return mapping[t]
		}
		return t
	})
	p.chrData = data

	p.chrChanged()
	p.updateUsage()

	return remove.Size()
}

// RemoveTile deletes tile index from the CHR data. Tiles still placed on
// the map can't be removed.
func (p *Project) RemoveTile(index int) error {
	if !p.validTile(index) {
		return ErrInvalidTile
	}

	p.countUsage()
	if n := p.usage[index]; n > 0 {
		return &TileInUseError{Tile: index, Usages: n}
	}

	remove := mapset.New[int]()
	remove.Put(index)
	p.compact(remove)

	return nil
}

// RemoveUnusedTiles deletes every tile that isn't placed on the map and
// returns how many were removed.
func (p *Project) RemoveUnusedTiles() int {
	remove := mapset.New[int]()
	for _, t := range p.UnusedTiles() {
		remove.Put(t)
	}

	n := p.compact(remove)
	p.logger.Debug().Int("tiles", n).Msg("removed unused tiles")

	return n
}

// MergeIdenticalTiles replaces every tile whose data duplicates an
// earlier tile with that earlier tile and deletes the duplicates. It
// returns how many tiles were merged.
func (p *Project) MergeIdenticalTiles() int {
	first := make(map[string]int)
	target := make(map[int]int)
	dups := mapset.New[int]()

	for i := 0; i < p.TileCount(); i++ {
		key := string(p.tileData(i))
		if f, ok := first[key]; ok {
			dups.Put(i)
			target[i] = f
			continue
		}
		first[key] = i
	}

	p.remap(func(t int) int {
		if f, ok := target[t]; ok {
			return f
		}
		return t
	})

	n := p.compact(dups)
	p.logger.Debug().Int("tiles", n).Msg("merged identical tiles")

	return n
}

// MoveTile moves tile from to position to, shifting the tiles in between
// and remapping every placement so the map looks the same.
func (p *Project) MoveTile(from, to int) error {
	if !p.validTile(from) || !p.validTile(to) {
		return ErrInvalidTile
	}
	if from == to {
		return nil
	}

	moved := append([]byte(nil), p.tileData(from)...)
	size := len(moved)

	data := make([]byte, 0, len(p.chrData))
	data = append(data, p.chrData[:from*size]...)
	data = append(data, p.chrData[(from+1)*size:]...)
	data = append(data[:to*size], append(moved, data[to*size:]...)...)

	p.remap(func(t int) int {
		switch {
		case t == from:
			return to
		case from < to && t > from && t <= to:
			return t - 1
		case to < from && t >= to && t < from:
			return t + 1
		}
		return t
	})
	p.chrData = data

	p.chrChanged()
	p.updateUsage()

	return nil
}

// CopyTile appends a duplicate of tile index and returns the index of the
// copy.
func (p *Project) CopyTile(index int) (int, error) {
	if !p.validTile(index) {
		return 0, ErrInvalidTile
	}

	n := p.TileCount()
	size := chr.TileSize(p.Map.BitsPerPixel())
	data := make([]byte, n*size, (n+1)*size)
	copy(data, p.chrData)
	p.chrData = append(data, p.tileData(index)...)

	p.chrChanged()

	return n, nil
}

// FlipTile mirrors the pixel data of tile index.
func (p *Project) FlipTile(index int, vertical bool) error {
	bpp, layout := p.Map.BitsPerPixel(), p.Map.Layout()

	t, ok := chr.Decode(p.chrData, index, bpp, layout)
	if !ok {
		return ErrInvalidTile
	}
	if vertical {
		t = t.FlipV()
	} else {
		t = t.FlipH()
	}
	chr.Put(p.chrData, index, t, bpp, layout)

	p.chrChanged()

	return nil
}

// FlipTileAt mirrors the tile placed at x, y of s. A tile that is placed
// more than once is copied first so only this placement changes.
func (p *Project) FlipTileAt(s *Screen, x, y int, vertical bool) error {
	tile := s.Tile(x, y)
	if !p.validTile(tile) {
		return ErrInvalidTile
	}

	if p.TileUsage(tile) > 1 {
		var err error
		if tile, err = p.CopyTile(tile); err != nil {
			return err
		}
		s.PrintTile(x, y, tile)
	}

	if err := p.FlipTile(tile, vertical); err != nil {
		return err
	}
	s.PrintTile(x, y, tile)

	return nil
}

// RefreshAll redraws the cached raster of every screen.
func (p *Project) RefreshAll() {
	p.Map.Screens(func(_, _ int, s *Screen) {
		s.RefreshAllTiles(p.chrData)
	})
}

// ImportImage replaces the CHR data, palettes and screens with the
// conversion of m. The map is resized to fit the image.
func (p *Project) ImportImage(m image.Image) error {
	g := p.Map.geometry

	r, err := chrimage.Encode(m, chrimage.Options{
		BitDepth:      g.bitsPerPixel,
		Layout:        g.layout,
		AttributeSize: g.attributeSize,
		MaxPalettes:   MaxPalettes,
	})
	if err != nil {
		return err
	}

	sw := (r.Width + g.screenSize.X - 1) / g.screenSize.X
	sh := (r.Height + g.screenSize.Y - 1) / g.screenSize.Y
	p.Map.size = image.Pt(sw, sh)
	p.Map.screens = newGrid(sw, sh)

	for ty := 0; ty < r.Height; ty++ {
		for tx := 0; tx < r.Width; tx++ {
			s := p.Map.MaterializeScreen(tx/g.screenSize.X, ty/g.screenSize.Y)
			s.PrintTile(tx%g.screenSize.X, ty%g.screenSize.Y, r.Tiles[ty*r.Width+tx])
		}
	}

	across := r.Width / g.attributeSize.X
	for i, a := range r.Attributes {
		tx, ty := i%across*g.attributeSize.X, i/across*g.attributeSize.Y
		s := p.Map.MaterializeScreen(tx/g.screenSize.X, ty/g.screenSize.Y)
		s.SetColorTile(tx%g.screenSize.X, ty%g.screenSize.Y, a)
	}

	p.Map.Palettes.Reset(r.Palettes)
	p.SetChrData(r.Chr)
	p.updateUsage()

	p.logger.Info().Int("tiles", p.TileCount()).Int("palettes", len(r.Palettes)).Int("width", sw).Int("height", sh).Msg("imported image")

	return nil
}

// TileSetPreview returns a Compositor that renders every tile with
// palette paletteIndex, columns tiles across. It rebuilds whenever the
// CHR data or a palette changes and calls redraw after each rebuild.
func (p *Project) TileSetPreview(paletteIndex, columns int, redraw func()) *compositor.Compositor {
	snapshot := func() compositor.BuildFunc {
		data := append([]byte(nil), p.chrData...)
		bpp, layout := p.Map.BitsPerPixel(), p.Map.Layout()

		pal := palette.Greyscale(p.Map.ColorCount())
		if paletteIndex < p.Map.Palettes.Len() {
			pal = p.Map.Palettes.Get(paletteIndex).Clone()
		}

		return func() *image.RGBA {
			return chrimage.Sheet(data, pal, bpp, layout, columns)
		}
	}

	c := compositor.New(snapshot, compositor.WithRedraw(redraw), compositor.WithLogger(p.logger))
	p.OnChrDataChanged(c.Refresh)
	p.OnPaletteChanged(func(int) {
		c.Refresh()
	})
	c.Refresh()

	return c
}
