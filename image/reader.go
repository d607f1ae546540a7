package image

import (
	"image"
	"image/color"
	"io"

	"github.com/bodgit/chrmap/chr"
	"github.com/bodgit/chrmap/palette"
	"golang.org/x/image/draw"
)

// SheetConfig describes how a tile sheet is decoded.
type SheetConfig struct {
	BitDepth int
	Layout   chr.Layout
	// Palette must hold at least 2^BitDepth colors
	Palette palette.Palette
	// Columns is the width of the sheet in tiles, DefaultColumns if zero
	Columns int
}

func sheetBounds(tiles, columns int) image.Rectangle {
	rows := (tiles + columns - 1) / columns
	if rows == 0 {
		rows = 1
	}
	return image.Rect(0, 0, columns*tileWidth, rows*tileHeight)
}

type decoder struct {
	r   io.Reader
	cfg SheetConfig

	data  []byte
	image *image.Paletted
}

func (d *decoder) decode(r io.Reader) error {
	d.r = r

	if !chr.ValidDepth(d.cfg.BitDepth) {
		return errBadDepth
	}
	if d.cfg.Columns <= 0 {
		d.cfg.Columns = DefaultColumns
	}

	var err error
	if d.data, err = io.ReadAll(d.r); err != nil {
		return err
	}
	if len(d.data) == 0 || len(d.data)%chr.TileSize(d.cfg.BitDepth) != 0 {
		return errNotEnough
	}

	n := chr.Count(d.data, d.cfg.BitDepth)
	d.image = image.NewPaletted(sheetBounds(n, d.cfg.Columns), d.cfg.Palette.ColorPalette())

	for i := 0; i < n; i++ {
		t, _ := chr.Decode(d.data, i, d.cfg.BitDepth, d.cfg.Layout)
		dx := i % d.cfg.Columns * tileWidth
		dy := i / d.cfg.Columns * tileHeight
		for y := range t {
			for x, c := range t[y] {
				d.image.SetColorIndex(dx+x, dy+y, c)
			}
		}
	}

	return nil
}

// DecodeSheet reads raw CHR data from r and returns every tile laid out
// as a grid, in palette order.
func DecodeSheet(r io.Reader, cfg SheetConfig) (*image.Paletted, error) {
	d := decoder{cfg: cfg}
	if err := d.decode(r); err != nil {
		return nil, err
	}
	return d.image, nil
}

// Sheet renders every whole tile in buf as a grid columns tiles wide on
// a background of the first palette color. It reads buf and p only, so
// it is safe to call on snapshots from another goroutine.
func Sheet(buf []byte, p palette.Palette, bitDepth int, layout chr.Layout, columns int) *image.RGBA {
	if columns <= 0 {
		columns = DefaultColumns
	}

	// Colors missing from a short palette render as transparent
	if chr.ValidDepth(bitDepth) && p.Len() < 1<<bitDepth {
		colors := make([]color.RGBA, 1<<bitDepth)
		copy(colors, p.Colors)
		p = palette.Palette{Colors: colors}
	}

	n := chr.Count(buf, bitDepth)
	m := image.NewRGBA(sheetBounds(n, columns))
	if p.Len() > 0 {
		draw.Draw(m, m.Bounds(), image.NewUniform(p.Color(0)), image.Point{}, draw.Src)
	}

	for i := 0; i < n; i++ {
		tile, ok := chr.Render(buf, i, p.Colors, bitDepth, layout)
		if !ok {
			continue
		}
		r := image.Rect(0, 0, tileWidth, tileHeight).Add(image.Pt(i%columns*tileWidth, i/columns*tileHeight))
		draw.Draw(m, r, tile, image.Point{}, draw.Src)
	}

	return m
}
