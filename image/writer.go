package image

import (
	"image"
	"image/color"
	"sort"

	"github.com/bodgit/chrmap/chr"
	"github.com/bodgit/chrmap/palette"
	"github.com/ericpauley/go-quantize/quantize"
	"golang.org/x/image/draw"
)

// Upper bound on packing attempts before giving up on a set of block
// palettes
const packBudget = 1 << 16

// Options controls Encode.
type Options struct {
	BitDepth int
	Layout   chr.Layout
	// AttributeSize is the size of an attribute block in tiles
	AttributeSize image.Point
	// MaxPalettes is the number of palettes that may be used
	MaxPalettes int
}

// Result is an image converted into tile data.
type Result struct {
	// Chr holds every distinct tile
	Chr []byte
	// Width and Height are the size of the image in tiles
	Width, Height int
	// Tiles holds the tile index of every tile, row-major
	Tiles []int
	// Attributes holds the palette index of every attribute block,
	// row-major
	Attributes []int
	Palettes   []palette.Palette
}

type encoder struct {
	opts   Options
	colors int
}

type paletteMap struct {
	palette []color.RGBA
	blocks  []int
}

type byPaletteSize []paletteMap

func (p byPaletteSize) Len() int {
	return len(p)
}

func (p byPaletteSize) Swap(i, j int) {
	p[i], p[j] = p[j], p[i]
}

func (p byPaletteSize) Less(i, j int) bool {
	return len(p[i].palette) < len(p[j].palette)
}

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

func countColors(m *image.Paletted, r image.Rectangle) map[color.RGBA]int {
	colors := make(map[color.RGBA]int)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			colors[rgba(m.At(x, y))]++
		}
	}
	return colors
}

// Distinct colors of r in a stable order
func uniqueColors(m *image.Paletted, r image.Rectangle) []color.RGBA {
	seen := make(map[color.RGBA]struct{})
	var p []color.RGBA
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := rgba(m.At(x, y))
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				p = append(p, c)
			}
		}
	}
	return p
}

// Copied from color.sqDiff
func sqDiff(x, y uint32) uint32 {
	d := x - y
	return (d * d) >> 2
}

// Return the two closest colors in a given palette
func closestColors(p []color.RGBA) (color.RGBA, color.RGBA) {
	var rc1, rc2 color.RGBA
	bestSum := uint32(1<<32 - 1)
	for i, c1 := range p {
		r1, g1, b1, a1 := c1.RGBA()
		for j, c2 := range p {
			r2, g2, b2, a2 := c2.RGBA()
			if i != j {
				sum := sqDiff(r1, r2) + sqDiff(g1, g2) + sqDiff(b1, b2) + sqDiff(a1, a2)
				if sum < bestSum {
					bestSum, rc1, rc2 = sum, c1, c2
				}
			}
		}
	}
	return rc1, rc2
}

// Replace all occurrences of one color in an image with another
func replaceColor(m *image.Paletted, o, n color.RGBA) {
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if rgba(m.At(x, y)) == o {
				m.Set(x, y, n)
			}
		}
	}
}

// Colors in p2 but not in p1
func paletteDifference(p1, p2 []color.RGBA) (d []color.RGBA) {
	m := make(map[color.RGBA]struct{})
	for _, c := range p1 {
		m[c] = struct{}{}
	}
	for _, c := range p2 {
		if _, ok := m[c]; !ok {
			d = append(d, c)
		}
	}
	return
}

// Variation of bin-packing problem; MaxPalettes number of bins each with
// capacity of e.colors. Based on First Fit Decreasing algorithm; relies
// on the incoming palettes being sorted in decreasing size
func (e *encoder) packPalette(in, out []paletteMap, budget *int) ([]paletteMap, bool) {
	if *budget--; *budget < 0 {
		return nil, false
	}
	switch {
	case len(out) == 0: // First step, use the first (biggest) palette
		return e.packPalette(in[1:], append(out, in[0]), budget)
	case len(in) == 0: // Finished, does it fit the available palettes?
		return out, len(out) <= e.opts.MaxPalettes
	case len(out) > e.opts.MaxPalettes:
		return nil, false
	default:
		// Loop over each current bin (palette)
		for i := range out {
			d := paletteDifference(out[i].palette, in[0].palette)

			// Either the candidate palette is a subset or the
			// difference can fit in the current palette
			if len(d) == 0 || len(d)+len(out[i].palette) <= e.colors {
				dup := append(out[:0:0], out...)
				if len(d) > 0 {
					dup[i].palette = append(dup[i].palette[:len(dup[i].palette):len(dup[i].palette)], d...)
				}
				dup[i].blocks = append(dup[i].blocks[:len(dup[i].blocks):len(dup[i].blocks)], in[0].blocks...)
				if ret, ok := e.packPalette(in[1:], dup, budget); ok {
					return ret, true
				}
			}
		}
		// Last resort, start a new bin (palette)
		return e.packPalette(in[1:], append(out, in[0]), budget)
	}
}

func (e *encoder) padPalette(p []color.RGBA) []color.RGBA {
	for len(p) < e.colors {
		p = append(p, color.RGBA{0, 0, 0, 0})
	}
	return p
}

func (e *encoder) blockRect(b image.Rectangle, bx, by int) image.Rectangle {
	w := e.opts.AttributeSize.X * tileWidth
	h := e.opts.AttributeSize.Y * tileHeight
	return image.Rect(bx*w, by*h, bx*w+w, by*h+h).Add(b.Min)
}

func (e *encoder) blocks(b image.Rectangle) (int, int) {
	return b.Dx() / (e.opts.AttributeSize.X * tileWidth), b.Dy() / (e.opts.AttributeSize.Y * tileHeight)
}

// reducePalette limits every attribute block to e.colors colors and
// packs the block palettes. It returns the reduced image, the palettes
// and the palette chosen for each block.
func (e *encoder) reducePalette(m *image.Paletted) (*image.Paletted, [][]color.RGBA, []int, bool) {
	b := m.Bounds()

	// Create a copy of the image
	dup := image.NewPaletted(b, m.Palette)
	draw.Draw(dup, b, m, b.Min, draw.Src)

	// Map of colors to frequency of occurrence
	global := countColors(dup, b)

	bw, bh := e.blocks(b)

	// Loop over every block and reduce the number of colors per block
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			p := uniqueColors(dup, e.blockRect(b, bx, by))
			for len(p) > e.colors {

				// Find the two closest colors
				c1, c2 := closestColors(p)

				// Keep whichever color appears more frequently
				// in the image and replace any occurrence of
				// the other color
				c := c1
				if global[c1] > global[c2] {
					replaceColor(dup, c2, c1)
					c = c2
				} else {
					replaceColor(dup, c1, c2)
				}

				// Forget the less frequent color
				for i := range p {
					if p[i] == c {
						p = append(p[:i], p[i+1:]...)
						break
					}
				}
				delete(global, c)
			}
		}
	}

	// Loop over every block and collect its palette
	var palettes []paletteMap
	for by := 0; by < bh; by++ {
		for bx := 0; bx < bw; bx++ {
			palettes = append(palettes, paletteMap{
				palette: uniqueColors(dup, e.blockRect(b, bx, by)),
				blocks:  []int{by*bw + bx},
			})
		}
	}

	// Sort with biggest palettes first
	sort.Stable(sort.Reverse(byPaletteSize(palettes)))

	budget := packBudget
	packed, ok := e.packPalette(palettes, []paletteMap{}, &budget)
	if !ok {
		return nil, nil, nil, false
	}

	attributes := make([]int, bw*bh)
	result := make([][]color.RGBA, len(packed))
	for i, p := range packed {
		for _, blk := range p.blocks {
			attributes[blk] = i
		}
		result[i] = e.padPalette(p.palette)
	}

	return dup, result, attributes, true
}

func (e *encoder) encode(m *image.Paletted, palettes [][]color.RGBA, attributes []int) *Result {
	b := m.Bounds()
	bw, _ := e.blocks(b)

	r := &Result{
		Width:      b.Dx() / tileWidth,
		Height:     b.Dy() / tileHeight,
		Attributes: attributes,
	}
	r.Tiles = make([]int, r.Width*r.Height)

	indices := make([]map[color.RGBA]uint8, len(palettes))
	for i, p := range palettes {
		r.Palettes = append(r.Palettes, palette.New(p...))
		indices[i] = make(map[color.RGBA]uint8)
		// Padding may repeat a color; the first occurrence wins
		for j := len(p) - 1; j >= 0; j-- {
			indices[i][p[j]] = uint8(j)
		}
	}

	seen := make(map[string]int)
	for ty := 0; ty < r.Height; ty++ {
		for tx := 0; tx < r.Width; tx++ {
			block := ty/e.opts.AttributeSize.Y*bw + tx/e.opts.AttributeSize.X
			index := indices[attributes[block]]

			var t chr.Tile
			for y := range t {
				for x := range t[y] {
					t[y][x] = index[rgba(m.At(b.Min.X+tx*tileWidth+x, b.Min.Y+ty*tileHeight+y))]
				}
			}

			data := chr.Encode(t, e.opts.BitDepth, e.opts.Layout)
			n, ok := seen[string(data)]
			if !ok {
				n = len(seen)
				seen[string(data)] = n
				r.Chr = append(r.Chr, data...)
			}
			r.Tiles[ty*r.Width+tx] = n
		}
	}

	return r
}

// Encode converts m into tile data. The size of m must be a whole number
// of attribute blocks. Images with more colors than fit are reduced with
// a median cut quantizer.
func Encode(m image.Image, opts Options) (*Result, error) {
	if !chr.ValidDepth(opts.BitDepth) {
		return nil, errBadDepth
	}
	if opts.AttributeSize.X <= 0 || opts.AttributeSize.Y <= 0 {
		opts.AttributeSize = image.Pt(1, 1)
	}
	if opts.MaxPalettes <= 0 {
		opts.MaxPalettes = 1
	}

	b := m.Bounds()
	if b.Empty() || b.Dx()%(opts.AttributeSize.X*tileWidth) != 0 || b.Dy()%(opts.AttributeSize.Y*tileHeight) != 0 {
		return nil, errBadSize
	}

	e := encoder{opts: opts, colors: 1 << opts.BitDepth}
	if e.colors > 256 {
		e.colors = 256
	}

	pm, _ := m.(*image.Paletted)
	if pm == nil {
		if cp, ok := m.ColorModel().(color.Palette); ok {
			pm = image.NewPaletted(b, cp)
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					pm.Set(x, y, cp.Convert(m.At(x, y)))
				}
			}
		}
	}

	// Try the image as it is first
	if pm != nil {
		if dup, p, a, ok := e.reducePalette(pm); ok {
			return e.encode(dup, p, a), nil
		}
	}

	q := quantize.MedianCutQuantizer{}

	// Work out the starting maximum colors
	max := e.colors * opts.MaxPalettes
	if max > 256 {
		max = 256
	}
	if pm != nil && len(pm.Palette) < max {
		max = len(pm.Palette)
	}

	// Keep reducing the colors until the palette can be packed
	for i := max; i >= e.colors; i-- {
		// Create the initial palette
		tmp := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, i), m))
		draw.Draw(tmp, b, m, b.Min, draw.Src)

		// Try and pack it
		if dup, p, a, ok := e.reducePalette(tmp); ok {
			return e.encode(dup, p, a), nil
		}
	}

	return nil, errTooManyColors
}
