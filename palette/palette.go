/*
Package palette implements the ordered palette table shared by every
screen of a tile map.

A palette is an ordered list of concrete colors. Attribute blocks select a
palette by its index in the table and tiles select a color by its index in
the palette, so a palette must hold at least 2^n colors for a bit depth of
n. That minimum is enforced by whoever edits the palettes, not here.
*/
package palette

import "image/color"

// Palette is an ordered list of colors.
type Palette struct {
	Colors []color.RGBA
}

// New returns a palette holding colors.
func New(colors ...color.RGBA) Palette {
	return Palette{Colors: append([]color.RGBA(nil), colors...)}
}

// Greyscale returns a palette of n evenly spaced grey levels starting at
// black.
func Greyscale(n int) Palette {
	p := Palette{Colors: make([]color.RGBA, n)}
	for i := range p.Colors {
		var v uint8
		if n > 1 {
			v = uint8(i * 0xff / (n - 1))
		}
		p.Colors[i] = color.RGBA{v, v, v, 0xff}
	}
	return p
}

// Len returns the number of colors in the palette.
func (p Palette) Len() int {
	return len(p.Colors)
}

// Color returns color i. The index is not checked.
func (p Palette) Color(i int) color.RGBA {
	return p.Colors[i]
}

// Clone returns a copy of p that does not share storage with it.
func (p Palette) Clone() Palette {
	return Palette{Colors: append([]color.RGBA(nil), p.Colors...)}
}

// ColorPalette returns p as a color.Palette suitable for an
// image.Paletted.
func (p Palette) ColorPalette() color.Palette {
	cp := make(color.Palette, len(p.Colors))
	for i, c := range p.Colors {
		cp[i] = c
	}
	return cp
}
