package chrmap

import (
	"image"
	"image/color"

	"github.com/bodgit/chrmap/chr"
	"github.com/bodgit/chrmap/palette"
)

// SerializableTileMap is the flat persistence form of a TileMap. Screens
// holds Width * Height row-major slots with nil marking an absent screen.
type SerializableTileMap struct {
	ScreenSize    image.Point           `json:"screenSize"`
	AttributeSize image.Point           `json:"attributeSize"`
	BitsPerPixel  int                   `json:"bitsPerPixel"`
	Layout        chr.Layout            `json:"layout"`
	Width         int                   `json:"width"`
	Height        int                   `json:"height"`
	ChrSource     string                `json:"chrSource"`
	Screens       []*SerializableScreen `json:"screens"`
	Palettes      [][]color.RGBA        `json:"palettes"`
}

// SerializableScreen is the flat persistence form of a Screen.
type SerializableScreen struct {
	Tiles           []int `json:"tiles"`
	ColorAttributes []int `json:"colorAttributes"`
}

// Serializable returns the persistence form of m. Nothing in the result
// shares storage with m.
func (m *TileMap) Serializable() *SerializableTileMap {
	d := &SerializableTileMap{
		ScreenSize:    m.geometry.screenSize,
		AttributeSize: m.geometry.attributeSize,
		BitsPerPixel:  m.geometry.bitsPerPixel,
		Layout:        m.geometry.layout,
		Width:         m.screens.width,
		Height:        m.screens.height,
		ChrSource:     m.ChrSource,
		Screens:       make([]*SerializableScreen, m.screens.width*m.screens.height),
	}

	m.screens.each(func(x, y int, s *Screen) {
		ss := &SerializableScreen{
			Tiles:           append([]int(nil), s.Tiles...),
			ColorAttributes: make([]int, len(s.ColorAttributes)),
		}
		for i, a := range s.ColorAttributes {
			ss.ColorAttributes[i] = int(a)
		}
		d.Screens[y*m.screens.width+x] = ss
	})

	for _, p := range m.Palettes.Palettes() {
		d.Palettes = append(d.Palettes, p.Colors)
	}

	return d
}

// FromSerializable rebuilds a TileMap from its persistence form. Zero
// geometry fields take their defaults. Screen arrays that are missing or
// too short leave the remaining tiles and attributes blank.
func FromSerializable(d *SerializableTileMap) (*TileMap, error) {
	g := defaultGeometry()
	if d.ScreenSize != (image.Point{}) {
		g.screenSize = d.ScreenSize
	}
	if d.AttributeSize != (image.Point{}) {
		g.attributeSize = d.AttributeSize
	}
	if d.BitsPerPixel != 0 {
		g.bitsPerPixel = d.BitsPerPixel
	}
	g.layout = d.Layout

	palettes := make([]palette.Palette, 0, len(d.Palettes))
	for _, c := range d.Palettes {
		palettes = append(palettes, palette.Palette{Colors: c})
	}

	m, err := NewTileMap(
		WithSize(d.Width, d.Height),
		WithScreenSize(g.screenSize.X, g.screenSize.Y),
		WithAttributeSize(g.attributeSize.X, g.attributeSize.Y),
		WithBitsPerPixel(g.bitsPerPixel),
		WithLayout(g.layout),
		WithPalettes(palettes...),
	)
	if err != nil {
		return nil, err
	}
	m.ChrSource = d.ChrSource

	for i, src := range d.Screens {
		if i >= d.Width*d.Height {
			break
		}
		if src == nil {
			continue
		}
		s := m.MaterializeScreen(i%d.Width, i/d.Width)
		copy(s.Tiles, src.Tiles)
		for j := 0; j < len(src.ColorAttributes) && j < len(s.ColorAttributes); j++ {
			s.ColorAttributes[j] = Attribute(src.ColorAttributes[j])
		}
	}

	return m, nil
}
