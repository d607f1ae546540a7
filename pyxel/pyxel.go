/*
Package pyxel reads the tile map XML exported by Pyxel Edit and flattens
its layers into a single grid of tile indices.

Only the placement of tiles is used: each layer is a sparse list of
(x, y, index) entries. Layer 0 is the top layer in Pyxel Edit so layers
are applied from the highest number down and a lower numbered layer wins
wherever two layers place a tile in the same cell.
*/
package pyxel

import (
	"encoding/xml"
	"io"
	"sort"
)

// Map is the root element of a Pyxel Edit tile map export.
type Map struct {
	XMLName xml.Name `xml:"tilemap"`
	Width   int      `xml:"tileswide,attr"`
	Height  int      `xml:"tileshigh,attr"`
	Layers  []Layer  `xml:"layer"`
}

// Layer is one named layer of placements.
type Layer struct {
	Number int    `xml:"number,attr"`
	Name   string `xml:"name,attr"`
	Tiles  []Tile `xml:"tile"`
}

// Tile is a single placement. A negative Index marks an empty cell.
type Tile struct {
	X     int `xml:"x,attr"`
	Y     int `xml:"y,attr"`
	Index int `xml:"index,attr"`
}

// Decode reads a Pyxel Edit tile map from r.
func Decode(r io.Reader) (*Map, error) {
	m := new(Map)
	if err := xml.NewDecoder(r).Decode(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Flatten returns a row-major grid of width by height tile indices. Cells
// no layer places a tile in are 0 and placements outside of the grid are
// ignored.
func (m *Map) Flatten(width, height int) []int {
	tiles := make([]int, width*height)

	layers := append([]Layer(nil), m.Layers...)
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].Number > layers[j].Number
	})

	for _, l := range layers {
		for _, t := range l.Tiles {
			if t.Index < 0 || t.X < 0 || t.X >= width || t.Y < 0 || t.Y >= height {
				continue
			}
			tiles[t.Y*width+t.X] = t.Index
		}
	}

	return tiles
}
