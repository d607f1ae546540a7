package chrmap

// MetaTile is a square group of tiles together with the palette indices
// of the attribute blocks it covers. It is a copy and never shares
// storage with the screen it was read from.
type MetaTile struct {
	Tiles      []int
	Attributes []int
}

// Clone returns a deep copy of mt.
func (mt MetaTile) Clone() MetaTile {
	return MetaTile{
		Tiles:      append([]int(nil), mt.Tiles...),
		Attributes: append([]int(nil), mt.Attributes...),
	}
}

// Position of tile i within a meta tile at x, y
func metaTileOrigin(x, y, size, i int) (int, int) {
	return x*size + i%size, y*size + i/size
}

// Position of the first tile of attribute i within a meta tile at x, y
func (s *Screen) metaAttributeOrigin(x, y, size, i int) (int, int) {
	a := s.m.geometry.attributeSize
	across := size / a.X
	return x*size + i%across*a.X, y*size + i/across*a.Y
}

// MetaTile reads the meta tile of the given size at meta tile coordinate
// x, y. The whole meta tile must lie inside the screen.
func (s *Screen) MetaTile(x, y, size int) MetaTile {
	a := s.m.geometry.attributeSize
	mt := MetaTile{
		Tiles:      make([]int, size*size),
		Attributes: make([]int, (size/a.X)*(size/a.Y)),
	}

	for i := range mt.Tiles {
		mt.Tiles[i] = s.Tile(metaTileOrigin(x, y, size, i))
	}

	for i := range mt.Attributes {
		mt.Attributes[i] = s.ColorTile(s.metaAttributeOrigin(x, y, size, i))
	}

	return mt
}

// PrintMetaTile writes every tile and then every palette index of mt at
// meta tile coordinate x, y. The whole meta tile must lie inside the
// screen.
func (s *Screen) PrintMetaTile(x, y int, mt MetaTile, size int) {
	for i, t := range mt.Tiles {
		tx, ty := metaTileOrigin(x, y, size, i)
		s.PrintTile(tx, ty, t)
	}

	for i, p := range mt.Attributes {
		tx, ty := s.metaAttributeOrigin(x, y, size, i)
		s.SetColorTile(tx, ty, p)
	}
}
