package chrmap

// Attribute is one packed attribute block entry. The low PaletteBits bits
// select a palette; the remaining bits are reserved and are carried
// through every read and write unchanged.
type Attribute int

const (
	// PaletteBits is the width of the palette index field
	PaletteBits = 3
	// PaletteMask selects the palette index field
	PaletteMask Attribute = 1<<PaletteBits - 1
	// ReservedMask selects the reserved bits
	ReservedMask = ^PaletteMask
	// MaxPalettes is the number of palettes an attribute can address
	MaxPalettes = 1 << PaletteBits
)

// Palette returns the palette index.
func (a Attribute) Palette() int {
	return int(a & PaletteMask)
}

// Reserved returns the reserved bits in place.
func (a Attribute) Reserved() Attribute {
	return a & ReservedMask
}

// WithPalette returns a with its palette index replaced. Bits of index
// outside of the palette field are ignored.
func (a Attribute) WithPalette(index int) Attribute {
	return a&ReservedMask | Attribute(index)&PaletteMask
}
