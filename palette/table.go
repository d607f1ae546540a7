package palette

// All is passed to change handlers when every palette may have changed.
const All = -1

// Table is the ordered list of palettes of a tile map. Readers always get
// the current value; nothing is cached on their behalf.
type Table struct {
	palettes []Palette
	handlers []func(index int)
}

// NewTable returns a table holding palettes.
func NewTable(palettes ...Palette) *Table {
	t := new(Table)
	for _, p := range palettes {
		t.palettes = append(t.palettes, p.Clone())
	}
	return t
}

// OnChange registers fn to be called with the index of every palette that
// is changed, or All.
func (t *Table) OnChange(fn func(index int)) {
	t.handlers = append(t.handlers, fn)
}

func (t *Table) changed(index int) {
	for _, fn := range t.handlers {
		fn(index)
	}
}

// Len returns the number of palettes.
func (t *Table) Len() int {
	return len(t.palettes)
}

// Get returns palette i. The returned palette shares storage with the
// table and must not be modified; use Set.
func (t *Table) Get(i int) Palette {
	return t.palettes[i]
}

// Set replaces palette i.
func (t *Table) Set(i int, p Palette) {
	t.palettes[i] = p.Clone()
	t.changed(i)
}

// Append adds p to the end of the table and returns its index.
func (t *Table) Append(p Palette) int {
	t.palettes = append(t.palettes, p.Clone())
	i := len(t.palettes) - 1
	t.changed(i)
	return i
}

// Reset replaces every palette in the table.
func (t *Table) Reset(palettes []Palette) {
	t.palettes = t.palettes[:0:0]
	for _, p := range palettes {
		t.palettes = append(t.palettes, p.Clone())
	}
	t.changed(All)
}

// Palettes returns a copy of every palette in the table.
func (t *Table) Palettes() []Palette {
	ps := make([]Palette, len(t.palettes))
	for i, p := range t.palettes {
		ps[i] = p.Clone()
	}
	return ps
}
