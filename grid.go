package chrmap

// grid is a fixed size, row-major arrangement of screen slots. A nil slot
// is absent.
type grid struct {
	width, height int
	slots         []*Screen
}

func newGrid(width, height int) *grid {
	return &grid{
		width:  width,
		height: height,
		slots:  make([]*Screen, width*height),
	}
}

func (g *grid) inside(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *grid) get(x, y int) (*Screen, bool) {
	if !g.inside(x, y) {
		return nil, false
	}
	s := g.slots[y*g.width+x]
	return s, s != nil
}

func (g *grid) set(x, y int, s *Screen) {
	g.slots[y*g.width+x] = s
}

// resized returns a new grid keeping every slot that still fits.
func (g *grid) resized(width, height int) *grid {
	n := newGrid(width, height)
	for y := 0; y < height && y < g.height; y++ {
		for x := 0; x < width && x < g.width; x++ {
			n.set(x, y, g.slots[y*g.width+x])
		}
	}
	return n
}

func (g *grid) each(fn func(x, y int, s *Screen)) {
	for i, s := range g.slots {
		if s != nil {
			fn(i%g.width, i/g.width, s)
		}
	}
}
