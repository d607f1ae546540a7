/*
Package compositor rebuilds a derived raster, such as the preview of every
tile in a tile set, on a background worker.

A rebuild runs through Idle, Building and Publishing before returning to
Idle. Only one rebuild is ever in flight: asking for another waits for the
current one to finish and then starts from the latest inputs. The finished
raster is published with a single atomic pointer swap so a reader never
sees a partly built image.
*/
package compositor

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// State is the stage a Compositor is in.
type State int32

const (
	// Idle means no rebuild is in flight
	Idle State = iota
	// Building means a new raster is being drawn
	Building
	// Publishing means the new raster is being made visible
	Publishing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Building:
		return "building"
	case Publishing:
		return "publishing"
	default:
		return "unknown"
	}
}

// BuildFunc draws a new raster. It runs on the worker goroutine and must
// only read inputs it owns.
type BuildFunc func() *image.RGBA

// SnapshotFunc captures the current inputs on the calling goroutine and
// returns the BuildFunc that draws them. Copying the inputs here is what
// guarantees a published raster reflects exactly one snapshot.
type SnapshotFunc func() BuildFunc

// Option configures a Compositor.
type Option func(*Compositor)

// WithRedraw sets fn to be called after every publish. It runs on the
// worker before the rebuild is reported finished, so it must only post a
// redraw request and not call back into the Compositor.
func WithRedraw(fn func()) Option {
	return func(c *Compositor) {
		c.redraw = fn
	}
}

// WithLogger sets the logger used to trace rebuilds.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Compositor) {
		c.logger = logger
	}
}

// WithInitial sets the raster visible before the first rebuild.
func WithInitial(m *image.RGBA) Option {
	return func(c *Compositor) {
		c.current.Store(m)
	}
}

type task struct {
	done chan struct{}
}

func (t *task) wait() {
	<-t.done
}

// Compositor owns the published raster and the worker that rebuilds it.
type Compositor struct {
	snapshot SnapshotFunc
	redraw   func()
	logger   zerolog.Logger

	// Serializes read-build-publish
	mu      sync.Mutex
	state   int32
	current atomic.Pointer[image.RGBA]

	// Guards inflight
	taskMu   sync.Mutex
	inflight *task
	builds   uint64
}

// New returns an idle Compositor that draws with the inputs captured by
// snapshot.
func New(snapshot SnapshotFunc, options ...Option) *Compositor {
	c := &Compositor{
		snapshot: snapshot,
		logger:   zerolog.Nop(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// State returns the current stage.
func (c *Compositor) State() State {
	return State(atomic.LoadInt32(&c.state))
}

func (c *Compositor) setState(s State) {
	atomic.StoreInt32(&c.state, int32(s))
}

// Image returns the most recently published raster, or nil.
func (c *Compositor) Image() *image.RGBA {
	return c.current.Load()
}

// Wait blocks until any rebuild in flight has returned to Idle.
func (c *Compositor) Wait() {
	c.taskMu.Lock()
	t := c.inflight
	c.taskMu.Unlock()

	if t != nil {
		t.wait()
	}
}

// Refresh waits for any rebuild in flight, snapshots the latest inputs
// and starts a new rebuild on the worker. It returns once the new rebuild
// has started.
func (c *Compositor) Refresh() {
	c.taskMu.Lock()
	defer c.taskMu.Unlock()

	if c.inflight != nil {
		c.inflight.wait()
	}

	build := c.snapshot()
	t := &task{done: make(chan struct{})}
	c.inflight = t
	c.builds++

	// Enter Building before returning so the caller observes the
	// rebuild as started
	c.setState(Building)

	go c.run(t, build, c.builds)
}

func (c *Compositor) run(t *task, build BuildFunc, n uint64) {
	defer close(t.done)

	c.mu.Lock()
	c.logger.Debug().Uint64("build", n).Msg("building")
	m := build()

	c.setState(Publishing)
	c.current.Store(m)
	c.setState(Idle)
	c.mu.Unlock()

	c.logger.Debug().Uint64("build", n).Msg("published")

	if c.redraw != nil {
		c.redraw()
	}
}
