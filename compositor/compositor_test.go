package compositor

import (
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(c color.RGBA) *image.RGBA {
	m := image.NewRGBA(image.Rect(0, 0, 1, 1))
	m.SetRGBA(0, 0, c)
	return m
}

func TestRefresh(t *testing.T) {
	var redraws int32

	value := uint8(1)
	c := New(func() BuildFunc {
		v := value
		return func() *image.RGBA {
			return solid(color.RGBA{v, v, v, 0xff})
		}
	}, WithRedraw(func() {
		atomic.AddInt32(&redraws, 1)
	}))

	assert.Equal(t, Idle, c.State())
	assert.Nil(t, c.Image())

	c.Refresh()
	c.Wait()
	require.NotNil(t, c.Image())
	assert.Equal(t, uint8(1), c.Image().RGBAAt(0, 0).R)
	assert.Equal(t, Idle, c.State())

	value = 2
	c.Refresh()
	c.Wait()
	assert.Equal(t, uint8(2), c.Image().RGBAAt(0, 0).R)
	assert.Equal(t, int32(2), atomic.LoadInt32(&redraws))
}

func TestInitial(t *testing.T) {
	m := solid(color.RGBA{})
	c := New(nil, WithInitial(m))
	assert.Same(t, m, c.Image())

	// Nothing in flight
	c.Wait()
}

func TestRefreshWaitsForInflight(t *testing.T) {
	gate := make(chan struct{})
	started := make(chan struct{}, 2)

	var builds int32
	c := New(func() BuildFunc {
		n := atomic.AddInt32(&builds, 1)
		return func() *image.RGBA {
			started <- struct{}{}
			if n == 1 {
				<-gate
			}
			return solid(color.RGBA{uint8(n), 0, 0, 0xff})
		}
	})

	c.Refresh()
	<-started
	assert.Equal(t, Building, c.State())

	old := c.Image()
	assert.Nil(t, old)

	second := make(chan struct{})
	go func() {
		c.Refresh()
		close(second)
	}()

	select {
	case <-second:
		t.Fatal("refresh returned while a rebuild was in flight")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))

	close(gate)
	<-second
	c.Wait()

	assert.Equal(t, int32(2), atomic.LoadInt32(&builds))
	assert.Equal(t, uint8(2), c.Image().RGBAAt(0, 0).R)
	assert.Equal(t, Idle, c.State())
}

func TestSnapshotIsolation(t *testing.T) {
	var mu sync.Mutex
	input := []uint8{1}
	gate := make(chan struct{})

	c := New(func() BuildFunc {
		mu.Lock()
		v := append([]uint8(nil), input...)
		mu.Unlock()
		return func() *image.RGBA {
			<-gate
			return solid(color.RGBA{v[0], 0, 0, 0xff})
		}
	})

	c.Refresh()

	mu.Lock()
	input[0] = 9
	mu.Unlock()

	close(gate)
	c.Wait()

	assert.Equal(t, uint8(1), c.Image().RGBAAt(0, 0).R)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "building", Building.String())
	assert.Equal(t, "publishing", Publishing.String())
	assert.Equal(t, "unknown", State(7).String())
}
