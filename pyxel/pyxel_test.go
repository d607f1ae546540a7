package pyxel

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const export = `<tilemap tileswide="4" tileshigh="2" tilewidth="8" tileheight="8">
  <layer number="1" name="Background">
    <tile x="0" y="0" index="5" rot="0" flipX="false"/>
    <tile x="1" y="0" index="6" rot="0" flipX="false"/>
    <tile x="3" y="1" index="7" rot="0" flipX="false"/>
  </layer>
  <layer number="0" name="Foreground">
    <tile x="1" y="0" index="9" rot="0" flipX="false"/>
    <tile x="0" y="0" index="-1" rot="0" flipX="false"/>
    <tile x="8" y="8" index="3" rot="0" flipX="false"/>
  </layer>
</tilemap>`

func TestDecode(t *testing.T) {
	m, err := Decode(strings.NewReader(export))
	require.NoError(t, err)

	assert.Equal(t, 4, m.Width)
	assert.Equal(t, 2, m.Height)
	require.Len(t, m.Layers, 2)
	assert.Equal(t, "Background", m.Layers[0].Name)
	assert.Equal(t, Tile{X: 3, Y: 1, Index: 7}, m.Layers[0].Tiles[2])
}

func TestFlatten(t *testing.T) {
	m, err := Decode(strings.NewReader(export))
	require.NoError(t, err)

	assert.Equal(t, []int{
		5, 9, 0, 0,
		0, 0, 0, 7,
	}, m.Flatten(4, 2))

	// Smaller target drops what doesn't fit
	assert.Equal(t, []int{5, 9}, m.Flatten(2, 1))
}

func TestDecodeInvalid(t *testing.T) {
	_, err := Decode(strings.NewReader("<tilemap"))
	assert.Error(t, err)
}
