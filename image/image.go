/*
Package image converts between ordinary images and CHR tile data.

Sheet and DecodeSheet render every tile held in a CHR buffer as a grid,
which is how a tile set is previewed. Encode goes the other way: an image
is cut into 8 by 8 tiles, every attribute block is reduced to at most one
palette's worth of colors, the block palettes are packed into as few
palettes as possible and identical tiles are stored once.
*/
package image

import (
	"errors"

	"github.com/bodgit/chrmap/chr"
)

const (
	tileWidth  = chr.Width
	tileHeight = chr.Height

	// DefaultColumns is the width in tiles of a rendered tile sheet
	DefaultColumns = 16
)

var (
	errNotEnough     = errors.New("image: not enough tile data")
	errBadDepth      = errors.New("image: unsupported bit depth")
	errBadSize       = errors.New("image: size is not a multiple of the attribute block")
	errTooManyColors = errors.New("image: colors cannot be packed into the available palettes")
)
