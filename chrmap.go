/*
Package chrmap is a library for editing console style tile maps.

A TileMap is a grid of screens, each screen is a grid of 8 by 8 tiles
whose pixel data lives in an external CHR buffer. Tiles are grouped into
attribute blocks and every block selects one palette from the map's
palette table. Each screen keeps a cached raster that is only brought up
to date by explicit refresh calls.
*/
package chrmap

import (
	"errors"
	"image"

	"github.com/bodgit/chrmap/chr"
)

// NoTile is returned when reading a tile outside of a screen.
const NoTile = -1

const (
	defaultScreenWidth     = 32
	defaultScreenHeight    = 30
	defaultAttributeWidth  = 2
	defaultAttributeHeight = 2
	defaultBitsPerPixel    = 2
)

var (
	errBadScreenSize    = errors.New("chrmap: invalid screen size")
	errBadAttributeSize = errors.New("chrmap: attribute size does not divide screen size")
	errBadBitsPerPixel  = errors.New("chrmap: unsupported bits per pixel")
	errBadMapSize       = errors.New("chrmap: invalid map size")
)

type geometry struct {
	screenSize    image.Point
	attributeSize image.Point
	bitsPerPixel  int
	layout        chr.Layout
}

func defaultGeometry() geometry {
	return geometry{
		screenSize:    image.Pt(defaultScreenWidth, defaultScreenHeight),
		attributeSize: image.Pt(defaultAttributeWidth, defaultAttributeHeight),
		bitsPerPixel:  defaultBitsPerPixel,
		layout:        chr.Planar,
	}
}

func (g geometry) validate() error {
	switch {
	case g.screenSize.X <= 0 || g.screenSize.Y <= 0:
		return errBadScreenSize
	case g.attributeSize.X <= 0 || g.attributeSize.Y <= 0,
		g.screenSize.X%g.attributeSize.X != 0,
		g.screenSize.Y%g.attributeSize.Y != 0:
		return errBadAttributeSize
	case !chr.ValidDepth(g.bitsPerPixel):
		return errBadBitsPerPixel
	}
	return nil
}

// Attribute blocks across and down one screen
func (g geometry) blocks() image.Point {
	return image.Pt(g.screenSize.X/g.attributeSize.X, g.screenSize.Y/g.attributeSize.Y)
}

// Screen raster size in pixels
func (g geometry) pixels() image.Point {
	return image.Pt(g.screenSize.X*chr.Width, g.screenSize.Y*chr.Height)
}
