package main

import (
	"fmt"
	"image"
	"io"
	"os"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/term"
)

const (
	fallbackColumns = 80
	fallbackRows    = 24
)

func terminalSize() (int, int) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallbackColumns, fallbackRows
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return fallbackColumns, fallbackRows
	}
	return w, h
}

// fit scales m down so it fits within w by h pixels, keeping the aspect
// ratio. It never scales up.
func fit(m image.Image, w, h int) *image.RGBA {
	b := m.Bounds()
	dw, dh := b.Dx(), b.Dy()
	if dw > w {
		dh = dh * w / dw
		dw = w
	}
	if dh > h {
		dw = dw * h / dh
		dh = h
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, dw, dh))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst
}

// preview draws m using upper half block characters, two pixel rows per
// terminal line.
func preview(w io.Writer, m image.Image) error {
	cols, rows := terminalSize()
	img := fit(m, cols, (rows-1)*2)
	b := img.Bounds()

	var sb strings.Builder
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x++ {
			top := img.RGBAAt(x, y)
			bottom := top
			if y+1 < b.Max.Y {
				bottom = img.RGBAAt(x, y+1)
			}
			fmt.Fprintf(&sb, "\x1b[38;2;%d;%d;%dm\x1b[48;2;%d;%d;%dm▀", top.R, top.G, top.B, bottom.R, bottom.G, bottom.B)
		}
		sb.WriteString("\x1b[0m\n")
	}

	_, err := io.WriteString(w, sb.String())
	return err
}
