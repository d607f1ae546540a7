package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"path/filepath"

	"github.com/bodgit/chrmap"
	"github.com/bodgit/chrmap/chr"
	"github.com/bodgit/chrmap/palette"
	"github.com/bodgit/chrmap/pyxel"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"golang.org/x/image/draw"
)

const defaultDB = "chrmap.db"

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func newLogger(c *cli.Context) zerolog.Logger {
	if c.Bool("verbose") {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.Nop()
}

func openDB(c *cli.Context) (*chrmap.ProjectDB, zerolog.Logger, error) {
	logger := newLogger(c)
	db, err := chrmap.NewProjectDB(c.String("db"), logger)
	return db, logger, err
}

func loadProject(c *cli.Context) (*chrmap.ProjectDB, *chrmap.Project, error) {
	db, logger, err := openDB(c)
	if err != nil {
		return nil, nil, err
	}
	p, err := db.LoadProject(c.Args().First(), logger)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, p, nil
}

func writePNG(file string, m image.Image) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, m); err != nil {
		return err
	}
	return f.Close()
}

func zoom(m *image.RGBA, factor int) image.Image {
	if factor <= 1 {
		return m
	}
	b := m.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), m, b, draw.Src, nil)
	return dst
}

func mapOptions(c *cli.Context) []chrmap.Option {
	layout := chr.Planar
	if c.Bool("interleaved") {
		layout = chr.Interleaved
	}
	return []chrmap.Option{
		chrmap.WithBitsPerPixel(c.Int("bpp")),
		chrmap.WithLayout(layout),
		chrmap.WithScreenSize(c.Int("screen-width"), c.Int("screen-height")),
		chrmap.WithAttributeSize(c.Int("attribute-size"), c.Int("attribute-size")),
	}
}

var geometryFlags = []cli.Flag{
	&cli.IntFlag{
		Name:  "bpp",
		Value: 2,
		Usage: "bits per pixel",
	},
	&cli.BoolFlag{
		Name:  "interleaved",
		Usage: "use the interleaved (SNES) plane layout",
	},
	&cli.IntFlag{
		Name:  "screen-width",
		Value: 32,
		Usage: "screen width in tiles",
	},
	&cli.IntFlag{
		Name:  "screen-height",
		Value: 30,
		Usage: "screen height in tiles",
	},
	&cli.IntFlag{
		Name:  "attribute-size",
		Value: 2,
		Usage: "attribute block size in tiles",
	},
}

func needArgs(c *cli.Context, n int) {
	if c.NArg() < n {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "chrmap"
	app.Usage = "CHR tile map editing utility"
	app.Version = "1.0.0"

	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "db",
			EnvVars: []string{"CHRMAP_DB"},
			Value:   filepath.Join(cwd, defaultDB),
			Usage:   "path to database",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "import",
			Usage:     "Convert an image into tiles, palettes and a map",
			ArgsUsage: "NAME IMAGE",
			Flags:     geometryFlags,
			Action: func(c *cli.Context) error {
				needArgs(c, 2)

				db, logger, err := openDB(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				f, err := os.Open(c.Args().Get(1))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer f.Close()

				m, _, err := image.Decode(f)
				if err != nil {
					return cli.Exit(err, 1)
				}

				tm, err := chrmap.NewTileMap(mapOptions(c)...)
				if err != nil {
					return cli.Exit(err, 1)
				}

				p := chrmap.NewProject(tm, nil, logger)
				if err := p.ImportImage(m); err != nil {
					return cli.Exit(err, 1)
				}

				if err := db.SaveProject(c.Args().First(), p); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "pyxel",
			Usage:     "Flatten a Pyxel Edit tile map into a screen",
			ArgsUsage: "NAME FILE",
			Flags: append([]cli.Flag{
				&cli.IntFlag{
					Name:  "x",
					Usage: "screen column",
				},
				&cli.IntFlag{
					Name:  "y",
					Usage: "screen row",
				},
			}, geometryFlags...),
			Action: func(c *cli.Context) error {
				needArgs(c, 2)

				db, logger, err := openDB(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				p, err := db.LoadProject(c.Args().First(), logger)
				switch {
				case errors.Is(err, chrmap.ErrProjectNotFound):
					tm, err := chrmap.NewTileMap(append(mapOptions(c), chrmap.WithSize(c.Int("x")+1, c.Int("y")+1))...)
					if err != nil {
						return cli.Exit(err, 1)
					}
					tm.Palettes.Append(palette.Greyscale(tm.ColorCount()))
					p = chrmap.NewProject(tm, nil, logger)
				case err != nil:
					return cli.Exit(err, 1)
				}

				f, err := os.Open(c.Args().Get(1))
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer f.Close()

				pm, err := pyxel.Decode(f)
				if err != nil {
					return cli.Exit(err, 1)
				}

				s, ok := p.Map.Screen(c.Int("x"), c.Int("y"))
				if !ok {
					w, h := p.Map.Size()
					if c.Int("x") < 0 || c.Int("x") >= w || c.Int("y") < 0 || c.Int("y") >= h {
						return cli.Exit("screen is outside of the map", 1)
					}
					s = p.Map.MaterializeScreen(c.Int("x"), c.Int("y"))
				}

				size := p.Map.ScreenSize()
				s.ImportTiles(pm.Flatten(size.X, size.Y))
				s.EditEnd()

				if err := db.SaveProject(c.Args().First(), p); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "render",
			Usage:     "Render a map to a PNG image",
			ArgsUsage: "NAME FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "zoom",
					Value: 1,
					Usage: "scale factor",
				},
			},
			Action: func(c *cli.Context) error {
				needArgs(c, 2)

				db, p, err := loadProject(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				p.RefreshAll()

				if err := writePNG(c.Args().Get(1), zoom(p.Map.Image(), c.Int("zoom"))); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "tiles",
			Usage:     "Render every tile to a PNG image",
			ArgsUsage: "NAME FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "palette",
					Usage: "palette index",
				},
				&cli.IntFlag{
					Name:  "columns",
					Value: 16,
					Usage: "tiles per row",
				},
				&cli.IntFlag{
					Name:  "zoom",
					Value: 1,
					Usage: "scale factor",
				},
			},
			Action: func(c *cli.Context) error {
				needArgs(c, 2)

				db, p, err := loadProject(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				preview := p.TileSetPreview(c.Int("palette"), c.Int("columns"), nil)
				preview.Wait()

				if err := writePNG(c.Args().Get(1), zoom(preview.Image(), c.Int("zoom"))); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "preview",
			Usage:     "Show a map in the terminal",
			ArgsUsage: "NAME",
			Action: func(c *cli.Context) error {
				needArgs(c, 1)

				db, p, err := loadProject(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				p.RefreshAll()

				if err := preview(os.Stdout, p.Map.Image()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
		{
			Name:      "clean",
			Usage:     "Merge identical tiles and remove unused tiles",
			ArgsUsage: "NAME",
			Action: func(c *cli.Context) error {
				needArgs(c, 1)

				db, p, err := loadProject(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				merged := p.MergeIdenticalTiles()
				removed := p.RemoveUnusedTiles()

				if err := db.SaveProject(c.Args().First(), p); err != nil {
					return cli.Exit(err, 1)
				}

				fmt.Printf("merged %d, removed %d, %d tiles remain\n", merged, removed, p.TileCount())

				return nil
			},
		},
		{
			Name:  "list",
			Usage: "List stored maps",
			Action: func(c *cli.Context) error {
				db, _, err := openDB(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				names, err := db.Names()
				if err != nil {
					return cli.Exit(err, 1)
				}
				for _, name := range names {
					fmt.Println(name)
				}

				return nil
			},
		},
		{
			Name:      "export",
			Usage:     "Render every stored map to a directory",
			ArgsUsage: "DIRECTORY",
			Action: func(c *cli.Context) error {
				needArgs(c, 1)

				db, _, err := openDB(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer db.Close()

				if err := db.ExportAll(context.Background(), c.Args().First()); err != nil {
					return cli.Exit(err, 1)
				}

				return nil
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
