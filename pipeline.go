package chrmap

import (
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"sync"
)

const exportWorkers = 4

func (db *ProjectDB) findProjects(ctx context.Context) (<-chan string, <-chan error, error) {
	names, err := db.Names()
	if err != nil {
		return nil, nil, err
	}

	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for _, name := range names {
			select {
			case out <- name:
			case <-ctx.Done():
				errc <- errors.New("export cancelled")
				return
			}
		}
	}()
	return out, errc, nil
}

func (db *ProjectDB) exportProject(name, dir string) error {
	p, err := db.LoadProject(name, db.logger)
	if err != nil {
		return err
	}
	p.RefreshAll()

	f, err := os.Create(filepath.Join(dir, name+".png"))
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, p.Map.Image()); err != nil {
		return err
	}

	db.logger.Info().Str("name", name).Str("file", f.Name()).Msg("exported")

	return f.Close()
}

func (db *ProjectDB) exportWorker(ctx context.Context, dir string, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for name := range in {
			if err := db.exportProject(name, dir); err != nil {
				errc <- err
				return
			}
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// ExportAll renders every stored project to a PNG file named after the
// project in dir. Each worker loads its own copy of a project so nothing
// is shared between them.
func (db *ProjectDB) ExportAll(ctx context.Context, dir string) error {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	var errcList []<-chan error

	names, errc, err := db.findProjects(ctx)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < exportWorkers; i++ {
		errc, err := db.exportWorker(ctx, dir, names)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
