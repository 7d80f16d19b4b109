// Package emit writes generated units under their output roots.
package emit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/jxapi/jxgen/internal/codegen"
)

// ErrUnsafePath is returned for unit paths that are absolute or escape
// their root
var ErrUnsafePath = errors.New("path escapes output root")

// IOError is returned when a unit cannot be written
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("emission %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Roots are the directories units are written under
type Roots struct {
	Main string
	Test string
}

func (r Roots) dir(root codegen.Root) string {
	if root == codegen.TestRoot {
		return r.Test
	}
	return r.Main
}

// Stats counts what a run did on disk
type Stats struct {
	Written   int `json:"written" yaml:"written"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
}

// Emitter writes units with a bounded number of concurrent writers
type Emitter struct {
	workers int
	logger  zerolog.Logger
}

// New creates an emitter. workers <= 0 uses GOMAXPROCS.
func New(workers int, logger zerolog.Logger) *Emitter {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Emitter{
		workers: workers,
		logger:  logger.With().Str("component", "emitter").Logger(),
	}
}

// EnsureRoots creates the configured roots if they do not exist
func EnsureRoots(roots Roots) error {
	for _, dir := range []string{roots.Main, roots.Test} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	return nil
}

// Emit writes every unit under its root. All paths are checked before
// anything is written. Files whose content is already identical are left
// untouched so their modification time is preserved. Existing files are
// overwritten in place and nothing is ever deleted.
func (e *Emitter) Emit(ctx context.Context, roots Roots, units []codegen.Unit) (Stats, error) {
	seen := make(map[string]bool, len(units))
	for _, u := range units {
		dir := roots.dir(u.Root)
		if dir == "" {
			return Stats{}, &IOError{Op: "validate", Path: u.Path, Err: fmt.Errorf("no %s output directory configured", u.Root)}
		}
		if !filepath.IsLocal(filepath.FromSlash(u.Path)) {
			return Stats{}, &IOError{Op: "validate", Path: u.Path, Err: ErrUnsafePath}
		}
		key := string(u.Root) + ":" + u.Path
		if seen[key] {
			return Stats{}, &IOError{Op: "validate", Path: u.Path, Err: errors.New("generated twice in one run")}
		}
		seen[key] = true
	}

	if err := EnsureRoots(roots); err != nil {
		return Stats{}, err
	}

	changed := make([]bool, len(units))
	errs := make([]error, len(units))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, u := range units {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return err
			}
			dest := filepath.Join(roots.dir(u.Root), filepath.FromSlash(u.Path))
			wrote, err := writeIfChanged(dest, u.Content)
			if err != nil {
				errs[i] = err
				return err
			}
			changed[i] = wrote
			return nil
		})
	}
	groupErr := g.Wait()

	// Report the first failure in unit order rather than completion order
	for _, err := range errs {
		if err != nil {
			return Stats{}, err
		}
	}
	if groupErr != nil {
		return Stats{}, groupErr
	}

	var stats Stats
	for i, u := range units {
		if changed[i] {
			stats.Written++
			e.logger.Debug().Str("root", string(u.Root)).Str("path", u.Path).Msg("Wrote file")
		} else {
			stats.Unchanged++
		}
	}
	return stats, nil
}

// writeIfChanged replaces dest with content unless it already holds
// exactly that content. The write goes through a temporary file in the same
// directory so readers never observe a partial file.
func writeIfChanged(dest string, content []byte) (bool, error) {
	existing, err := os.ReadFile(dest)
	switch {
	case err == nil && bytes.Equal(existing, content):
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, &IOError{Op: "read", Path: dest, Err: err}
	}

	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, &IOError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return false, &IOError{Op: "create", Path: dest, Err: err}
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return false, &IOError{Op: "write", Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return false, &IOError{Op: "write", Path: dest, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return false, &IOError{Op: "chmod", Path: dest, Err: err}
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return false, &IOError{Op: "rename", Path: dest, Err: err}
	}
	return true, nil
}
