// Package descriptor discovers and parses exchange and POJO descriptor files
package descriptor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// ExchangesDir is where exchange descriptors live, relative to the project
	ExchangesDir = "src/main/resources/jxapi/exchanges"

	// PojosDir is where POJO descriptors live, relative to the project
	PojosDir = "src/main/resources/jxapi/pojos"
)

// Dir returns the conventional descriptor directory for kind
func Dir(kind Kind) string {
	if kind == KindExchange {
		return ExchangesDir
	}
	return PojosDir
}

// Extensions returns the descriptor file extensions accepted for kind
func Extensions(kind Kind) []string {
	if kind == KindExchange {
		return []string{".yaml", ".yml", ".json"}
	}
	return []string{".yaml", ".yml", ".json", ".graphql", ".gql"}
}

// Loader reads descriptor files from a project tree
type Loader struct {
	workers int
	logger  zerolog.Logger
}

// NewLoader creates a loader parsing at most workers files at a time.
// A non-positive value uses GOMAXPROCS.
func NewLoader(workers int, logger zerolog.Logger) *Loader {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Loader{
		workers: workers,
		logger:  logger.With().Str("component", "descriptor-loader").Logger(),
	}
}

// Load parses every descriptor of the given kind under baseDir. The result is
// ordered by fully-qualified name. A missing descriptor directory yields no
// descriptors.
func (l *Loader) Load(ctx context.Context, baseDir string, kind Kind) ([]*Descriptor, error) {
	files, err := Discover(baseDir, kind)
	if err != nil {
		return nil, err
	}

	l.logger.Debug().
		Str("kind", string(kind)).
		Int("files", len(files)).
		Msg("discovered descriptor files")

	results := make([][]*Descriptor, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for i, rel := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = l.parseFile(baseDir, rel, kind)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Report the first failure in file order so the outcome does not depend
	// on scheduling
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var all []*Descriptor
	byName := make(map[string]*Descriptor)
	for _, descriptors := range results {
		for _, d := range descriptors {
			if prev, ok := byName[d.Name]; ok {
				return nil, &ParseError{
					File:    d.Source.File,
					Line:    d.Source.Line,
					Field:   "name",
					Message: fmt.Sprintf("duplicate descriptor %q, first defined in %s", d.Name, prev.Source.File),
				}
			}
			byName[d.Name] = d
			all = append(all, d)
		}
	}

	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (l *Loader) parseFile(baseDir, rel string, kind Kind) ([]*Descriptor, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, &ParseError{File: rel, Message: "failed to read descriptor", Err: err}
	}

	l.logger.Debug().
		Str("path", rel).
		Int("size", len(data)).
		Msg("read descriptor file")

	return Parse(rel, kind, data)
}

// Parse decodes the content of one descriptor file. The format is chosen
// by file extension.
func Parse(file string, kind Kind, data []byte) ([]*Descriptor, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".graphql", ".gql":
		if kind != KindPojo {
			return nil, &ParseError{File: file, Message: "GraphQL descriptors are only supported for POJOs"}
		}
		return parseGraphQL(file, string(data))
	default:
		return parseYAML(file, kind, data)
	}
}

// Discover lists descriptor files for kind, relative to baseDir with forward
// slashes, in lexical order. Hidden files and directories are skipped.
func Discover(baseDir string, kind Kind) ([]string, error) {
	root := filepath.Join(baseDir, filepath.FromSlash(Dir(kind)))
	info, err := os.Stat(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat descriptor directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("descriptor path %s is not a directory", root)
	}

	exts := Extensions(kind)
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if e == ext {
				rel, err := filepath.Rel(baseDir, path)
				if err != nil {
					return err
				}
				files = append(files, filepath.ToSlash(rel))
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan descriptor directory %s: %w", root, err)
	}

	sort.Strings(files)
	return files, nil
}
