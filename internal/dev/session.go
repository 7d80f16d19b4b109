// Package dev regenerates sources whenever descriptors change
package dev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jxapi/jxgen/internal/config"
	"github.com/jxapi/jxgen/internal/descriptor"
	"github.com/jxapi/jxgen/internal/generator"
)

// DescriptorRoot is the directory holding both descriptor trees, relative
// to the project root
var DescriptorRoot = filepath.Dir(descriptor.ExchangesDir)

// Session runs the watch loop for one project
type Session struct {
	config      *config.Config
	projectRoot string
	gen         Generator
	out         io.Writer
	logger      zerolog.Logger

	// Regeneration runs are serialized
	mu sync.Mutex
}

// NewSession creates a watch session. Progress lines are printed to out.
func NewSession(cfg *config.Config, projectRoot string, gen Generator, out io.Writer, logger zerolog.Logger) *Session {
	return &Session{
		config:      cfg,
		projectRoot: projectRoot,
		gen:         gen,
		out:         out,
		logger:      logger.With().Str("component", "watch-session").Logger(),
	}
}

// Start regenerates both modes once and then again on every batch of
// descriptor changes until ctx is done. Generation failures are reported
// and watching continues.
func (s *Session) Start(ctx context.Context) error {
	root := filepath.Join(s.projectRoot, filepath.FromSlash(DescriptorRoot))
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("descriptor directory not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("descriptor path %s is not a directory", root)
	}

	s.Regenerate(ctx, true, true)

	watcher, err := NewFileWatcher(
		descriptor.Extensions(descriptor.KindPojo),
		s.config.Watch.Exclude,
		s.config.Watch.Debounce,
		func(paths []string) { s.handleChanges(ctx, paths) },
		s.logger,
	)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.AddDirectory(root); err != nil {
		return fmt.Errorf("failed to watch descriptor directory: %w", err)
	}

	fmt.Fprintf(s.out, "👀 Watching %s for changes. Press Ctrl+C to stop.\n", root)
	err = watcher.Start(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// handleChanges regenerates the modes affected by paths. Exchanges may
// reference shared POJOs, so a POJO change regenerates both.
func (s *Session) handleChanges(ctx context.Context, paths []string) {
	var exchanges, pojos bool
	for _, p := range paths {
		switch s.kindOf(p) {
		case descriptor.KindPojo:
			pojos, exchanges = true, true
		case descriptor.KindExchange:
			exchanges = true
		}
	}
	if !exchanges && !pojos {
		return
	}

	fmt.Fprintf(s.out, "🔄 %d descriptor file(s) changed, regenerating...\n", len(paths))
	s.Regenerate(ctx, exchanges, pojos)
}

// kindOf reports which descriptor tree path belongs to, or "" for neither
func (s *Session) kindOf(path string) descriptor.Kind {
	rel, err := filepath.Rel(s.projectRoot, path)
	if err != nil {
		return ""
	}
	rel = filepath.ToSlash(rel)
	switch {
	case strings.HasPrefix(rel, descriptor.ExchangesDir+"/"):
		return descriptor.KindExchange
	case strings.HasPrefix(rel, descriptor.PojosDir+"/"):
		return descriptor.KindPojo
	}
	return ""
}

// Regenerate runs the selected modes, POJOs first. It returns the
// failures it reported, nil when every run succeeded.
func (s *Session) Regenerate(ctx context.Context, exchanges, pojos bool) []*generator.Failure {
	s.mu.Lock()
	defer s.mu.Unlock()

	var failures []*generator.Failure
	if pojos {
		result, err := s.gen.GeneratePojos(ctx, s.config.PojoRequest(s.projectRoot))
		failures = s.report("POJOs", result, err, failures)
	}
	if exchanges {
		result, err := s.gen.GenerateExchangeWrappers(ctx, s.config.ExchangeRequest(s.projectRoot))
		failures = s.report("exchange wrappers", result, err, failures)
	}
	return failures
}

func (s *Session) report(what string, result *generator.Result, err error, failures []*generator.Failure) []*generator.Failure {
	if err != nil {
		f := generator.Describe(err)
		s.logger.Error().
			Str("kind", string(f.Kind)).
			Str("file", f.File).
			Int("line", f.Line).
			Msg(f.Message)
		fmt.Fprintf(s.out, "❌ Generating %s failed: %s\n", what, f.Message)
		return append(failures, f)
	}
	fmt.Fprintf(s.out, "✅ Generated %s: %d written, %d unchanged\n", what, result.Stats.Written, result.Stats.Unchanged)
	return failures
}
