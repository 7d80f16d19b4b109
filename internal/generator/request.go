// Package generator runs the load, build and emit stages for one mode
package generator

import (
	"path/filepath"

	"github.com/jxapi/jxgen/internal/model"
)

const (
	// DefaultExchangeMainDir is where exchange wrappers go when no main
	// directory is given
	DefaultExchangeMainDir = "target/generated-sources/jxapi"

	// DefaultExchangeTestDir is where exchange test skeletons go when no
	// test directory is given
	DefaultExchangeTestDir = "target/generated-test-sources/jxapi"

	// DefaultPojoMainDir is where POJOs go when no main directory is given
	DefaultPojoMainDir = "target/generated-sources"

	// DefaultTarget is the output language used when none is requested
	DefaultTarget = "java"
)

// Request describes one generation run. Relative directories are resolved
// against BaseDir.
type Request struct {
	BaseDir        string
	MainDir        string
	TestDir        string
	BaseJavaDocURL string
	BaseSrcURL     string
	Target         string
	PackageName    string
	Workers        int
}

// withDefaults fills unset fields for the given mode. POJO runs never have
// a test root.
func (r Request) withDefaults(mode model.Mode) Request {
	if r.BaseDir == "" {
		r.BaseDir = "."
	}
	if r.Target == "" {
		r.Target = DefaultTarget
	}
	switch mode {
	case model.ModeExchange:
		if r.MainDir == "" {
			r.MainDir = DefaultExchangeMainDir
		}
		if r.TestDir == "" {
			r.TestDir = DefaultExchangeTestDir
		}
	case model.ModePojo:
		if r.MainDir == "" {
			r.MainDir = DefaultPojoMainDir
		}
		r.TestDir = ""
	}
	return r
}

func (r Request) resolve(dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(r.BaseDir, dir)
}

// MainRoot returns the main output directory for mode
func (r Request) MainRoot(mode model.Mode) string {
	d := r.withDefaults(mode)
	return d.resolve(d.MainDir)
}

// TestRoot returns the test output directory for mode, empty for POJOs
func (r Request) TestRoot(mode model.Mode) string {
	d := r.withDefaults(mode)
	return d.resolve(d.TestDir)
}
