// Package codegen defines the contract between the resolved model and the
// language targets that render it into source files.
package codegen

import (
	"sort"

	"github.com/jxapi/jxgen/internal/model"
)

// Root selects which output directory a unit is written under
type Root string

const (
	MainRoot Root = "main"
	TestRoot Root = "test"
)

// Unit is one generated source file. Path is slash separated and relative
// to its root.
type Unit struct {
	Path    string `json:"path" yaml:"path"`
	Root    Root   `json:"root" yaml:"root"`
	Content []byte `json:"-" yaml:"-"`
	// Entity or exchange the unit was rendered from
	Origin string `json:"origin,omitempty" yaml:"origin,omitempty"`
}

// Generator is the interface that all language targets must implement
type Generator interface {
	// Generate renders the model. It must be a pure function of its inputs.
	Generate(m *model.Model, opts Options) ([]Unit, error)

	// Language returns the name of the target language (e.g., "java", "go")
	Language() string

	// FileExtension returns the file extension for generated files (e.g., ".java")
	FileExtension() string
}

// Options contains common options for code generation
type Options struct {
	// BaseJavaDocURL is prepended to generated javadoc links to entity pages
	BaseJavaDocURL string

	// BaseSrcURL is prepended to descriptor paths to link generated code
	// back to its source
	BaseSrcURL string

	// PackageName overrides the output package for targets that emit a
	// single flat package
	PackageName string

	// IncludeTests requests companion test skeletons under the test root
	IncludeTests bool
}

// SortUnits orders units by root then path
func SortUnits(units []Unit) {
	sort.Slice(units, func(i, j int) bool {
		if units[i].Root != units[j].Root {
			return units[i].Root < units[j].Root
		}
		return units[i].Path < units[j].Path
	})
}
