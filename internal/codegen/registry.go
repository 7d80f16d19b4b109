package codegen

import (
	"fmt"
	"sort"
	"strings"
)

// Registry manages available code generators
type Registry struct {
	generators map[string]func() Generator
}

// NewRegistry creates a new generator registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[string]func() Generator),
	}
}

// Register adds a new generator factory to the registry
func (r *Registry) Register(language string, factory func() Generator) {
	r.generators[language] = factory
}

// Get returns a generator for the specified language
func (r *Registry) Get(language string) (Generator, error) {
	factory, exists := r.generators[language]
	if !exists {
		return nil, fmt.Errorf("unsupported target %q (available: %s)", language, strings.Join(r.Languages(), ", "))
	}
	return factory(), nil
}

// Languages returns the sorted list of supported languages
func (r *Registry) Languages() []string {
	languages := make([]string, 0, len(r.generators))
	for lang := range r.generators {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages
}
