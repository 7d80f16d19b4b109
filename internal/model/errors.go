package model

import (
	"fmt"
	"strings"

	"github.com/jxapi/jxgen/internal/descriptor"
)

func location(src descriptor.Source) string {
	if src.File == "" {
		return ""
	}
	if src.Line > 0 {
		return fmt.Sprintf(" (%s:%d)", src.File, src.Line)
	}
	return fmt.Sprintf(" (%s)", src.File)
}

// Referrer identifies where a type reference appears
type Referrer struct {
	Exchange string // owning exchange, empty for shared POJOs
	Entity   string // entity holding the field, if the reference is a field type
	Endpoint string // "Api.endpoint", if the reference is an endpoint message
	Field    string // field name, or request/response/message for endpoints
	Source   descriptor.Source
}

func (r Referrer) String() string {
	var parts []string
	if r.Exchange != "" {
		parts = append(parts, "exchange "+r.Exchange)
	}
	if r.Entity != "" {
		parts = append(parts, "entity "+r.Entity)
	}
	if r.Endpoint != "" {
		parts = append(parts, "endpoint "+r.Endpoint)
	}
	if r.Field != "" {
		parts = append(parts, "field "+r.Field)
	}
	return strings.Join(parts, ", ")
}

// UnresolvedReferenceError is returned when a type reference names no known
// entity
type UnresolvedReferenceError struct {
	Type string
	Referrer
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("unresolved reference to type %q in %s%s", e.Type, e.Referrer, location(e.Source))
}

// AmbiguousReferenceError is returned when a simple name matches entities in
// several packages and none in the referencing package
type AmbiguousReferenceError struct {
	Type       string
	Candidates []string
	Referrer
}

func (e *AmbiguousReferenceError) Error() string {
	return fmt.Sprintf("ambiguous reference to type %q in %s: candidates %s%s",
		e.Type, e.Referrer, strings.Join(e.Candidates, ", "), location(e.Source))
}

// CyclicReferenceError reports a composition cycle. Path starts and ends
// with the same entity.
type CyclicReferenceError struct {
	Path   []string
	Source descriptor.Source
}

func (e *CyclicReferenceError) Error() string {
	return fmt.Sprintf("cyclic reference: %s%s", strings.Join(e.Path, " -> "), location(e.Source))
}

// DuplicateDefinitionError is returned when two definitions produce the same
// fully-qualified name
type DuplicateDefinitionError struct {
	Name   string
	First  descriptor.Source
	Source descriptor.Source
}

func (e *DuplicateDefinitionError) Error() string {
	first := "a built-in type"
	if e.First.File != "" {
		first = strings.TrimPrefix(location(e.First), " ")
		first = strings.Trim(first, "()")
	}
	return fmt.Sprintf("duplicate definition of %q, already defined at %s%s", e.Name, first, location(e.Source))
}
