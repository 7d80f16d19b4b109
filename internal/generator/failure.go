package generator

import (
	"context"
	"errors"

	"github.com/jxapi/jxgen/internal/codegen"
	"github.com/jxapi/jxgen/internal/descriptor"
	"github.com/jxapi/jxgen/internal/emit"
	"github.com/jxapi/jxgen/internal/model"
)

// ErrorKind classifies a failed run
type ErrorKind string

const (
	KindParse               ErrorKind = "parse"
	KindUnresolvedReference ErrorKind = "unresolved-reference"
	KindAmbiguousReference  ErrorKind = "ambiguous-reference"
	KindCyclicReference     ErrorKind = "cyclic-reference"
	KindDuplicateDefinition ErrorKind = "duplicate-definition"
	KindUnsupportedType     ErrorKind = "unsupported-type"
	KindEmissionIO          ErrorKind = "emission-io"
	KindCanceled            ErrorKind = "canceled"
	KindInternal            ErrorKind = "internal"
)

// Failure is a structured description of a run error
type Failure struct {
	Kind    ErrorKind `json:"kind" yaml:"kind"`
	File    string    `json:"file,omitempty" yaml:"file,omitempty"`
	Line    int       `json:"line,omitempty" yaml:"line,omitempty"`
	Entity  string    `json:"entity,omitempty" yaml:"entity,omitempty"`
	Message string    `json:"message" yaml:"message"`
}

// Describe classifies err. It returns nil for a nil error.
func Describe(err error) *Failure {
	if err == nil {
		return nil
	}
	f := &Failure{Kind: KindInternal, Message: err.Error()}

	var (
		parseErr       *descriptor.ParseError
		unresolvedErr  *model.UnresolvedReferenceError
		ambiguousErr   *model.AmbiguousReferenceError
		cyclicErr      *model.CyclicReferenceError
		duplicateErr   *model.DuplicateDefinitionError
		unsupportedErr *codegen.UnsupportedTypeError
		ioErr          *emit.IOError
	)
	switch {
	case errors.As(err, &parseErr):
		f.Kind = KindParse
		f.File, f.Line = parseErr.File, parseErr.Line
	case errors.As(err, &unresolvedErr):
		f.Kind = KindUnresolvedReference
		f.File, f.Line = unresolvedErr.Source.File, unresolvedErr.Source.Line
		f.Entity = referrerEntity(unresolvedErr.Referrer)
	case errors.As(err, &ambiguousErr):
		f.Kind = KindAmbiguousReference
		f.File, f.Line = ambiguousErr.Source.File, ambiguousErr.Source.Line
		f.Entity = referrerEntity(ambiguousErr.Referrer)
	case errors.As(err, &cyclicErr):
		f.Kind = KindCyclicReference
		f.File, f.Line = cyclicErr.Source.File, cyclicErr.Source.Line
		if len(cyclicErr.Path) > 0 {
			f.Entity = cyclicErr.Path[0]
		}
	case errors.As(err, &duplicateErr):
		f.Kind = KindDuplicateDefinition
		f.File, f.Line = duplicateErr.Source.File, duplicateErr.Source.Line
		f.Entity = duplicateErr.Name
	case errors.As(err, &unsupportedErr):
		f.Kind = KindUnsupportedType
		f.Entity = unsupportedErr.Entity
	case errors.As(err, &ioErr):
		f.Kind = KindEmissionIO
		f.File = ioErr.Path
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		f.Kind = KindCanceled
	}
	return f
}

func referrerEntity(r model.Referrer) string {
	switch {
	case r.Entity != "":
		return r.Entity
	case r.Endpoint != "" && r.Exchange != "":
		return r.Exchange + "." + r.Endpoint
	default:
		return r.Exchange
	}
}
