// Package targets registers the built-in language targets.
package targets

import (
	"github.com/jxapi/jxgen/internal/codegen"
	"github.com/jxapi/jxgen/internal/codegen/golang"
	"github.com/jxapi/jxgen/internal/codegen/java"
	"github.com/jxapi/jxgen/internal/codegen/protobuf"
)

// Default is the target used when none is configured
const Default = "java"

// DefaultRegistry is the global registry instance with pre-registered generators
var DefaultRegistry = codegen.NewRegistry()

func init() {
	DefaultRegistry.Register("java", func() codegen.Generator {
		return java.NewGenerator()
	})

	DefaultRegistry.Register("go", func() codegen.Generator {
		return golang.NewGenerator()
	})

	DefaultRegistry.Register("proto", func() codegen.Generator {
		return protobuf.NewGenerator()
	})
}
