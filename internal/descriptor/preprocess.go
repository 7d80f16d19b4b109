package descriptor

import (
	"regexp"
)

// jxapiDirectiveRegex matches @jxapi(...) at the start of a line
var jxapiDirectiveRegex = regexp.MustCompile(`(?m)^@jxapi\s*\(((?:[^()]*|\([^)]*\))*)\)`)

// metadataTypeName is the synthetic type carrying the @jxapi header
const metadataTypeName = "_Descriptor"

// PreprocessGraphQL rewrites the `@jxapi(...)` header into a valid GraphQL type
// definition so the document can be handed to a standard SDL parser.
func PreprocessGraphQL(input string) string {
	return jxapiDirectiveRegex.ReplaceAllStringFunc(input, func(match string) string {
		args := jxapiDirectiveRegex.FindStringSubmatch(match)[1]
		// Single line so reported line numbers still match the source file
		return `type ` + metadataTypeName + ` { _: String @jxapi(` + args + `) }`
	})
}
