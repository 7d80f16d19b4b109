// Package naming converts descriptor identifiers into target language names.
// All functions are pure so generated names are stable across runs.
package naming

import (
	"strings"
	"unicode"
)

// words splits an identifier on underscores, dashes and lower-to-upper case
// boundaries: "getTicker_v2" -> ["get", "Ticker", "v2"]
func words(s string) []string {
	var out []string
	var cur []rune
	runes := []rune(s)
	flush := func() {
		if len(cur) > 0 {
			out = append(out, string(cur))
			cur = cur[:0]
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == ' ' || r == '.':
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])):
			flush()
			cur = append(cur, r)
		case unicode.IsUpper(r) && i > 0 && i+1 < len(runes) && unicode.IsUpper(runes[i-1]) && unicode.IsLower(runes[i+1]):
			// "HTTPServer" -> "HTTP", "Server"
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return out
}

// Pascal converts an identifier to PascalCase, keeping existing inner capitals
func Pascal(s string) string {
	var sb strings.Builder
	for _, w := range words(s) {
		r := []rune(w)
		sb.WriteRune(unicode.ToUpper(r[0]))
		sb.WriteString(string(r[1:]))
	}
	return sb.String()
}

// Camel converts an identifier to camelCase
func Camel(s string) string {
	p := Pascal(s)
	if p == "" {
		return ""
	}
	r := []rune(p)
	upper := 0
	for upper < len(r) && unicode.IsUpper(r[upper]) {
		upper++
	}
	if upper == len(r) {
		return strings.ToLower(p)
	}
	// A leading acronym is lowered as a unit: "URLPath" -> "urlPath"
	n := 1
	if upper > 1 {
		n = upper - 1
	}
	for i := 0; i < n; i++ {
		r[i] = unicode.ToLower(r[i])
	}
	return string(r)
}

// Snake converts an identifier to snake_case
func Snake(s string) string {
	ws := words(s)
	for i, w := range ws {
		ws[i] = strings.ToLower(w)
	}
	return strings.Join(ws, "_")
}

// Constant converts an identifier to UPPER_SNAKE_CASE
func Constant(s string) string {
	return strings.ToUpper(Snake(s))
}

// PackagePath converts a dotted package name into a slash separated path
func PackagePath(pkg string) string {
	return strings.ReplaceAll(pkg, ".", "/")
}

// LastSegment returns the last dotted segment of a package name
func LastSegment(pkg string) string {
	if i := strings.LastIndex(pkg, "."); i >= 0 {
		return pkg[i+1:]
	}
	return pkg
}
