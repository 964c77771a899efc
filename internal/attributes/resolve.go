package attributes

import (
	"regexp"
	"strings"
)

var (
	// A word rune is a letter, mark, decimal or letter number, or connector
	// punctuation. Underscore is a connector but is replaced all the same.
	nonWord     = regexp.MustCompile(`[^\p{L}\p{M}\p{Nd}\p{Nl}\p{Pc}]|_`)
	hyphenRuns  = regexp.MustCompile(`-{2,}`)
	edgeSlashes = regexp.MustCompile(`^/+|/+$`)
)

// Normalize turns an attribute into a path segment: underscores and non-word
// runes become "-", hyphen runs collapse and the result is lower case.
func Normalize(attribute string) string {
	s := nonWord.ReplaceAllString(attribute, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}

// ResolveDir returns the output directory for one attribute, relative to the
// site root. An empty baseDir selects the kind's default directory.
func ResolveDir(baseDir string, kind Kind, attribute string) string {
	if baseDir == "" {
		baseDir = kind.DefaultDir()
	}
	return edgeSlashes.ReplaceAllString(baseDir, "") + "/" + Normalize(attribute)
}
