package engine

import (
	"strings"
	"unicode/utf8"

	"github.com/acarl005/stripansi"
)

// noisePathFragments mark bundler output, vendored code and static assets.
var noisePathFragments = []string{
	"/\\\"",
	"/\\",
	"/node_modules/",
	"/webpack/",
	"/dist/",
	"/build/",
	"/__",
	"/static/",
	"/public/",
	"/images/",
	"/fonts/",
	"/styles/",
	"/scripts/",
}

var quoteRemover = strings.NewReplacer(`"`, "", `'`, "", "`", "")

// NormalizeEndpoint removes quotes and the query string.
func NormalizeEndpoint(raw string) string {
	value := quoteRemover.Replace(raw)
	if i := strings.IndexByte(value, '?'); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

// ValidEndpoint reports whether a normalized value looks like an endpoint.
func ValidEndpoint(value string) bool {
	if len(value) < 3 {
		return false
	}

	// protocol relative
	if strings.HasPrefix(value, "//") {
		return false
	}

	for _, fragment := range noisePathFragments {
		if strings.Contains(value, fragment) {
			return false
		}
	}

	return strings.HasPrefix(value, "/") || strings.HasPrefix(value, "http")
}

// NormalizeSecret strips terminal escapes, line breaks and surrounding quotes.
func NormalizeSecret(raw string) string {
	value := stripansi.Strip(raw)
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.TrimSpace(value)
	return strings.TrimSpace(strings.Trim(value, "\"'`"))
}

// ValidSecret rejects short values and values made of a single repeated character.
func ValidSecret(value string) bool {
	if len(value) < 8 {
		return false
	}
	_, size := utf8.DecodeRuneInString(value)
	return strings.Count(value, value[:size])*size != len(value)
}
