package engine

import "github.com/CompassSecurity/harleek/pkg/scanner/types"

// Window radii. Method inference looks further around a match than scoring does.
const (
	methodRadius      = 100
	scoreRadiusBefore = 50
	scoreRadiusAfter  = 100
	secretRadius      = 50
)

// Window returns the text from before bytes ahead of index up to after bytes
// past index+length, clamped to the bounds of content.
func Window(content string, index int, length int, before int, after int) types.Context {
	start := index - before
	if start < 0 {
		start = 0
	}
	if start > len(content) {
		start = len(content)
	}

	end := index + length + after
	if end > len(content) {
		end = len(content)
	}
	if end < start {
		end = start
	}

	return types.Context{Text: content[start:end], StartOffset: start}
}
