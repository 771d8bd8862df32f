// Package textproc prepares raw text for speech synthesis: it strips
// characters the remote model chokes on and splits oversized text into
// request-safe chunks along sentence boundaries.
package textproc

import (
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// stripInvisible removes Unicode control (Cc) and format (Cf) code points.
// Tab, newline and carriage return survive so paragraph and line structure
// is kept intact for the synthesis model.
var stripInvisible = runes.Remove(runes.Predicate(func(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r)
}))

// Sanitize returns text with invisible control and format characters
// removed. All other characters, including combining marks and
// bidirectional text, pass through unchanged and in order.
func Sanitize(text string) string {
	out, _, err := transform.String(stripInvisible, text)
	if err != nil {
		// runes.Remove never errors on well-formed input; fall back to
		// the original text rather than dropping it.
		return text
	}
	return out
}
