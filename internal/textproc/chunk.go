package textproc

import (
	"regexp"
	"strings"
)

const (
	// RemoteTextLimit is the hard per-request text limit of the remote
	// synthesis API.
	RemoteTextLimit = 5000
	// DefaultMaxChunkLen is the chunk size used by default, kept with a
	// safety margin below RemoteTextLimit.
	DefaultMaxChunkLen = 4500
)

// Chunk is one request-safe slice of the input text. Chunks are ordered;
// Index is the position within the original text.
type Chunk struct {
	Index int
	Text  string
}

// sentenceRE matches one sentence-like unit: everything up to and
// including a run of sentence terminators plus trailing whitespace. The
// Arabic question mark counts as a terminator. A trailing fragment with
// no terminator is handled separately.
var sentenceRE = regexp.MustCompile(`[^.!?؟]*[.!?؟]+\s*`)

// Split breaks text into ordered chunks of at most maxLen runes each,
// preferring sentence boundaries. Chunks are never empty or
// whitespace-only, and concatenating them preserves all non-whitespace
// content in the original order. A maxLen of zero or less selects
// DefaultMaxChunkLen.
func Split(text string, maxLen int) []Chunk {
	if maxLen <= 0 {
		maxLen = DefaultMaxChunkLen
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if len([]rune(trimmed)) <= maxLen {
		return []Chunk{{Index: 0, Text: trimmed}}
	}

	units := splitSentences(trimmed)

	var chunks []Chunk
	var buf []rune

	flush := func() {
		s := strings.TrimSpace(string(buf))
		if s != "" {
			chunks = append(chunks, Chunk{Index: len(chunks), Text: s})
		}
		buf = buf[:0]
	}

	for _, unit := range units {
		unit = strings.TrimSpace(unit)
		if unit == "" {
			continue
		}
		ur := []rune(unit)

		// A single unit over the limit has no usable boundary; flush
		// what we have and force-split it into fixed-size slices.
		if len(ur) > maxLen {
			flush()
			for start := 0; start < len(ur); start += maxLen {
				end := start + maxLen
				if end > len(ur) {
					end = len(ur)
				}
				piece := strings.TrimSpace(string(ur[start:end]))
				if piece != "" {
					chunks = append(chunks, Chunk{Index: len(chunks), Text: piece})
				}
			}
			continue
		}

		switch {
		case len(buf) == 0:
			buf = append(buf, ur...)
		case len(buf)+1+len(ur) <= maxLen:
			buf = append(buf, ' ')
			buf = append(buf, ur...)
		default:
			flush()
			buf = append(buf, ur...)
		}
	}
	flush()

	return chunks
}

// splitSentences returns sentence-like units with their terminators and
// trailing whitespace attached, plus any unterminated trailing fragment.
func splitSentences(text string) []string {
	locs := sentenceRE.FindAllStringIndex(text, -1)
	if locs == nil {
		return []string{text}
	}

	units := make([]string, 0, len(locs)+1)
	last := 0
	for _, loc := range locs {
		units = append(units, text[loc[0]:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		units = append(units, text[last:])
	}
	return units
}
