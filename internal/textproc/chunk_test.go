package textproc

import (
	"strings"
	"testing"
)

func TestSplitEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t\n", " \r\n "} {
		if got := Split(input, DefaultMaxChunkLen); len(got) != 0 {
			t.Errorf("Split(%q) = %v, want no chunks", input, got)
		}
	}
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	text := "A short sentence that fits."
	chunks := Split(text, DefaultMaxChunkLen)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("chunk text = %q, want %q", chunks[0].Text, text)
	}
	if chunks[0].Index != 0 {
		t.Errorf("chunk index = %d, want 0", chunks[0].Index)
	}
}

func TestSplitExactLimitSingleChunk(t *testing.T) {
	text := strings.Repeat("x", 100)
	chunks := Split(text, 100)
	if len(chunks) != 1 {
		t.Fatalf("text of exactly maxLen should be one chunk, got %d", len(chunks))
	}
}

func TestSplitUnpunctuatedOverflow(t *testing.T) {
	// maxLen+1 characters with no punctuation: force-split into a full
	// slice and a remainder.
	text := strings.Repeat("x", 101)
	chunks := Split(text, 100)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if len(chunks[0].Text) != 100 {
		t.Errorf("first chunk length = %d, want 100", len(chunks[0].Text))
	}
	if len(chunks[1].Text) != 1 {
		t.Errorf("second chunk length = %d, want 1", len(chunks[1].Text))
	}
}

func TestSplitSentenceBoundaries(t *testing.T) {
	text := "A. B. C."

	chunks := Split(text, 1000)
	if len(chunks) != 1 {
		t.Fatalf("large maxLen: expected 1 chunk, got %d", len(chunks))
	}

	chunks = Split(text, 3)
	want := []string{"A.", "B.", "C."}
	if len(chunks) != len(want) {
		t.Fatalf("maxLen 3: expected %d chunks, got %d: %v", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		if chunks[i].Text != w {
			t.Errorf("chunk[%d] = %q, want %q", i, chunks[i].Text, w)
		}
		if chunks[i].Index != i {
			t.Errorf("chunk[%d].Index = %d, want %d", i, chunks[i].Index, i)
		}
	}
}

func TestSplitPacksSentencesGreedily(t *testing.T) {
	text := "One two. Three four. Five six."
	chunks := Split(text, 20)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0].Text != "One two. Three four." {
		t.Errorf("chunk[0] = %q", chunks[0].Text)
	}
	if chunks[1].Text != "Five six." {
		t.Errorf("chunk[1] = %q", chunks[1].Text)
	}
}

func TestSplitArabicQuestionMark(t *testing.T) {
	text := "چطور هستید؟ من خوبم."
	chunks := Split(text, 12)
	if len(chunks) != 2 {
		t.Fatalf("expected Arabic question mark to split, got %d chunks: %v", len(chunks), chunks)
	}
	if chunks[0].Text != "چطور هستید؟" {
		t.Errorf("chunk[0] = %q", chunks[0].Text)
	}
}

func TestSplitTrailingFragmentWithoutTerminator(t *testing.T) {
	text := "First sentence. trailing fragment without punctuation"
	chunks := Split(text, 20)
	if len(chunks) < 2 {
		t.Fatalf("expected fragment in its own chunk, got %v", chunks)
	}
	last := chunks[len(chunks)-1].Text
	if !strings.Contains(last, "punctuation") {
		t.Errorf("trailing fragment lost, last chunk = %q", last)
	}
}

func TestSplitNoChunkExceedsLimit(t *testing.T) {
	inputs := []string{
		strings.Repeat("word. ", 500),
		strings.Repeat("nopunctuation", 100),
		"Mixed! Content? With. many؟ terminators!!! and a long tail " + strings.Repeat("y", 300),
	}
	for _, input := range inputs {
		for _, maxLen := range []int{10, 50, 137} {
			for _, c := range Split(input, maxLen) {
				if n := len([]rune(c.Text)); n > maxLen {
					t.Errorf("maxLen %d: chunk of %d runes: %q", maxLen, n, c.Text)
				}
				if strings.TrimSpace(c.Text) == "" {
					t.Errorf("maxLen %d: whitespace-only chunk emitted", maxLen)
				}
			}
		}
	}
}

func TestSplitPreservesContent(t *testing.T) {
	inputs := []string{
		"A. B. C.",
		"One two. Three four. Five six.",
		strings.Repeat("alpha beta. ", 40),
		strings.Repeat("z", 95),
	}
	strip := func(s string) string {
		return strings.Map(func(r rune) rune {
			if r == ' ' || r == '\n' || r == '\t' || r == '\r' {
				return -1
			}
			return r
		}, s)
	}
	for _, input := range inputs {
		var joined strings.Builder
		for _, c := range Split(input, 30) {
			joined.WriteString(c.Text)
		}
		if strip(joined.String()) != strip(input) {
			t.Errorf("content not preserved for %q", input)
		}
	}
}

func TestSplitChunkOrderMatchesTextOrder(t *testing.T) {
	text := "First. Second. Third. Fourth. Fifth."
	chunks := Split(text, 8)
	pos := -1
	for _, c := range chunks {
		next := strings.Index(text, c.Text)
		if next <= pos {
			t.Fatalf("chunk %q out of order", c.Text)
		}
		pos = next
	}
}
