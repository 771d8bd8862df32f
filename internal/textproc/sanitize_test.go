package textproc

import (
	"testing"
	"unicode"
)

func TestSanitizeRemovesControlAndFormat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "Hello, world!",
			want:  "Hello, world!",
		},
		{
			name:  "zero width space stripped",
			input: "foo​bar",
			want:  "foobar",
		},
		{
			name:  "zero width joiner and non-joiner stripped",
			input: "a‍‌b",
			want:  "ab",
		},
		{
			name:  "bell and null stripped",
			input: "a\x00b\x07c",
			want:  "abc",
		},
		{
			name:  "tab newline and carriage return preserved",
			input: "line1\nline2\r\n\tindented",
			want:  "line1\nline2\r\n\tindented",
		},
		{
			name:  "soft hyphen stripped",
			input: "co­operate",
			want:  "cooperate",
		},
		{
			name:  "byte order mark stripped",
			input: "\uFEFFtext",
			want:  "text",
		},
		{
			name:  "arabic text with format marks",
			input: "‏سلام‎",
			want:  "سلام",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeOutputNeverContainsInvisibles(t *testing.T) {
	inputs := []string{
		"mixed​ text with⁠ junk‮",
		"normal text",
		"\x1b[31mansi colored\x1b[0m",
		"tabs\tand\nnewlines\rstay",
	}

	for _, input := range inputs {
		out := Sanitize(input)
		for _, r := range out {
			if r == '\t' || r == '\n' || r == '\r' {
				continue
			}
			if unicode.Is(unicode.Cc, r) || unicode.Is(unicode.Cf, r) {
				t.Errorf("Sanitize(%q) left invisible rune %U in output", input, r)
			}
		}
	}
}

func TestSanitizePreservesCharacterOrder(t *testing.T) {
	input := "a​b‌c‍d"
	if got := Sanitize(input); got != "abcd" {
		t.Errorf("expected order preserved, got %q", got)
	}
}
