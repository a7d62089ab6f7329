package chunker

import (
	"regexp"
	"strings"
)

// sentenceEnd matches a run of terminators, any closing quotes or brackets
// after it, and the whitespace that follows.
var sentenceEnd = regexp.MustCompile(`[.!?…]+["'»”)\]]*\s+`)

// Sentences splits text after sentence terminators. Opening marks such as
// "¿" and "¡" stay with the sentence they open.
func Sentences(text string) []string {
	var out []string
	start := 0
	for _, m := range sentenceEnd.FindAllStringIndex(text, -1) {
		if s := strings.TrimSpace(text[start:m[1]]); s != "" {
			out = append(out, s)
		}
		start = m[1]
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}
