package questiongen

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhisek/repaso/internal/llm"
)

var userMessagePattern = regexp.MustCompile(`(?s)^Fragmento del libro \(Sección -?\d+\):\n\n(.*)\n\nGenera (\d+) preguntas`)

// offlineTemplates turn a key phrase into an analysis question.
var offlineTemplates = []string{
	"¿Cómo explicarías el papel de %s dentro del fragmento?",
	"¿Qué relación existe entre %s y las demás ideas del texto?",
	"¿Por qué es importante %s para comprender el tema?",
	"¿Qué consecuencias tendría modificar %s según lo descrito?",
}

// OfflineScript answers question generation requests without a model. It
// builds template questions around the longest words of each sentence of
// the fragment, so a mock provider can drive the whole pipeline.
func OfflineScript(req llm.Request) (json.RawMessage, error) {
	var msg string
	for _, m := range req.Messages {
		if m.Role == llm.RoleUser {
			msg = m.Content
		}
	}
	match := userMessagePattern.FindStringSubmatch(msg)
	if match == nil {
		return nil, fmt.Errorf("offline script: unrecognized request")
	}
	var n int
	fmt.Sscan(match[2], &n)

	out := questionsOutput{Questions: []string{}}
	for i, phrase := range keyPhrases(match[1], n) {
		out.Questions = append(out.Questions, fmt.Sprintf(offlineTemplates[i%len(offlineTemplates)], phrase))
	}
	return json.Marshal(out)
}

// keyPhrases picks up to n distinct phrases, one per sentence: the
// longest word of the sentence with its right neighbour when present.
func keyPhrases(text string, n int) []string {
	var (
		out  []string
		seen = map[string]bool{}
	)
	for _, sentence := range strings.FieldsFunc(text, func(r rune) bool { return r == '.' || r == '?' || r == '!' || r == '\n' }) {
		if len(out) >= n {
			break
		}
		words := strings.FieldsFunc(sentence, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
		best := -1
		for i, w := range words {
			if utf8.RuneCountInString(w) >= 5 && (best < 0 || utf8.RuneCountInString(w) > utf8.RuneCountInString(words[best])) {
				best = i
			}
		}
		if best < 0 {
			continue
		}
		phrase := strings.ToLower(words[best])
		if best+1 < len(words) && utf8.RuneCountInString(words[best+1]) > 3 {
			phrase += " " + strings.ToLower(words[best+1])
		}
		if seen[phrase] {
			continue
		}
		seen[phrase] = true
		out = append(out, "\""+phrase+"\"")
	}
	return out
}
