package grading

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/abhisek/repaso/internal/textnorm"
)

// minKeywordLen is the shortest token, in runes, kept as a keyword.
const minKeywordLen = 3

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		el la los las un una de del a al en por para con y o pero si no que
		como cuando donde cual quien su sus mi mis tu tus se le lo me te nos os
		qué cómo cuándo dónde cuál quién este esta esto ese esa eso son está
		hay muy sin sobre entre más también
	`) {
		stopwords[w] = struct{}{}
	}
}

// Keywords extracts content words from text: it normalizes and repairs OCR
// splits, lowercases, tokenizes on non-word characters and drops tokens
// shorter than three runes and Spanish stopwords. Order follows the text
// and duplicates are kept, so the result doubles as a BM25 document.
func Keywords(text string) []string {
	text = strings.ToLower(textnorm.Normalize(text))
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	out := tokens[:0]
	for _, t := range tokens {
		if utf8.RuneCountInString(t) < minKeywordLen {
			continue
		}
		if _, stop := stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Set is a set of keywords.
type Set map[string]struct{}

// Expand adds a cheap stemming layer to the output of Keywords: every
// word plus its 6-rune prefix, or 5-rune prefix for five-letter words.
func Expand(keywords []string) Set {
	out := make(Set, len(keywords)*2)
	for _, w := range keywords {
		if w == "" {
			continue
		}
		out[w] = struct{}{}
		r := []rune(w)
		switch {
		case len(r) >= 6:
			out[string(r[:6])] = struct{}{}
		case len(r) >= 5:
			out[string(r[:5])] = struct{}{}
		}
	}
	return out
}

// Intersect returns the sorted common members of s and other.
func (s Set) Intersect(other Set) []string {
	var out []string
	for k := range s {
		if _, ok := other[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// Sorted returns the members in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Coverage is the fraction of answer keywords also found in the chunk, or
// 0 when the answer has none.
func Coverage(answer, chunk Set) float64 {
	if len(answer) == 0 {
		return 0
	}
	return float64(len(answer.Intersect(chunk))) / float64(len(answer))
}
