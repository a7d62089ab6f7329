package chunker

import (
	"strings"

	"github.com/abhisek/repaso/internal/textnorm"
)

// Passage is one chunk of a document.
type Passage struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
	Words int    `json:"words"`
	// StartWord is the offset of the passage's first word in the source,
	// overlap included.
	StartWord int `json:"start_word"`
}

// Chunk splits normalized text into sentence-aligned passages. Sentences
// accumulate until the next one would push the passage past MaxWords; the
// following passage then repeats the last OverlapWords words. Paragraphs
// ("\n\n") are hard boundaries: overlap never crosses them, and a paragraph
// shorter than MinWords is folded into the next one.
//
// A whole text under MinWords comes back as a single passage. A sentence
// longer than MaxWords becomes its own passage and is never split.
func Chunk(text string, opts Options) []Passage {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	opts = opts.sanitized()

	total := len(strings.Fields(text))
	if total < opts.MinWords {
		return []Passage{{Text: text, Words: total}}
	}

	c := &accumulator{opts: opts}
	for _, group := range groupParagraphs(textnorm.Paragraphs(text), opts.MinWords) {
		c.paragraph(group)
	}
	return c.out
}

// groupParagraphs folds paragraphs shorter than minWords into the next one
// so headings stay with their body. A short final paragraph joins the
// previous group.
func groupParagraphs(paras []string, minWords int) []string {
	var groups []string
	pending := ""
	for _, p := range paras {
		if pending != "" {
			p = pending + " " + p
			pending = ""
		}
		if len(strings.Fields(p)) < minWords {
			pending = p
			continue
		}
		groups = append(groups, p)
	}
	if pending != "" {
		if len(groups) == 0 {
			return []string{pending}
		}
		groups[len(groups)-1] += " " + pending
	}
	return groups
}

type accumulator struct {
	opts Options
	out  []Passage

	offset int // words consumed from the source so far

	cur      []string
	curStart int
	curFresh bool // cur holds words beyond the overlap seed
}

func (c *accumulator) paragraph(text string) {
	c.cur, c.curFresh = nil, false
	for _, s := range Sentences(text) {
		words := strings.Fields(s)
		if len(words) == 0 {
			continue
		}
		if len(words) > c.opts.MaxWords {
			if c.curFresh {
				c.emit()
			}
			c.cur, c.curStart, c.curFresh = words, c.offset, true
			c.emit()
			c.seed(0)
			c.offset += len(words)
			continue
		}
		if len(c.cur)+len(words) > c.opts.MaxWords {
			if c.curFresh {
				c.emit()
			}
			c.seed(len(words))
		}
		if len(c.cur) == 0 {
			c.curStart = c.offset
		}
		c.cur = append(c.cur, words...)
		c.curFresh = true
		c.offset += len(words)
	}
	if c.curFresh {
		c.emit()
	}
}

func (c *accumulator) emit() {
	c.out = append(c.out, Passage{
		Index:     len(c.out),
		Text:      strings.Join(c.cur, " "),
		Words:     len(c.cur),
		StartWord: c.curStart,
	})
	c.curFresh = false
}

// seed replaces cur with its trailing overlap, trimmed so that the seed
// plus a sentence of next words stays within MaxWords.
func (c *accumulator) seed(next int) {
	k := min(c.opts.OverlapWords, len(c.cur))
	if k+next > c.opts.MaxWords {
		k = max(0, c.opts.MaxWords-next)
	}
	end := c.curStart + len(c.cur)
	seed := make([]string, k)
	copy(seed, c.cur[len(c.cur)-k:])
	c.cur = seed
	c.curStart = end - k
}

// EstimatePage maps a word offset to a 1-based page number assuming words
// are spread evenly across pages.
func EstimatePage(startWord, totalWords, pages int) int {
	if pages <= 1 || totalWords <= 0 {
		return 1
	}
	p := 1 + startWord*pages/totalWords
	return min(max(p, 1), pages)
}
