package textnorm

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// maxPasses bounds the fixpoint loop in Normalize. Every pass either
// shortens the text or leaves it unchanged, so real input settles in two
// or three passes.
const maxPasses = 8

var (
	hyphenBreak     = regexp.MustCompile(`(\p{L})-\s+(\p{Ll})`)
	blankLines      = regexp.MustCompile(`\n[^\S\n]*\n\s*`)
	horizontalSpace = regexp.MustCompile(`[^\S\n]+`)
	spaceBeforeMark = regexp.MustCompile(`[^\S\n]+([.,;:!?»)])`)
	spaceAfterOpen  = regexp.MustCompile(`([¿¡«(])[^\S\n]+`)
	missingSpace    = regexp.MustCompile(`([.,;:!?])(\p{L})`)
)

// Normalize cleans text extracted from study material. It strips control
// and private-use code points, applies NFC, joins hyphenated line breaks,
// collapses whitespace (keeping "\n\n" as the paragraph boundary), fixes
// punctuation spacing and repairs OCR-fragmented words.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	out := text
	for range maxPasses {
		next := normalizeOnce(out)
		if next == out {
			return next
		}
		out = next
	}
	return out
}

func normalizeOnce(text string) string {
	text = stripInvisible(text)
	text = norm.NFC.String(text)
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	text = collapseWhitespace(text)
	text = spaceBeforeMark.ReplaceAllString(text, "$1")
	text = spaceAfterOpen.ReplaceAllString(text, "$1")
	text = missingSpace.ReplaceAllString(text, "$1 $2")
	text = RepairOCR(text)
	return strings.TrimSpace(text)
}

// stripInvisible drops code points that never carry meaning in study text.
// Newlines survive; any other whitespace becomes a plain space.
func stripInvisible(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case r == '\n':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		case r == unicode.ReplacementChar:
		case unicode.In(r, unicode.Cc, unicode.Cf, unicode.Co, unicode.Cs):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// collapseWhitespace turns blank-line runs into "\n\n", single newlines
// into spaces and horizontal whitespace runs into one space.
func collapseWhitespace(text string) string {
	paras := blankLines.Split(text, -1)
	kept := paras[:0]
	for _, p := range paras {
		p = strings.ReplaceAll(p, "\n", " ")
		p = horizontalSpace.ReplaceAllString(p, " ")
		p = strings.TrimSpace(p)
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n\n")
}

// Paragraphs splits normalized text on the "\n\n" boundary.
func Paragraphs(text string) []string {
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\n\n")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
