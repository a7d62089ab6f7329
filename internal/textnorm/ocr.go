package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// suffixFragments are word endings that OCR often splits off the stem,
// as in "habi tación".
var suffixFragments = []string{
	"ciones", "siones", "miento", "mente", "dades", "istas",
	"ción", "sión", "ismo", "ista", "tura", "bles",
	"dad", "tad", "ble",
}

// commonWords guards the repair rules: short tokens that are real Spanish
// words are never treated as fragments.
var commonWords = toSet(`
a al ante bajo con contra de del desde durante e el en entre hacia hasta
la las le les lo los me mi mis ni no nos o os para pero por que qué se sé
si sí sin so sobre su sus te ti tu tú u un una uno unos unas y ya yo él
ella ello es son era eran fue fui ser soy eres ha han has he hay hoy muy
más mas tan tal cual cuál como cómo cada todo toda otro otra ese esa eso
este esta esto aquí allí así aún aun bien mal va van vas ve ven ver vi da
dan das di dio doy voy ir oír dos tres seis diez mil cien uno mes día dia
año red pan gas sal sol luz mar voz paz ley rey fin vez uso eje ojo vía
pie mío mía tus sea fe oh ah eh ok kg km cm mm ml gran alta alto baja bajo
real pura puro cuya cuyo nada algo poco poca solo sólo tipo caso modo vida
casa agua tema área zona mayo idea bajo cero dice nuevo nueva mejor peor
`)

func toSet(words string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		out[w] = struct{}{}
	}
	return out
}

func isCommon(word string) bool {
	_, ok := commonWords[strings.ToLower(word)]
	return ok
}

// token is a space-separated piece of text split into an optional opening
// mark, a core and optional trailing punctuation.
type token struct {
	lead, core, trail string
	letters           bool
	n                 int
}

func parseToken(s string) token {
	t := token{}
	start := 0
	for start < len(s) {
		r, size := utf8.DecodeRuneInString(s[start:])
		if !strings.ContainsRune("¿¡«(\"'", r) {
			break
		}
		start += size
	}
	end := len(s)
	for end > start {
		r, size := utf8.DecodeLastRuneInString(s[start:end])
		if !strings.ContainsRune(".,;:!?»)\"'…", r) {
			break
		}
		end -= size
	}
	t.lead, t.core, t.trail = s[:start], s[start:end], s[end:]
	t.n = utf8.RuneCountInString(t.core)
	t.letters = t.n > 0
	for _, r := range t.core {
		if !unicode.IsLetter(r) {
			t.letters = false
			break
		}
	}
	return t
}

func (t token) String() string { return t.lead + t.core + t.trail }

// acronym reports whether t is an all upper case word such as "ONU" or "XX".
func (t token) acronym() bool {
	if t.n < 2 {
		return false
	}
	for _, r := range t.core {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func (t token) lower() bool {
	for _, r := range t.core {
		if !unicode.IsLower(r) {
			return false
		}
	}
	return true
}

// canContinue reports whether t may be the non-first piece of a join.
func (t token) canContinue() bool { return t.letters && t.lead == "" }

// canStart reports whether t may be the non-last piece of a join.
func (t token) canStart() bool { return t.letters && t.trail == "" }

func join(ts []token) token {
	var b strings.Builder
	for _, t := range ts {
		b.WriteString(t.core)
	}
	return parseToken(ts[0].lead + b.String() + ts[len(ts)-1].trail)
}

// RepairOCR re-joins words that OCR split with spurious spaces, such as
// "fo to sín te sis" or "H enriette". It works within a line and never
// joins across "\n". Repairs repeat until nothing changes.
func RepairOCR(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		for {
			fixed, n := repairLine(line)
			if n == 0 {
				break
			}
			line = fixed
		}
		lines[i] = line
	}
	return strings.Join(lines, "\n")
}

// repairLine applies one left-to-right pass of the repair rules and
// returns the line together with the number of joins made.
func repairLine(line string) (string, int) {
	fields := strings.Split(line, " ")
	if len(fields) < 2 {
		return line, 0
	}
	ts := make([]token, len(fields))
	for i, f := range fields {
		ts[i] = parseToken(f)
	}

	out := make([]token, 0, len(ts))
	joins := 0
	for i := 0; i < len(ts); {
		if n := shortRun(ts[i:]); n > 0 {
			out = append(out, join(ts[i:i+n]))
			joins += n - 1
			i += n
			continue
		}
		if i+1 < len(ts) && (suffixSplit(ts[i], ts[i+1]) || leadSplit(ts[i], ts[i+1])) {
			out = append(out, join(ts[i:i+2]))
			joins++
			i += 2
			continue
		}
		out = append(out, ts[i])
		i++
	}
	if joins == 0 {
		return line, 0
	}
	parts := make([]string, len(out))
	for i, t := range out {
		parts[i] = t.String()
	}
	return strings.Join(parts, " "), joins
}

// shortRun returns the length of a joinable run of short fragments at the
// head of ts, or 0. A run starts and ends on a token that is not a common
// word and has at least three letter tokens of at most three letters; at
// least two of them, and at least half, must not be common words.
func shortRun(ts []token) int {
	if len(ts) == 0 || isCommon(ts[0].core) {
		return 0
	}
	n := 0
	for i, t := range ts {
		if !t.letters || t.n > 3 || t.acronym() {
			break
		}
		if i > 0 && !t.canContinue() {
			break
		}
		n++
		if !t.canStart() {
			break
		}
	}
	for n > 0 && isCommon(ts[n-1].core) {
		n--
	}
	uncommon := 0
	for _, t := range ts[:n] {
		if !isCommon(t.core) {
			uncommon++
		}
	}
	if n < 3 || uncommon < 2 || uncommon*2 < n {
		return 0
	}
	return n
}

// suffixSplit matches a short stem followed by a detached suffix, as in
// "habi tación".
func suffixSplit(a, b token) bool {
	if !a.canStart() || a.n < 2 || a.n > 4 || a.acronym() || isCommon(a.core) {
		return false
	}
	if !b.canContinue() || b.n < 3 || b.n > 7 || !b.lower() {
		return false
	}
	for _, s := range suffixFragments {
		if strings.HasSuffix(b.core, s) {
			return true
		}
	}
	return false
}

// leadSplit matches one or two detached leading letters, as in
// "H enriette". A single letter must be upper case.
func leadSplit(a, b token) bool {
	if !a.canStart() || a.n < 1 || a.n > 2 || a.acronym() || isCommon(a.core) {
		return false
	}
	if a.n == 1 && !unicode.IsUpper([]rune(a.core)[0]) {
		return false
	}
	return b.canContinue() && b.n >= 4 && b.lower()
}

// OCRStats summarizes extraction artifacts found in a text.
type OCRStats struct {
	FragmentedWords    int  `json:"fragmented_words"`
	HyphenBreaks       int  `json:"hyphen_breaks"`
	MultipleSpaces     int  `json:"multiple_spaces"`
	PunctuationSpacing int  `json:"punctuation_spacing"`
	HasErrors          bool `json:"has_errors"`
}

// DetectOCRErrors reports which repairs Normalize would make on text. It
// is used for logging only.
func DetectOCRErrors(text string) OCRStats {
	var s OCRStats
	s.HyphenBreaks = len(hyphenBreak.FindAllStringIndex(text, -1))
	s.PunctuationSpacing = len(spaceBeforeMark.FindAllStringIndex(text, -1))
	for _, m := range horizontalSpace.FindAllString(text, -1) {
		if len(m) > 1 {
			s.MultipleSpaces++
		}
	}
	flat := collapseWhitespace(stripInvisible(text))
	for _, line := range strings.Split(flat, "\n") {
		_, n := repairLine(line)
		s.FragmentedWords += n
	}
	s.HasErrors = s.FragmentedWords > 0 || s.HyphenBreaks > 0 ||
		s.MultipleSpaces > 5 || s.PunctuationSpacing > 3
	return s
}
