package questiongen

// seenSet tracks question texts ignoring case, accents and surrounding
// spaces.
type seenSet map[string]struct{}

func newSeenSet(texts []string) seenSet {
	s := make(seenSet, len(texts))
	for _, t := range texts {
		s.add(t)
	}
	return s
}

func dedupKey(text string) string { return fold(text) }

func (s seenSet) has(text string) bool {
	_, ok := s[dedupKey(text)]
	return ok
}

func (s seenSet) add(text string) { s[dedupKey(text)] = struct{}{} }
