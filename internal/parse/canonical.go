package parse

import (
	"strings"
	"unicode"
)

// fuzzyThreshold is the minimum similarity for an edit-distance match.
const fuzzyThreshold = 0.90

// Names longer than this (in bytes) skip the edit-distance pass.
const maxFuzzyLen = 48

// Canonicalize maps a written exercise name onto the lexicon catalogue.
// Lookup order: canonical name, alias, abbreviation expansion, singular form,
// then Levenshtein similarity. ok is false when nothing reaches the threshold.
func (l *Lexicon) Canonicalize(name string) (canonical string, score float64, ok bool) {
	key := normalizeName(name)
	if key == "" {
		return "", 0, false
	}
	if c, ok := l.exact(key); ok {
		return c, 1.0, true
	}

	expanded := l.expandAbbreviations(key)
	if expanded != key {
		if c, ok := l.exact(expanded); ok {
			return c, 0.95, true
		}
	}

	if singular := strings.TrimSuffix(expanded, "s"); singular != expanded && singular != "" {
		if c, ok := l.exact(singular); ok {
			return c, 0.95, true
		}
	}

	if len(expanded) > maxFuzzyLen {
		return "", 0, false
	}
	best, bestScore := "", 0.0
	for _, entry := range l.catalogue {
		for _, form := range entry.forms {
			if s := similarity(expanded, form); s > bestScore {
				best, bestScore = entry.canonical, s
			}
		}
	}
	if best != "" && bestScore >= fuzzyThreshold {
		return best, bestScore, true
	}
	return "", 0, false
}

func (l *Lexicon) exact(key string) (string, bool) {
	if c, ok := l.canonical[key]; ok {
		return c, true
	}
	c, ok := l.aliases[key]
	return c, ok
}

func (l *Lexicon) expandAbbreviations(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if full, ok := l.abbreviations[w]; ok {
			words[i] = full
		}
	}
	return strings.Join(words, " ")
}

// normalizeName lowercases s, drops punctuation, and collapses whitespace.
// Hyphens become spaces so "Pull-Up" and "pull up" compare equal.
func normalizeName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein computes edit distance with two rolling rows.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func isLetter(r rune) bool { return unicode.IsLetter(r) }
