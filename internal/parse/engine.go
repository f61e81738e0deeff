package parse

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/claude/wodscribe/internal/models"
)

// Span is a tagged substring of a line. Start and End are byte offsets
// within Line.Text.
type Span struct {
	Kind      Kind   `json:"kind"`
	Text      string `json:"text"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Rule      string `json:"rule,omitempty"`      // "" for EXERCISE spans
	Inherited bool   `json:"inherited,omitempty"` // copied from a paired side ("Bench Press + Squat X10")
}

// Group is the tagged result for one side of an exercise line.
type Group struct {
	Text       string            `json:"text"`
	Start      int               `json:"start"` // byte range of the side within Line.Text
	End        int               `json:"end"`
	Spans      []Span            `json:"spans"`
	Name       string            `json:"name"`
	Canonical  string            `json:"canonical,omitempty"`
	Confidence models.Confidence `json:"confidence"`
	Notes      string            `json:"notes,omitempty"`

	rawName bool // name fell back to the side's whole text
}

// Span returns the first span of kind k.
func (g Group) Span(k Kind) (Span, bool) {
	for _, s := range g.Spans {
		if s.Kind == k {
			return s, true
		}
	}
	return Span{}, false
}

func (g Group) hasQuantities() bool {
	for _, s := range g.Spans {
		if s.Kind != KindExercise {
			return true
		}
	}
	return false
}

// sharedKinds are copied to paired sides that carry no quantities of their
// own. Loads are per-exercise and never shared.
var sharedKinds = []Kind{KindSets, KindReps, KindRest, KindDuration}

// fillerWords are dropped from notes.
var fillerWords = map[string]bool{
	"x": true, "of": true, "at": true,
	"rep": true, "reps": true, "set": true, "sets": true,
}

// Engine applies the lexicon's rule table to exercise lines. It holds no
// per-call state and is safe for concurrent use.
type Engine struct {
	lex *Lexicon
}

func NewEngine(lex *Lexicon) *Engine {
	return &Engine{lex: lex}
}

// Tag splits an exercise line on the lexicon separators and tags each side.
// It always returns at least one group for a line with content.
func (e *Engine) Tag(line Line) []Group {
	content := line.Content
	var groups []Group
	for _, sd := range e.split(content) {
		g := e.tagSide(content[sd[0]:sd[1]], line.Offset+sd[0])
		if g.rawName && len(groups) > 0 {
			prev := groups[len(groups)-1]
			start := prev.Start - line.Offset
			g = e.tagSide(content[start:sd[1]], prev.Start)
			groups[len(groups)-1] = g
			continue
		}
		groups = append(groups, g)
	}
	if len(groups) == 0 && strings.TrimSpace(content) != "" {
		groups = append(groups, e.tagSide(content, line.Offset))
	}

	for i := range groups {
		if groups[i].hasQuantities() {
			continue
		}
		for j := i + 1; j < len(groups); j++ {
			if groups[j].hasQuantities() {
				groups[i].inherit(groups[j])
				break
			}
		}
	}
	return groups
}

func (g *Group) inherit(from Group) {
	for _, k := range sharedKinds {
		if s, ok := from.Span(k); ok {
			s.Inherited = true
			g.Spans = append(g.Spans, s)
		}
	}
}

// split returns the byte ranges of the sides of s. A separator between two
// digits ("4/10", "62,5") does not split; neither does "/" between digits
// with surrounding spaces ("4 / 10").
func (e *Engine) split(s string) [][2]int {
	var sides [][2]int
	start := 0
	for i, r := range s {
		if !e.lex.IsSeparator(r) || e.numericSeparator(s, i, r) {
			continue
		}
		if hasAlnum(s[start:i]) {
			sides = append(sides, [2]int{start, i})
		}
		start = i + utf8.RuneLen(r)
	}
	if hasAlnum(s[start:]) {
		sides = append(sides, [2]int{start, len(s)})
	}
	return sides
}

func (e *Engine) numericSeparator(s string, i int, sep rune) bool {
	before, after := s[:i], s[i+utf8.RuneLen(sep):]
	if sep == '/' {
		before = strings.TrimRight(before, " ")
		after = strings.TrimLeft(after, " ")
	}
	p, _ := utf8.DecodeLastRuneInString(before)
	n, _ := utf8.DecodeRuneInString(after)
	return unicode.IsDigit(p) && unicode.IsDigit(n)
}

// tagSide runs the rule table over one side. base is the offset of text
// within Line.Text.
func (e *Engine) tagSide(text string, base int) Group {
	var (
		spans    []Span
		consumed [][2]int
		claimed  = make(map[Kind]bool, len(groupKinds))
	)

	for _, rule := range e.lex.rules {
		if allClaimed(rule, claimed) {
			continue
		}
		for _, m := range rule.Pattern.FindAllStringSubmatchIndex(text, -1) {
			if overlaps(consumed, m[0], m[1]) {
				continue
			}
			var add []Span
			for _, c := range rule.captures {
				s, end := m[2*c.index], m[2*c.index+1]
				if s < 0 || claimed[c.kind] {
					continue
				}
				add = append(add, Span{
					Kind:  c.kind,
					Text:  text[s:end],
					Start: base + s,
					End:   base + end,
					Rule:  rule.Name,
				})
			}
			if len(add) == 0 {
				continue
			}
			for _, s := range add {
				claimed[s.Kind] = true
			}
			spans = append(spans, add...)
			consumed = append(consumed, [2]int{m[0], m[1]})
			break
		}
	}
	sort.Slice(consumed, func(i, j int) bool { return consumed[i][0] < consumed[j][0] })

	g := Group{Start: base, End: base + len(text)}
	g.Text = strings.TrimSpace(text)

	// Unmatched stretches between consumed ranges; the first one is the
	// leading name candidate when it starts the side.
	var gaps [][2]int
	pos := 0
	for _, c := range consumed {
		if c[0] > pos {
			gaps = append(gaps, [2]int{pos, c[0]})
		}
		pos = max(pos, c[1])
	}
	if pos < len(text) {
		gaps = append(gaps, [2]int{pos, len(text)})
	}

	var nameStart, nameEnd int
	lead := -1
	if len(gaps) > 0 && gaps[0][0] == 0 {
		s, end := trimName(text, gaps[0][0], gaps[0][1])
		if hasLetter(text[s:end]) {
			lead, nameStart, nameEnd = 0, s, end
		}
	}

	switch {
	case lead == 0:
		g.Name = text[nameStart:nameEnd]
		g.Confidence = models.ConfidenceMedium
		if c, _, ok := e.lex.Canonicalize(g.Name); ok {
			g.Canonical = c
			g.Confidence = models.ConfidenceHigh
		} else if len(spans) == 0 {
			g.Confidence = models.ConfidenceLow
		}
		g.Notes = notes(text, gaps[1:])
	default:
		// No leading name: use whatever text the rules left over.
		var words []string
		first, last := -1, 0
		for _, gp := range gaps {
			s, end := trimName(text, gp[0], gp[1])
			if s >= end || !hasLetter(text[s:end]) {
				continue
			}
			if first < 0 {
				first = s
			}
			last = end
			words = append(words, text[s:end])
		}
		if len(words) > 0 {
			g.Name = strings.Join(words, " ")
			nameStart, nameEnd = first, last
			g.Confidence = models.ConfidenceLow
			if c, _, ok := e.lex.Canonicalize(g.Name); ok {
				g.Canonical = c
				g.Confidence = models.ConfidenceHigh
			}
		} else {
			g.rawName = true
			g.Name = g.Text
			nameStart = strings.Index(text, g.Text)
			nameEnd = nameStart + len(g.Text)
			g.Confidence = models.ConfidenceLow
		}
	}

	g.Spans = append(g.Spans, Span{
		Kind:  KindExercise,
		Text:  g.Name,
		Start: base + nameStart,
		End:   base + nameEnd,
	})
	g.Spans = append(g.Spans, spans...)
	sort.SliceStable(g.Spans, func(i, j int) bool { return g.Spans[i].Start < g.Spans[j].Start })
	return g
}

func allClaimed(r Rule, claimed map[Kind]bool) bool {
	for _, c := range r.captures {
		if !claimed[c.kind] {
			return false
		}
	}
	return true
}

func overlaps(ranges [][2]int, start, end int) bool {
	for _, r := range ranges {
		if start < r[1] && r[0] < end {
			return true
		}
	}
	return false
}

// trimName narrows [start,end) of text past surrounding spaces and
// punctuation such as "-", ":", "(", "@".
func trimName(text string, start, end int) (int, int) {
	isEdge := func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '\'') || unicode.IsSymbol(r)
	}
	for start < end {
		r, n := utf8.DecodeRuneInString(text[start:end])
		if !isEdge(r) {
			break
		}
		start += n
	}
	for end > start {
		r, n := utf8.DecodeLastRuneInString(text[start:end])
		if !isEdge(r) {
			break
		}
		end -= n
	}
	return start, end
}

func notes(text string, gaps [][2]int) string {
	var words []string
	for _, gp := range gaps {
		s, end := trimName(text, gp[0], gp[1])
		for _, w := range strings.Fields(text[s:end]) {
			w = strings.TrimFunc(w, func(r rune) bool { return unicode.IsPunct(r) })
			if w == "" || fillerWords[strings.ToLower(w)] {
				continue
			}
			words = append(words, w)
		}
	}
	out := strings.Join(words, " ")
	if !hasLetter(out) {
		return ""
	}
	return out
}

func hasLetter(s string) bool {
	return strings.IndexFunc(s, unicode.IsLetter) >= 0
}
