package parse

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/claude/wodscribe/internal/models"
	"golang.org/x/text/unicode/norm"
)

// DefaultMaxInput is the input cap in characters (runes).
const DefaultMaxInput = 10000

// ErrInputTooLarge is returned when the input exceeds the character cap.
var ErrInputTooLarge = errors.New("input too large")

// LineKind classifies a segmented line.
type LineKind int

const (
	LineBlank LineKind = iota
	LineHeader
	LineExercise
)

func (k LineKind) String() string {
	switch k {
	case LineBlank:
		return "blank"
	case LineHeader:
		return "header"
	case LineExercise:
		return "exercise"
	}
	return fmt.Sprintf("LineKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k LineKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText decodes a kind name written by MarshalText.
func (k *LineKind) UnmarshalText(b []byte) error {
	for _, c := range []LineKind{LineBlank, LineHeader, LineExercise} {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("unknown line kind %q", b)
}

// Line is one classified line of input. A keyword header with trailing
// content ("EMOM 10: 5 Burpees") yields a header and an exercise line that
// share the same Number.
type Line struct {
	Number int      `json:"number"` // 1-based source line
	Kind   LineKind `json:"kind"`
	Text   string   `json:"text"` // normalized, trimmed source line

	// Exercise lines.
	Content string `json:"content,omitempty"` // text handed to the rule engine
	Offset  int    `json:"offset,omitempty"`  // byte offset of Content within Text
	Group   string `json:"group,omitempty"`   // superset letter from a group code ("A" for "A1:")

	// Header lines and group-coded exercise lines.
	Label     string           `json:"label,omitempty"`
	Structure models.Structure `json:"structure,omitempty"` // "" when the header names no structure
}

var (
	groupCodeRe = regexp.MustCompile(`^([A-Za-z])(\d{1,2})(?:\s*[:.)]|\s+-)\s*`)
	labelRe     = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9 ]{0,23}?)\s*:\s*`)
	bulletRe    = regexp.MustCompile(`^(?:[-*•·▪]|\d{1,2}[.)])\s+`)
	leadCountRe = regexp.MustCompile(`(?i)^\d{1,3}\s*(?:min(?:ute)?s?|rounds?|rds)?\s+`)
)

// Segment normalizes text and splits it into classified lines. Input longer
// than maxRunes characters, before or after NFKC normalization, is rejected
// with ErrInputTooLarge; maxRunes <= 0 disables the cap.
func Segment(text string, maxRunes int, lex *Lexicon) ([]Line, error) {
	if err := checkSize(text, maxRunes); err != nil {
		return nil, err
	}
	text = norm.NFKC.String(text)
	if err := checkSize(text, maxRunes); err != nil {
		return nil, err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, text)

	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for i, r := range raw {
		lines = append(lines, classify(i+1, strings.TrimSpace(r), lex)...)
	}
	return lines, nil
}

func checkSize(text string, maxRunes int) error {
	if maxRunes <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(text); n > maxRunes {
		return fmt.Errorf("%w: %d characters, limit %d", ErrInputTooLarge, n, maxRunes)
	}
	return nil
}

func classify(number int, text string, lex *Lexicon) []Line {
	if text == "" {
		return []Line{{Number: number, Kind: LineBlank}}
	}

	core, off := stripDecoration(text)
	if !hasAlnum(core) {
		return []Line{{Number: number, Kind: LineBlank, Text: text}}
	}
	if m := bulletRe.FindStringIndex(core); m != nil {
		core, off = core[m[1]:], off+m[1]
	}

	if m := groupCodeRe.FindStringSubmatchIndex(core); m != nil {
		code := strings.ToUpper(core[m[2]:m[5]])
		rest := strings.TrimSpace(core[m[1]:])
		if rest == "" {
			return []Line{header(number, text, code, lex)}
		}
		return []Line{{
			Number:  number,
			Kind:    LineExercise,
			Text:    text,
			Content: rest,
			Offset:  off + m[1],
			Label:   code,
			Group:   strings.ToUpper(core[m[2]:m[3]]),
		}}
	}

	if st, ok := matchHeader(core, lex); ok {
		h := Line{Number: number, Kind: LineHeader, Text: text, Label: trimLabel(core), Structure: st}
		colon := strings.IndexByte(core, ':')
		if colon < 0 {
			return []Line{h}
		}
		h.Label = trimLabel(core[:colon])
		rest := core[colon+1:]
		trimmed := strings.TrimLeftFunc(rest, unicode.IsSpace)
		if trimmed == "" {
			return []Line{h}
		}
		ex := Line{
			Number:  number,
			Kind:    LineExercise,
			Text:    text,
			Content: strings.TrimRightFunc(trimmed, unicode.IsSpace),
			Offset:  off + colon + 1 + len(rest) - len(trimmed),
		}
		return []Line{h, ex}
	}

	if m := labelRe.FindStringSubmatchIndex(core); m != nil {
		rest := strings.TrimSpace(core[m[1]:])
		switch {
		case rest == "":
			return []Line{header(number, text, trimLabel(core[m[2]:m[3]]), lex)}
		case isShortToken(rest):
			return []Line{header(number, text, trimLabel(core), lex)}
		}
	}

	return []Line{{
		Number:  number,
		Kind:    LineExercise,
		Text:    text,
		Content: core,
		Offset:  off,
	}}
}

// matchHeader reports the structure named at the start of core. A count or
// duration may lead the keyword, as in "20 min AMRAP" or "5 Rounds For Time";
// "3 sets of 10" stays an exercise line.
func matchHeader(core string, lex *Lexicon) (models.Structure, bool) {
	if st, _, ok := lex.MatchStructure(core); ok {
		return st, true
	}
	m := leadCountRe.FindStringIndex(core)
	if m == nil {
		return "", false
	}
	st, _, ok := lex.MatchStructure(core[m[1]:])
	if !ok || st == models.StructureSets {
		return "", false
	}
	return st, true
}

func header(number int, text, label string, lex *Lexicon) Line {
	st, _ := lex.FindStructure(label)
	return Line{Number: number, Kind: LineHeader, Text: text, Label: label, Structure: st}
}

// stripDecoration removes markdown heading and emphasis markers. off is the
// byte offset of core within text.
func stripDecoration(text string) (core string, off int) {
	for off < len(text) && strings.IndexByte("#*_ \t", text[off]) >= 0 {
		off++
	}
	core = strings.TrimRight(text[off:], "*_ \t")
	return core, off
}

func hasAlnum(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) >= 0
}

func trimLabel(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ":"))
}

// isShortToken reports whether s is a single word without digits, as in the
// "Push" of "Day1: Push".
func isShortToken(s string) bool {
	if utf8.RuneCountInString(s) > 16 || strings.ContainsAny(s, " \t") {
		return false
	}
	for _, r := range s {
		if unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
