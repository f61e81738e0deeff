package parse

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/claude/wodscribe/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexiconYAML []byte

// Kind is the entity label attached to a tagged span.
type Kind string

const (
	KindExercise Kind = "EXERCISE"
	KindSets     Kind = "SETS"
	KindReps     Kind = "REPS"
	KindRest     Kind = "REST"
	KindDuration Kind = "DURATION"
	KindLoad     Kind = "LOAD"
)

// groupKinds maps rule capture-group names to entity kinds.
var groupKinds = map[string]Kind{
	"sets":     KindSets,
	"reps":     KindReps,
	"rest":     KindRest,
	"duration": KindDuration,
	"load":     KindLoad,
}

// Rule is one entry of the tagging table. Each named group in Pattern emits a
// span of the mapped Kind.
type Rule struct {
	Name     string
	Priority int
	Pattern  *regexp.Regexp
	captures []capture
}

type capture struct {
	index int
	kind  Kind
}

// Kinds returns the entity kinds the rule can emit, in pattern order.
func (r Rule) Kinds() []Kind {
	out := make([]Kind, len(r.captures))
	for i, c := range r.captures {
		out[i] = c.kind
	}
	return out
}

type structureKeyword struct {
	phrase    string
	structure models.Structure
}

// Lexicon is the read-only vocabulary and rule table used by the parser.
// It is safe for concurrent use once loaded.
type Lexicon struct {
	fallbackTitle   string
	defaultLoadUnit models.LoadUnit
	separators      string
	keywords        []structureKeyword
	loadUnits       map[string]models.LoadUnit
	durationUnits   map[string]int
	rules           []Rule
	abbreviations   map[string]string
	canonical       map[string]string
	aliases         map[string]string
	catalogue       []catalogueEntry
}

type catalogueEntry struct {
	canonical string
	forms     []string // normalized canonical name and aliases
}

// lexiconFile is the YAML shape of a lexicon.
type lexiconFile struct {
	FallbackTitle   string              `yaml:"fallback_title"`
	DefaultLoadUnit string              `yaml:"default_load_unit"`
	Separators      []string            `yaml:"separators"`
	Structures      map[string][]string `yaml:"structures"`
	LoadUnits       map[string][]string `yaml:"load_units"`
	DurationUnits   map[string]int      `yaml:"duration_units"`
	Rules           []struct {
		Name     string `yaml:"name"`
		Priority int    `yaml:"priority"`
		Pattern  string `yaml:"pattern"`
	} `yaml:"rules"`
	Abbreviations map[string]string `yaml:"abbreviations"`
	Exercises     []struct {
		Name    string   `yaml:"name"`
		Aliases []string `yaml:"aliases"`
	} `yaml:"exercises"`
}

// DefaultLexicon returns the lexicon embedded in the binary.
func DefaultLexicon() (*Lexicon, error) {
	return LoadLexicon(bytes.NewReader(defaultLexiconYAML))
}

// LoadLexiconFile reads a lexicon from a YAML file.
func LoadLexiconFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening lexicon: %w", err)
	}
	defer f.Close()
	return LoadLexicon(f)
}

// LoadLexicon decodes and validates a YAML lexicon. Every rule must compile
// and capture at least one known entity kind.
func LoadLexicon(r io.Reader) (*Lexicon, error) {
	var lf lexiconFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&lf); err != nil {
		return nil, fmt.Errorf("decoding lexicon: %w", err)
	}

	lex := &Lexicon{
		fallbackTitle:   strings.TrimSpace(lf.FallbackTitle),
		defaultLoadUnit: models.LoadUnit(lf.DefaultLoadUnit),
		loadUnits:       make(map[string]models.LoadUnit),
		durationUnits:   make(map[string]int, len(lf.DurationUnits)),
		abbreviations:   make(map[string]string, len(lf.Abbreviations)),
		canonical:       make(map[string]string),
		aliases:         make(map[string]string),
	}
	if lex.fallbackTitle == "" {
		return nil, fmt.Errorf("lexicon: fallback_title is required")
	}
	if !lex.defaultLoadUnit.IsValid() {
		return nil, fmt.Errorf("lexicon: default_load_unit %q is not a load unit", lf.DefaultLoadUnit)
	}

	for _, s := range lf.Separators {
		if utf8.RuneCountInString(s) != 1 {
			return nil, fmt.Errorf("lexicon: separator %q must be a single character", s)
		}
		lex.separators += s
	}

	for name, phrases := range lf.Structures {
		st, ok := models.ParseStructure(name)
		if !ok {
			return nil, fmt.Errorf("lexicon: unknown structure %q", name)
		}
		for _, p := range phrases {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == "" {
				continue
			}
			lex.keywords = append(lex.keywords, structureKeyword{phrase: p, structure: st})
		}
	}
	// Longest phrase first so "rounds for time" wins over "for time".
	sort.SliceStable(lex.keywords, func(i, j int) bool {
		if len(lex.keywords[i].phrase) != len(lex.keywords[j].phrase) {
			return len(lex.keywords[i].phrase) > len(lex.keywords[j].phrase)
		}
		return lex.keywords[i].phrase < lex.keywords[j].phrase
	})

	for unit, spellings := range lf.LoadUnits {
		u := models.LoadUnit(unit)
		if !u.IsValid() {
			return nil, fmt.Errorf("lexicon: unknown load unit %q", unit)
		}
		for _, s := range spellings {
			lex.loadUnits[strings.ToLower(s)] = u
		}
	}

	for unit, seconds := range lf.DurationUnits {
		if seconds <= 0 {
			return nil, fmt.Errorf("lexicon: duration unit %q must be positive", unit)
		}
		lex.durationUnits[strings.ToLower(unit)] = seconds
	}

	for i, rf := range lf.Rules {
		rule, err := compileRule(rf.Name, rf.Priority, rf.Pattern)
		if err != nil {
			return nil, fmt.Errorf("lexicon: rule %d: %w", i, err)
		}
		lex.rules = append(lex.rules, rule)
	}
	if len(lex.rules) == 0 {
		return nil, fmt.Errorf("lexicon: no rules")
	}
	sort.SliceStable(lex.rules, func(i, j int) bool {
		return lex.rules[i].Priority > lex.rules[j].Priority
	})

	for k, v := range lf.Abbreviations {
		lex.abbreviations[normalizeName(k)] = normalizeName(v)
	}

	for _, ex := range lf.Exercises {
		name := strings.TrimSpace(ex.Name)
		if name == "" {
			return nil, fmt.Errorf("lexicon: exercise with empty name")
		}
		entry := catalogueEntry{canonical: name}
		key := normalizeName(name)
		lex.canonical[key] = name
		entry.forms = append(entry.forms, key)
		for _, a := range ex.Aliases {
			ak := normalizeName(a)
			if ak == "" {
				continue
			}
			lex.aliases[ak] = name
			entry.forms = append(entry.forms, ak)
		}
		lex.catalogue = append(lex.catalogue, entry)
	}

	return lex, nil
}

func compileRule(name string, priority int, pattern string) (Rule, error) {
	if name == "" {
		return Rule{}, fmt.Errorf("name is required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Rule{}, fmt.Errorf("%s: compiling pattern: %w", name, err)
	}
	rule := Rule{Name: name, Priority: priority, Pattern: re}
	for i, g := range re.SubexpNames() {
		if g == "" {
			continue
		}
		kind, ok := groupKinds[g]
		if !ok {
			return Rule{}, fmt.Errorf("%s: unknown capture group %q", name, g)
		}
		rule.captures = append(rule.captures, capture{index: i, kind: kind})
	}
	if len(rule.captures) == 0 {
		return Rule{}, fmt.Errorf("%s: pattern has no named capture groups", name)
	}
	return rule, nil
}

// Rules returns the tagging rules in evaluation order.
func (l *Lexicon) Rules() []Rule {
	out := make([]Rule, len(l.rules))
	copy(out, l.rules)
	return out
}

// FallbackTitle is the title used when the text has no usable line.
func (l *Lexicon) FallbackTitle() string { return l.fallbackTitle }

// IsSeparator reports whether r splits paired exercises on one line.
func (l *Lexicon) IsSeparator(r rune) bool {
	return strings.ContainsRune(l.separators, r)
}

// MatchStructure reports the structure named by the keyword that starts text,
// and the length in bytes of the matched keyword. The keyword must be followed
// by the end of text or a non-letter.
func (l *Lexicon) MatchStructure(text string) (models.Structure, int, bool) {
	lower := strings.ToLower(text)
	for _, kw := range l.keywords {
		if !strings.HasPrefix(lower, kw.phrase) {
			continue
		}
		rest := lower[len(kw.phrase):]
		if rest == "" {
			return kw.structure, len(kw.phrase), true
		}
		r, _ := utf8.DecodeRuneInString(rest)
		if !isLetter(r) {
			return kw.structure, len(kw.phrase), true
		}
	}
	return "", 0, false
}

// FindStructure looks for a structure keyword at any word boundary in text.
func (l *Lexicon) FindStructure(text string) (models.Structure, bool) {
	words := strings.Fields(text)
	for i := range words {
		if st, _, ok := l.MatchStructure(strings.Join(words[i:], " ")); ok {
			return st, true
		}
	}
	return "", false
}

// LoadUnit resolves a unit spelling; an empty spelling yields the default unit.
func (l *Lexicon) LoadUnit(spelling string) (models.LoadUnit, bool) {
	s := strings.ToLower(strings.TrimSpace(spelling))
	if s == "" {
		return l.defaultLoadUnit, true
	}
	u, ok := l.loadUnits[s]
	return u, ok
}

// DurationUnit returns the number of seconds in one unit.
func (l *Lexicon) DurationUnit(spelling string) (int, bool) {
	s, ok := l.durationUnits[strings.ToLower(strings.TrimSpace(spelling))]
	return s, ok
}

// StructureKeywords returns the header keywords for each structure, sorted.
// Every structure appears, with an empty list when no keyword selects it.
func (l *Lexicon) StructureKeywords() map[models.Structure][]string {
	out := make(map[models.Structure][]string)
	for _, st := range models.Structures() {
		out[st] = []string{}
	}
	for _, kw := range l.keywords {
		out[kw.structure] = append(out[kw.structure], kw.phrase)
	}
	for _, phrases := range out {
		sort.Strings(phrases)
	}
	return out
}
