// Package parse turns free-text workout descriptions into validated
// models.Workout values.
//
// The pipeline is Segment (lines and headers), Engine.Tag (rule-table entity
// spans), Assembler (blocks and exercises), and models.Validate. A Parser
// holds only read-only state and may be shared across goroutines.
package parse

import (
	"fmt"

	"github.com/claude/wodscribe/internal/models"
)

// Parser runs the full pipeline with one lexicon.
type Parser struct {
	lex      *Lexicon
	engine   *Engine
	asm      *Assembler
	maxInput int
}

// Option configures a Parser.
type Option func(*Parser)

// WithMaxInput sets the input cap in characters. n <= 0 disables the cap.
func WithMaxInput(n int) Option {
	return func(p *Parser) { p.maxInput = n }
}

// WithTitleMax bounds titles derived from a non-header line.
func WithTitleMax(n int) Option {
	return func(p *Parser) { p.asm.TitleMax = n }
}

// WithGrouping sets the group-code policy.
func WithGrouping(g GroupingPolicy) Option {
	return func(p *Parser) { p.asm.Policy = g }
}

// New creates a Parser over lex.
func New(lex *Lexicon, opts ...Option) *Parser {
	engine := NewEngine(lex)
	p := &Parser{
		lex:      lex,
		engine:   engine,
		maxInput: DefaultMaxInput,
		asm: &Assembler{
			Lexicon:  lex,
			Engine:   engine,
			Policy:   GroupByPrefix,
			TitleMax: DefaultTitleMax,
		},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Lexicon returns the parser's vocabulary.
func (p *Parser) Lexicon() *Lexicon { return p.lex }

// MaxInput returns the input cap in characters.
func (p *Parser) MaxInput() int { return p.maxInput }

// Parse converts text into a validated Workout. It returns ErrInputTooLarge
// for oversized input and a *models.ValidationError if the assembled workout
// breaks a structural rule; otherwise it always succeeds.
func (p *Parser) Parse(text string) (*models.Workout, error) {
	lines, err := Segment(text, p.maxInput, p.lex)
	if err != nil {
		return nil, err
	}
	w, err := p.asm.Assemble(lines)
	if err != nil {
		return nil, fmt.Errorf("assembling workout: %w", err)
	}
	if err := models.Validate(w); err != nil {
		return nil, err
	}
	return w, nil
}

// TaggedLine is a segmented line with the groups the engine found on it.
type TaggedLine struct {
	Line   Line    `json:"line"`
	Groups []Group `json:"groups,omitempty"`
}

// Tag runs segmentation and tagging without assembly. It is meant for
// inspecting how a text is read.
func (p *Parser) Tag(text string) ([]TaggedLine, error) {
	lines, err := Segment(text, p.maxInput, p.lex)
	if err != nil {
		return nil, err
	}
	out := make([]TaggedLine, 0, len(lines))
	for _, l := range lines {
		tl := TaggedLine{Line: l}
		if l.Kind == LineExercise {
			tl.Groups = p.engine.Tag(l)
		}
		out = append(out, tl)
	}
	return out, nil
}
