package parse

import (
	"fmt"
	"strings"

	"github.com/claude/wodscribe/internal/models"
)

// DefaultTitleMax bounds a title derived from the first non-blank line.
const DefaultTitleMax = 60

// GroupingPolicy controls how group codes ("A1", "A2") are carried onto
// exercises.
type GroupingPolicy string

const (
	// GroupByPrefix copies the group letter ("A" of "A1") onto each exercise.
	GroupByPrefix GroupingPolicy = "prefix"
	// GroupNone ignores group codes.
	GroupNone GroupingPolicy = "none"
)

// ParseGroupingPolicy reads a policy name; "" means GroupByPrefix.
func ParseGroupingPolicy(s string) (GroupingPolicy, error) {
	switch GroupingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", GroupByPrefix:
		return GroupByPrefix, nil
	case GroupNone:
		return GroupNone, nil
	}
	return "", fmt.Errorf("unknown grouping policy %q (want prefix or none)", s)
}

// Assembler turns classified lines into a Workout.
type Assembler struct {
	Lexicon  *Lexicon
	Engine   *Engine
	Policy   GroupingPolicy
	TitleMax int
}

// Assemble builds a Workout. A block starts at every header; exercise lines
// before the first header go into an unlabeled "sets" block, and a blank
// line after exercises closes the current block.
func (a *Assembler) Assemble(lines []Line) (*models.Workout, error) {
	w := &models.Workout{Blocks: []*models.Block{}}
	var cur *models.Block

	for _, line := range lines {
		switch line.Kind {
		case LineBlank:
			if cur != nil && len(cur.Exercises()) > 0 {
				cur = nil
			}

		case LineHeader:
			st := line.Structure
			if st == "" {
				st = models.StructureSets
			}
			b, err := models.NewBlock(line.Label, st)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line.Number, err)
			}
			w.Blocks = append(w.Blocks, b)
			cur = b

		case LineExercise:
			if cur == nil {
				b, err := models.NewBlock("", models.StructureSets)
				if err != nil {
					return nil, err
				}
				w.Blocks = append(w.Blocks, b)
				cur = b
			}
			for _, g := range a.Engine.Tag(line) {
				ex := a.Lexicon.exercise(g, line)
				if a.Policy != GroupNone {
					ex.Group = line.Group
				}
				cur.Append(ex)
			}
		}
	}

	w.Title = a.title(lines)
	return w, nil
}

// title picks the first header label, then the first non-blank line cut to
// TitleMax characters, then the lexicon fallback.
func (a *Assembler) title(lines []Line) string {
	for _, l := range lines {
		if l.Kind == LineHeader && strings.TrimSpace(l.Label) != "" {
			return truncate(l.Label, a.TitleMax)
		}
	}
	for _, l := range lines {
		if l.Kind != LineBlank && strings.TrimSpace(l.Text) != "" {
			return truncate(l.Text, a.TitleMax)
		}
	}
	return a.Lexicon.FallbackTitle()
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return strings.TrimSpace(string(r[:limit]))
}
