package parse

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/claude/wodscribe/internal/models"
)

var (
	rangeRe    = regexp.MustCompile(`^(\d+)(?:\s*-\s*(\d+))?$`)
	durationRe = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*([a-z]*)`)
	loadRe     = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(.*)$`)
)

// exercise converts a tagged group into an Exercise. Values that cannot be
// read are left unset rather than guessed; values that read but break a rule,
// such as zero sets, are kept for the validator to reject.
func (l *Lexicon) exercise(g Group, line Line) models.Exercise {
	ex := models.Exercise{
		Name:       g.Name,
		Canonical:  g.Canonical,
		Confidence: g.Confidence,
		Notes:      g.Notes,
		Source:     line.Text,
	}
	if s, ok := g.Span(KindSets); ok {
		if n, ok := count(s.Text); ok {
			ex.Sets = models.Int(n)
		}
	}
	if s, ok := g.Span(KindReps); ok {
		ex.Reps, ex.RepsMax = repRange(s.Text)
	}
	if s, ok := g.Span(KindRest); ok {
		if secs, ok := l.seconds(s.Text); ok {
			ex.RestSeconds = models.Int(secs)
		}
	}
	if s, ok := g.Span(KindDuration); ok {
		if secs, ok := l.seconds(s.Text); ok {
			ex.DurationSeconds = models.Int(secs)
		}
	}
	if s, ok := g.Span(KindLoad); ok {
		ex.Load = l.load(s.Text)
	}
	return ex
}

func count(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	return n, err == nil
}

// repRange reads "10" or "8-12". A reversed range is put in order.
func repRange(s string) (lo, hi *int) {
	m := rangeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return nil, nil
	}
	a, _ := strconv.Atoi(m[1])
	if m[2] == "" {
		return models.Int(a), nil
	}
	b, _ := strconv.Atoi(m[2])
	if b < a {
		a, b = b, a
	}
	if a == b {
		return models.Int(a), nil
	}
	return models.Int(a), models.Int(b)
}

// seconds reads "90", "90s", "2 min", "1:30", and "2m30s". A number with no
// unit counts as seconds.
func (l *Lexicon) seconds(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if mm, ss, ok := strings.Cut(s, ":"); ok {
		m, err1 := strconv.Atoi(strings.TrimSpace(mm))
		sec, err2 := strconv.Atoi(strings.TrimRight(ss, " abcdefghijklmnopqrstuvwxyz"))
		if err1 != nil || err2 != nil || sec >= 60 {
			return 0, false
		}
		return m*60 + sec, true
	}

	total := 0.0
	matches := durationRe.FindAllStringSubmatch(s, -1)
	if len(matches) == 0 {
		return 0, false
	}
	for _, m := range matches {
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			return 0, false
		}
		unit := 1
		if m[2] != "" {
			u, ok := l.DurationUnit(m[2])
			if !ok {
				return 0, false
			}
			unit = u
		}
		total += v * float64(unit)
	}
	return int(total + 0.5), true
}

// load reads "60kg", "135 lbs", "70%", "BW", or a bare number in the default
// unit. Unknown unit spellings fall back to the default unit.
func (l *Lexicon) load(s string) *models.Load {
	s = strings.TrimSpace(s)
	if u, ok := l.LoadUnit(s); ok && u == models.LoadBodyweight {
		return &models.Load{Magnitude: 0, Unit: models.LoadBodyweight}
	}
	m := loadRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return nil
	}
	u, ok := l.LoadUnit(m[2])
	if !ok {
		u, _ = l.LoadUnit("")
	}
	return &models.Load{Magnitude: v, Unit: u}
}
