package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/claude/wodscribe/internal/ingest"
	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/parse"
)

// ErrMalformed is returned when an upload is not a readable Alpha
// Progression export.
var ErrMalformed = errors.New("malformed Alpha Progression CSV")

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	store ingest.Store
	lex   *parse.Lexicon
	log   *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider. Exercise
// names are canonicalized against lex.
func NewProvider(store ingest.Store, lex *parse.Lexicon, log *slog.Logger) *Provider {
	return &Provider{store: store, lex: lex, log: log}
}

// Ingest parses a CSV export and stores one workout per session. Sessions
// already stored are counted as duplicates; sessions that fail validation
// are skipped and counted as rejected.
func (p *Provider) Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	run := ingest.StartRun(ctx, p.store, p.log, models.SourceAlpha)

	sessions, err := Parse(r)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrMalformed, err)
		run.Finish(nil, err)
		return nil, err
	}

	result := &ingest.Result{Received: len(sessions)}
	for _, s := range sessions {
		w, meta, err := p.Workout(s)
		if err != nil {
			p.log.Warn("skipping session", "session", s.Name, "date", s.Date.Format(time.DateOnly), "error", err)
			result.Rejected++
			continue
		}
		p.log.Debug("alpha session", "session", s.Name, "duration", s.Duration, "exercises", len(s.Exercises))
		result.Parsed++
		result.LowConfidence += w.LowConfidenceCount()

		if _, _, err := result.Save(ctx, p.store, w, meta); err != nil {
			var verr *models.ValidationError
			if errors.As(err, &verr) {
				result.Rejected++
				continue
			}
			err = fmt.Errorf("storing session %s: %w", s.Date.Format(time.DateOnly), err)
			run.Finish(result, err)
			return nil, err
		}
	}

	p.log.Info("alpha import", "sessions", len(sessions), "stored", result.Stored,
		"duplicates", result.Duplicates, "rejected", result.Rejected)
	run.Finish(result, nil)
	return result, nil
}

// Workout converts a session into a single-block workout. Each exercise
// carries its working-set count, the target reps, and the heaviest working
// load. Warmup sets are ignored.
func (p *Provider) Workout(s Session) (*models.Workout, models.WorkoutMeta, error) {
	title := s.Name
	if title == "" {
		title = p.lex.FallbackTitle()
	}

	exercises := make([]models.Exercise, 0, len(s.Exercises))
	for _, ae := range s.Exercises {
		exercises = append(exercises, p.exercise(ae))
	}
	block, err := models.NewBlock(s.Name, models.StructureSets, exercises...)
	if err != nil {
		return nil, models.WorkoutMeta{}, err
	}
	w := &models.Workout{Title: title, Blocks: []*models.Block{block}}
	if err := models.Validate(w); err != nil {
		return nil, models.WorkoutMeta{}, err
	}

	date := s.Date
	meta := models.WorkoutMeta{
		Source:      models.SourceAlpha,
		SourceHash:  ingest.SourceHash(models.SourceAlpha, s.Name+"\n"+date.Format(time.RFC3339)),
		PerformedAt: &date,
	}
	return w, meta, nil
}

func (p *Provider) exercise(ae Exercise) models.Exercise {
	ex := models.Exercise{
		Name:       ae.Name,
		Confidence: models.ConfidenceMedium,
		Notes:      ae.Equipment,
		Source:     fmt.Sprintf("%d. %s", ae.Number, ae.Name),
	}
	if ae.Modifiers != "" {
		ex.Notes = strings.TrimPrefix(ex.Notes+" · "+ae.Modifiers, " · ")
	}
	if canonical, _, ok := p.lex.Canonicalize(ae.Name); ok {
		ex.Canonical = canonical
		ex.Confidence = models.ConfidenceHigh
	}

	working := ae.WorkingSets()
	if len(working) > 0 {
		ex.Sets = models.Int(len(working))
	}
	if ae.TargetReps > 0 {
		ex.Reps = models.Int(ae.TargetReps)
	}

	var top *Set
	for i := range working {
		if top == nil || working[i].WeightKg > top.WeightKg {
			top = &working[i]
		}
	}
	switch {
	case top == nil:
	case top.IsBodyweightPlus && top.WeightKg == 0:
		ex.Load = &models.Load{Unit: models.LoadBodyweight}
	case top.WeightKg > 0:
		ex.Load = &models.Load{Magnitude: top.WeightKg, Unit: models.LoadKg}
		if top.IsBodyweightPlus {
			ex.Notes = strings.TrimSpace(ex.Notes + " (bodyweight plus)")
		}
	}
	return ex
}
