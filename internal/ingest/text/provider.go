// Package text ingests free-text workout descriptions.
package text

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/claude/wodscribe/internal/ingest"
	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/parse"
)

// Provider parses workout text and stores the result.
type Provider struct {
	store  ingest.Store
	parser *parse.Parser
	log    *slog.Logger
}

// NewProvider creates a text ingest provider.
func NewProvider(store ingest.Store, parser *parse.Parser, log *slog.Logger) *Provider {
	return &Provider{store: store, parser: parser, log: log}
}

// Options describe where a description came from.
type Options struct {
	// Source is recorded with the workout; defaults to models.SourceText.
	Source      string
	PerformedAt *time.Time
}

// Ingest reads one workout description from r, parses it, and stores it.
// Identical text submitted again returns the existing workout's ID with
// Duplicates set instead of Stored.
func (p *Provider) Ingest(ctx context.Context, r io.Reader, opts Options) (*ingest.Result, *models.Workout, error) {
	body, err := ingest.ReadText(r, p.parser.MaxInput())
	if err != nil {
		return nil, nil, err
	}
	return p.IngestString(ctx, body, opts)
}

// IngestString is Ingest for text already in memory.
func (p *Provider) IngestString(ctx context.Context, body string, opts Options) (*ingest.Result, *models.Workout, error) {
	if opts.Source == "" {
		opts.Source = models.SourceText
	}
	run := ingest.StartRun(ctx, p.store, p.log, opts.Source)
	result := &ingest.Result{Received: 1}

	w, err := p.parser.Parse(body)
	if err != nil {
		result.Rejected = 1
		run.Finish(result, err)
		return nil, nil, err
	}
	result.Parsed = 1
	result.LowConfidence = w.LowConfidenceCount()

	meta := models.WorkoutMeta{
		Source:      opts.Source,
		SourceHash:  ingest.SourceHash(opts.Source, body),
		RawText:     body,
		PerformedAt: opts.PerformedAt,
	}
	id, created, err := result.Save(ctx, p.store, w, meta)
	if err != nil {
		err = fmt.Errorf("storing workout: %w", err)
		run.Finish(result, err)
		return nil, nil, err
	}

	if created {
		p.log.Info("workout stored", "id", id, "title", w.Title,
			"exercises", w.ExerciseCount(), "low_confidence", result.LowConfidence)
	} else {
		result.Message = "workout already stored"
		p.log.Info("duplicate workout", "id", id, "title", w.Title)
	}
	run.Finish(result, nil)
	return result, w, nil
}
