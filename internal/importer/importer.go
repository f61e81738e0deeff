// Package importer loads a directory of workout notes and Alpha Progression
// CSV exports straight into the database.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/claude/wodscribe/internal/ingest"
	"github.com/claude/wodscribe/internal/ingest/alpha"
	"github.com/claude/wodscribe/internal/ingest/text"
	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/notes"
	"github.com/claude/wodscribe/internal/parse"
	"golang.org/x/sync/errgroup"
)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesErrored   int

	WorkoutsInserted   int
	WorkoutsDuplicated int
	WorkoutsRejected   int
	LowConfidence      int
}

// Importer parses notes from a directory and stores them.
type Importer struct {
	store       ingest.Store
	parser      *parse.Parser
	text        *text.Provider
	alpha       *alpha.Provider
	log         *slog.Logger
	dryRun      bool
	concurrency int

	mu    sync.Mutex
	stats Stats
}

// New creates a new Importer. concurrency bounds files processed at once.
func New(store ingest.Store, parser *parse.Parser, log *slog.Logger, dryRun bool, concurrency int) *Importer {
	return &Importer{
		store:       store,
		parser:      parser,
		text:        text.NewProvider(store, parser, log),
		alpha:       alpha.NewProvider(store, parser.Lexicon(), log),
		log:         log,
		dryRun:      dryRun,
		concurrency: max(concurrency, 1),
	}
}

// Import processes every note and every .csv export under root. A file
// that fails is logged and counted; a storage failure stops the import.
func (imp *Importer) Import(ctx context.Context, root string) (*Stats, error) {
	files, err := notes.Find(root)
	if err != nil {
		return &imp.stats, err
	}
	exports, err := filepath.Glob(filepath.Join(root, "*.csv"))
	if err != nil {
		return &imp.stats, err
	}
	imp.log.Info("importing", "root", root, "notes", len(files), "exports", len(exports), "dry_run", imp.dryRun)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(imp.concurrency)
	for _, f := range files {
		g.Go(func() error { return imp.importNote(ctx, f) })
	}
	for _, path := range exports {
		g.Go(func() error { return imp.importExport(ctx, path) })
	}
	if err := g.Wait(); err != nil {
		return &imp.stats, err
	}
	return &imp.stats, nil
}

func (imp *Importer) importNote(ctx context.Context, f notes.File) error {
	log := imp.log.With("file", f.RelPath)

	body, err := notes.Read(f, imp.parser.MaxInput())
	if err != nil {
		log.Warn("read failed", "error", err)
		imp.count(func(s *Stats) { s.FilesErrored++ })
		return nil
	}

	if imp.dryRun {
		w, err := imp.parser.Parse(body)
		if err != nil {
			log.Warn("parse failed", "error", err)
			imp.count(func(s *Stats) { s.FilesErrored++; s.WorkoutsRejected++ })
			return nil
		}
		log.Info("dry-run: would insert", "title", w.Title, "exercises", w.ExerciseCount())
		imp.count(func(s *Stats) {
			s.FilesProcessed++
			s.LowConfidence += w.LowConfidenceCount()
		})
		return nil
	}

	res, _, err := imp.text.IngestString(ctx, body, text.Options{PerformedAt: f.PerformedAt()})
	if err != nil {
		if rejected(err) {
			log.Warn("note rejected", "error", err)
			imp.count(func(s *Stats) { s.FilesErrored++; s.WorkoutsRejected++ })
			return nil
		}
		return fmt.Errorf("importing %s: %w", f.RelPath, err)
	}
	imp.add(res)
	return nil
}

func (imp *Importer) importExport(ctx context.Context, path string) error {
	name := filepath.Base(path)
	log := imp.log.With("file", name)

	fh, err := os.Open(path)
	if err != nil {
		log.Warn("open failed", "error", err)
		imp.count(func(s *Stats) { s.FilesErrored++ })
		return nil
	}
	defer fh.Close()

	if imp.dryRun {
		sessions, err := alpha.Parse(fh)
		if err != nil {
			log.Warn("parse failed", "error", err)
			imp.count(func(s *Stats) { s.FilesErrored++ })
			return nil
		}
		log.Info("dry-run: would insert sessions", "sessions", len(sessions))
		imp.count(func(s *Stats) { s.FilesProcessed++ })
		return nil
	}

	res, err := imp.alpha.Ingest(ctx, fh)
	if err != nil {
		if errors.Is(err, alpha.ErrMalformed) {
			log.Warn("not an Alpha Progression export", "error", err)
			imp.count(func(s *Stats) { s.FilesErrored++ })
			return nil
		}
		return fmt.Errorf("importing %s: %w", name, err)
	}
	imp.add(res)
	return nil
}

// rejected reports whether err came from the parser rather than storage.
func rejected(err error) bool {
	var verr *models.ValidationError
	return errors.Is(err, parse.ErrInputTooLarge) || errors.As(err, &verr)
}

func (imp *Importer) add(res *ingest.Result) {
	imp.count(func(s *Stats) {
		s.FilesProcessed++
		s.WorkoutsInserted += res.Stored
		s.WorkoutsDuplicated += res.Duplicates
		s.WorkoutsRejected += res.Rejected
		s.LowConfidence += res.LowConfidence
	})
}

func (imp *Importer) count(fn func(*Stats)) {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	fn(&imp.stats)
}
