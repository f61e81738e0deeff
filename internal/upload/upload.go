// Package upload sends a directory of workout notes to a remote wodscribe
// server, remembering what was already sent in a local SQLite file.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/claude/wodscribe/internal/notes"
	"github.com/claude/wodscribe/internal/parse"
	"golang.org/x/sync/errgroup"
)

// Stats tracks upload progress.
type Stats struct {
	FilesTotal    int
	FilesUploaded int
	FilesSkipped  int
	FilesErrored  int

	WorkoutsCreated    int
	WorkoutsDuplicated int
	LowConfidence      int

	// StateForgotten counts state records dropped because their note is gone.
	StateForgotten int
}

// Uploader walks a notes directory, parses each note locally, and POSTs
// the ones that parse to the server.
type Uploader struct {
	client      *Client
	state       *State
	parser      *parse.Parser
	root        string
	dryRun      bool
	concurrency int
	log         *slog.Logger

	mu    sync.Mutex
	stats Stats
}

// New creates a new Uploader. concurrency bounds in-flight uploads.
func New(client *Client, state *State, parser *parse.Parser, root string, dryRun bool, concurrency int, log *slog.Logger) *Uploader {
	return &Uploader{
		client:      client,
		state:       state,
		parser:      parser,
		root:        root,
		dryRun:      dryRun,
		concurrency: max(concurrency, 1),
		log:         log,
	}
}

// Run executes the upload pipeline. Per-file failures are logged and
// counted; only a failed walk or a cancelled context stops the run.
func (u *Uploader) Run(ctx context.Context) (*Stats, error) {
	files, err := notes.Find(u.root)
	if err != nil {
		return &u.stats, err
	}
	u.stats.FilesTotal = len(files)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(u.concurrency)
	for _, f := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			u.uploadFile(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return &u.stats, err
	}
	if !u.dryRun {
		keep := make([]string, len(files))
		for i, f := range files {
			keep[i] = f.RelPath
		}
		n, err := u.state.Prune(ctx, keep)
		if err != nil {
			return &u.stats, err
		}
		u.stats.StateForgotten = n
	}
	return &u.stats, nil
}

func (u *Uploader) uploadFile(ctx context.Context, f notes.File) {
	log := u.log.With("file", f.RelPath)

	hash, err := HashFile(f.Path)
	if err != nil {
		log.Warn("hash failed", "error", err)
		u.count(func(s *Stats) { s.FilesErrored++ })
		return
	}
	prev, err := u.state.Lookup(ctx, f.RelPath)
	if err != nil {
		log.Warn("state check failed", "error", err)
		u.count(func(s *Stats) { s.FilesErrored++ })
		return
	}
	if prev.Matches(f.Size, hash) {
		u.count(func(s *Stats) { s.FilesSkipped++ })
		return
	}
	if prev != nil {
		log.Info("note changed since last upload", "previous_id", prev.WorkoutID)
	}

	text, err := notes.Read(f, u.parser.MaxInput())
	if err != nil {
		log.Warn("read failed", "error", err)
		u.count(func(s *Stats) { s.FilesErrored++ })
		return
	}

	// Parse locally so rejected notes never reach the server.
	w, err := u.parser.Parse(text)
	if err != nil {
		log.Warn("parse failed", "error", err)
		u.count(func(s *Stats) { s.FilesErrored++ })
		return
	}
	low := w.LowConfidenceCount()

	if u.dryRun {
		log.Info("dry-run: would send", "title", w.Title,
			"exercises", w.ExerciseCount(), "low_confidence", low)
		u.count(func(s *Stats) { s.LowConfidence += low })
		return
	}

	res, err := u.client.SendWorkout(ctx, text, f.PerformedAt())
	if err != nil {
		log.Warn("upload failed", "error", err)
		u.count(func(s *Stats) { s.FilesErrored++ })
		return
	}
	rec := Record{Path: f.RelPath, Size: f.Size, Hash: hash, WorkoutID: res.ID, Title: w.Title}
	if err := u.state.Save(ctx, rec); err != nil {
		log.Warn("failed to mark uploaded", "error", err)
	}
	log.Info("uploaded", "id", res.ID, "created", res.Created)

	u.count(func(s *Stats) {
		s.FilesUploaded++
		s.LowConfidence += low
		if res.Created {
			s.WorkoutsCreated++
		} else {
			s.WorkoutsDuplicated++
		}
	})
}

func (u *Uploader) count(fn func(*Stats)) {
	u.mu.Lock()
	defer u.mu.Unlock()
	fn(&u.stats)
}

// String summarizes the run for the command line.
func (s *Stats) String() string {
	return fmt.Sprintf("files: %d total, %d uploaded, %d skipped, %d errored; workouts: %d created, %d duplicate; %d low-confidence exercises; %d stale state records",
		s.FilesTotal, s.FilesUploaded, s.FilesSkipped, s.FilesErrored,
		s.WorkoutsCreated, s.WorkoutsDuplicated, s.LowConfidence, s.StateForgotten)
}
