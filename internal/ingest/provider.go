// Package ingest holds what the workout providers share: the result
// counters, source hashing, capped body reads, and parse-log bookkeeping.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/claude/wodscribe/internal/models"
	"github.com/claude/wodscribe/internal/parse"
	"github.com/claude/wodscribe/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// Result holds the outcome of an ingest operation.
type Result struct {
	Received      int         `json:"received"`
	Parsed        int         `json:"parsed"`
	Stored        int         `json:"stored"`
	Duplicates    int         `json:"duplicates"`
	LowConfidence int         `json:"low_confidence"`
	Rejected      int         `json:"rejected"`
	WorkoutIDs    []uuid.UUID `json:"workout_ids"`

	Message string `json:"message,omitempty"`
}

// Store is the persistence a provider writes to. *storage.DB implements it.
type Store interface {
	InsertWorkout(ctx context.Context, w *models.Workout, meta models.WorkoutMeta) (uuid.UUID, bool, error)
	InsertParseLog(ctx context.Context, log storage.ParseLog) (int64, error)
	UpdateParseLog(ctx context.Context, id int64, log storage.ParseLog) error
}

// Save stores one workout and updates the counters. A duplicate counts
// toward Duplicates and still reports its existing ID.
func (r *Result) Save(ctx context.Context, store Store, w *models.Workout, meta models.WorkoutMeta) (uuid.UUID, bool, error) {
	id, created, err := store.InsertWorkout(ctx, w, meta)
	if err != nil {
		return uuid.Nil, false, err
	}
	r.WorkoutIDs = append(r.WorkoutIDs, id)
	if created {
		r.Stored++
	} else {
		r.Duplicates++
	}
	return id, created, nil
}

// SourceHash identifies a workout description for deduplication. Line
// endings, Unicode compatibility forms, and surrounding whitespace do not
// change the hash.
func SourceHash(source, text string) string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t\r")
	}
	sum := sha256.Sum256([]byte(source + "\x00" + strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

// ReadText reads a text body of at most maxRunes characters. Longer bodies
// fail with parse.ErrInputTooLarge without being read in full. Invalid UTF-8
// is replaced.
func ReadText(r io.Reader, maxRunes int) (string, error) {
	if maxRunes <= 0 {
		b, err := io.ReadAll(r)
		if err != nil {
			return "", fmt.Errorf("reading body: %w", err)
		}
		return strings.ToValidUTF8(string(b), "�"), nil
	}
	limit := int64(maxRunes) * utf8.UTFMax
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	if int64(len(b)) > limit {
		return "", parse.ErrInputTooLarge
	}
	text := strings.ToValidUTF8(string(b), "�")
	if utf8.RuneCountInString(text) > maxRunes {
		return "", parse.ErrInputTooLarge
	}
	return text, nil
}

// Run tracks one ingest operation in the parse log. Logging failures are
// reported but never fail the ingest itself.
type Run struct {
	store  Store
	log    *slog.Logger
	source string
	id     int64
	start  time.Time
}

// StartRun records a running parse log entry for source.
func StartRun(ctx context.Context, store Store, log *slog.Logger, source string) *Run {
	run := &Run{store: store, log: log, source: source, start: time.Now()}
	id, err := store.InsertParseLog(ctx, storage.ParseLog{Source: source, Status: storage.StatusRunning})
	if err != nil {
		log.Error("failed to create parse log", "source", source, "error", err)
		return run
	}
	run.id = id
	return run
}

// Finish marks the run finished with the given result and error.
func (r *Run) Finish(res *Result, runErr error) {
	if r.id == 0 {
		return
	}
	if res == nil {
		res = &Result{}
	}
	durationMs := int(time.Since(r.start).Milliseconds())
	entry := storage.ParseLog{
		Source:        r.source,
		Status:        Status(res, runErr),
		Received:      res.Received,
		Parsed:        res.Parsed,
		Stored:        res.Stored,
		Duplicates:    res.Duplicates,
		LowConfidence: res.LowConfidence,
		Rejected:      res.Rejected,
		DurationMs:    &durationMs,
	}
	if runErr != nil {
		msg := runErr.Error()
		entry.ErrorMessage = &msg
	}

	// The request context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second) //nolint:mnd
	defer cancel()
	if err := r.store.UpdateParseLog(ctx, r.id, entry); err != nil {
		r.log.Error("failed to update parse log", "id", r.id, "source", r.source, "error", err)
	}
}

// Status classifies a finished run for the parse log.
func Status(res *Result, err error) string {
	switch {
	case err != nil:
		return storage.StatusError
	case res.Rejected > 0 && res.Stored+res.Duplicates == 0:
		return storage.StatusError
	case res.Rejected > 0:
		return storage.StatusPartial
	default:
		return storage.StatusSuccess
	}
}
