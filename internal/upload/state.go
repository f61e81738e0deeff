package upload

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const stateSchema = `CREATE TABLE IF NOT EXISTS uploaded_notes (
	path        TEXT PRIMARY KEY,
	size        INTEGER NOT NULL,
	hash        TEXT NOT NULL,
	workout_id  TEXT NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	uploaded_at TIMESTAMP NOT NULL
)`

// Record is what the state file remembers about one sent note.
type Record struct {
	Path       string
	Size       int64
	Hash       string
	WorkoutID  string
	Title      string
	UploadedAt time.Time
}

// Matches reports whether the note is unchanged since it was sent.
func (r *Record) Matches(size int64, hash string) bool {
	return r != nil && r.Size == size && r.Hash == hash
}

// State is the local SQLite record of notes already sent to the server,
// keyed by path relative to the notes root.
type State struct {
	db *sql.DB
}

// OpenState opens or creates dir/state.db.
func OpenState(dir string) (*State, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}
	dsn := "file:" + filepath.Join(dir, "state.db") + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	// Uploads run concurrently; SQLite allows one writer.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(stateSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating state table: %w", err)
	}
	return &State{db: db}, nil
}

// Lookup returns the record for a note, or nil if it was never sent.
func (s *State) Lookup(ctx context.Context, relPath string) (*Record, error) {
	r := Record{Path: relPath}
	err := s.db.QueryRowContext(ctx,
		`SELECT size, hash, workout_id, title, uploaded_at FROM uploaded_notes WHERE path = ?`, relPath,
	).Scan(&r.Size, &r.Hash, &r.WorkoutID, &r.Title, &r.UploadedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", relPath, err)
	}
	return &r, nil
}

// Save records a sent note, replacing any earlier record for its path.
func (s *State) Save(ctx context.Context, r Record) error {
	if r.UploadedAt.IsZero() {
		r.UploadedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO uploaded_notes (path, size, hash, workout_id, title, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Path, r.Size, r.Hash, r.WorkoutID, r.Title, r.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", r.Path, err)
	}
	return nil
}

// Prune forgets every note not in keep and returns how many were removed.
// The server's copies are untouched.
func (s *State) Prune(ctx context.Context, keep []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `CREATE TEMP TABLE IF NOT EXISTS keep_paths (path TEXT PRIMARY KEY)`); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM keep_paths`); err != nil {
		return 0, err
	}
	for _, p := range keep {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO keep_paths (path) VALUES (?)`, p); err != nil {
			return 0, err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM uploaded_notes WHERE path NOT IN (SELECT path FROM keep_paths)`)
	if err != nil {
		return 0, fmt.Errorf("pruning state: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), tx.Commit()
}

func (s *State) Close() error {
	return s.db.Close()
}

// HashFile returns the hex SHA-256 of a file's contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
