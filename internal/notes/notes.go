// Package notes finds workout notes in a directory tree.
package notes

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/claude/wodscribe/internal/parse"
)

// Extensions lists the file types treated as workout notes.
var Extensions = []string{".txt", ".md"}

// File is one note found under a root directory.
type File struct {
	Path    string // absolute or root-joined path
	RelPath string // slash-separated path relative to the root
	Size    int64
}

// Find walks root and returns every note, sorted by relative path. Hidden
// files and directories are skipped.
func Find(root string) ([]File, error) {
	var files []File
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if path != root && strings.HasPrefix(name, ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isNote(name) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, File{Path: path, RelPath: filepath.ToSlash(rel), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].RelPath < files[j].RelPath })
	return files, nil
}

func isNote(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Read returns the file's text. Files longer than maxRunes characters fail
// with parse.ErrInputTooLarge; maxRunes <= 0 disables the check.
func Read(f File, maxRunes int) (string, error) {
	if maxRunes > 0 && f.Size > int64(maxRunes)*utf8.UTFMax {
		return "", fmt.Errorf("%s: %w", f.RelPath, parse.ErrInputTooLarge)
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", f.RelPath, err)
	}
	text := strings.ToValidUTF8(string(b), "�")
	if maxRunes > 0 && utf8.RuneCountInString(text) > maxRunes {
		return "", fmt.Errorf("%s: %w", f.RelPath, parse.ErrInputTooLarge)
	}
	return text, nil
}

var datePrefixRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})`)

// PerformedAt reads a leading YYYY-MM-DD from the file name
// ("2026-03-01 legs.md"). It returns nil when the name carries no date.
func (f File) PerformedAt() *time.Time {
	m := datePrefixRe.FindStringSubmatch(filepath.Base(f.Path))
	if m == nil {
		return nil
	}
	t, err := time.Parse(time.DateOnly, m[1])
	if err != nil {
		return nil
	}
	return &t
}
