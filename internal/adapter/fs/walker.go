package fs

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

// Lister enumerates the lesson files of a flat source directory.
type Lister struct {
	includes []string
	excludes []string
	sentinel string
}

func NewLister(includes, excludes []string, sentinel string) *Lister {
	if len(includes) == 0 {
		includes = []string{"*"}
	}
	return &Lister{
		includes: includes,
		excludes: excludes,
		sentinel: sentinel,
	}
}

// List returns the matching regular files directly under dir sorted by
// name. Subdirectories are not descended. A missing dir lists nothing.
func (l *Lister) List(dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var docs []domain.Document
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !l.Matches(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		docs = append(docs, domain.Document{
			Name:    entry.Name(),
			Path:    filepath.Join(dir, entry.Name()),
			ModTime: info.ModTime(),
		})
	}
	return docs, nil
}

// Matches reports whether a file name would be listed.
func (l *Lister) Matches(name string) bool {
	if name == l.sentinel {
		return false
	}
	return l.shouldInclude(name) && !l.shouldExclude(name)
}

func (l *Lister) shouldInclude(name string) bool {
	for _, pattern := range l.includes {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}

func (l *Lister) shouldExclude(name string) bool {
	for _, pattern := range l.excludes {
		matched, err := doublestar.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// ClearDir removes every regular file directly under dir except the
// sentinel and returns how many were removed.
func ClearDir(dir, sentinel string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == sentinel {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
