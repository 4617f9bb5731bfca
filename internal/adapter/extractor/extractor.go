// Package extractor converts source documents into raw text.
package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/port"
)

// Registry dispatches extraction by file extension.
type Registry struct {
	byExt map[string]port.Extractor
}

// NewRegistry returns a registry handling .pdf and .txt sources.
func NewRegistry() *Registry {
	r := &Registry{byExt: make(map[string]port.Extractor)}
	r.Register(".pdf", NewPDFExtractor())
	r.Register(".txt", NewTextExtractor())
	return r
}

// Register binds an extractor to an extension such as ".md".
func (r *Registry) Register(ext string, e port.Extractor) {
	r.byExt[strings.ToLower(ext)] = e
}

// Supports reports whether path has a registered extension.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extract returns the full text of path. It fails with
// domain.ErrUnsupportedFormat for unknown extensions and with
// domain.ErrEmptyDocument when nothing but whitespace comes out.
func (r *Registry) Extract(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	e, ok := r.byExt[ext]
	if !ok {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrUnsupportedFormat)
	}

	text, err := e.Extract(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrEmptyDocument)
	}
	return text, nil
}
