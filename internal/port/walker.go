package port

import "github.com/ricksonbnd/QuimIAca/internal/domain"

// SourceLister enumerates the documents of the material directory.
type SourceLister interface {
	List(dir string) ([]domain.Document, error)
}

// Extractor turns a source document into raw text.
type Extractor interface {
	Extract(path string) (string, error)
}
