package domain

import "errors"

// Per-file conditions. The orchestrator logs these and moves on.
var (
	// ErrUnsupportedFormat indicates a source with an extension no extractor handles.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyDocument indicates a source whose extracted text is blank.
	ErrEmptyDocument = errors.New("empty document")

	// ErrCorruptDocument indicates a source that could not be parsed.
	ErrCorruptDocument = errors.New("corrupt document")
)

// Fatal conditions. These abort the run with nothing committed.
var (
	// ErrDimensionMismatch indicates the embedding model and the index disagree on vector size.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrStoreOutOfSync indicates the metadata list and the vector index hold different counts.
	ErrStoreOutOfSync = errors.New("chunk metadata and vector index out of sync")

	// ErrPersonalityNotFound indicates a missing personality template file.
	ErrPersonalityNotFound = errors.New("personality not found")
)

// ErrIndexNotReady indicates a query against an absent or empty index.
// Callers should ask for documents to be processed first.
var ErrIndexNotReady = errors.New("index not ready")
