package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ricksonbnd/QuimIAca/internal/adapter/fs"
	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/port"
)

// IngestDeps wires the ingestion pipeline.
type IngestDeps struct {
	Store     port.ChunkStore
	Lister    port.SourceLister
	Extractor port.Extractor
	Chunker   port.Chunker
	Embedder  port.Embedder
	SourceDir string
	Sentinel  string
	Logger    *slog.Logger
}

// IngestUseCase turns new lesson files into indexed chunks.
type IngestUseCase struct {
	store     port.ChunkStore
	lister    port.SourceLister
	extractor port.Extractor
	chunker   port.Chunker
	embedder  port.Embedder
	sourceDir string
	sentinel  string
	log       *slog.Logger

	// Progress, when set, is called after each new file is processed.
	Progress func(done, total int, name string)
}

func NewIngestUseCase(d IngestDeps) *IngestUseCase {
	return &IngestUseCase{
		store:     d.Store,
		lister:    d.Lister,
		extractor: d.Extractor,
		chunker:   d.Chunker,
		embedder:  d.Embedder,
		sourceDir: d.SourceDir,
		sentinel:  d.Sentinel,
		log:       d.Logger,
	}
}

// SkippedFile is a source that was left out of a run.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// IngestResult contains the results of an ingestion run.
type IngestResult struct {
	FilesIndexed int
	FilesKnown   int
	FilesSkipped int
	ChunksAdded  int
	TotalChunks  int
	Retrained    bool
	NoOp         bool
	State        domain.TrainingState
	Skipped      []SkippedFile
}

// Ingest indexes every source not yet present in the store. All new
// chunks are embedded in one batch and committed together; files that
// cannot be read are skipped.
func (u *IngestUseCase) Ingest(ctx context.Context) (*IngestResult, error) {
	result := &IngestResult{}

	docs, err := u.lister.List(u.sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}

	known := u.store.Sources()
	var fresh []domain.Document
	for _, doc := range docs {
		if _, ok := known[doc.Name]; ok {
			result.FilesKnown++
			continue
		}
		fresh = append(fresh, doc)
	}

	var pending []domain.Chunk
	for i, doc := range fresh {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		chunks, err := u.chunkFile(doc)
		if err != nil {
			level := slog.LevelWarn
			if !IsSkippable(err) {
				level = slog.LevelError
			}
			u.log.Log(ctx, level, "skipping source", "file", doc.Name, "reason", err)
			result.FilesSkipped++
			result.Skipped = append(result.Skipped, SkippedFile{Name: doc.Name, Reason: err.Error()})
		} else {
			u.log.Debug("chunked source", "file", doc.Name, "chunks", len(chunks))
			pending = append(pending, chunks...)
			result.FilesIndexed++
		}
		if u.Progress != nil {
			u.Progress(i+1, len(fresh), doc.Name)
		}
	}

	if len(pending) == 0 {
		result.NoOp = true
		result.TotalChunks = u.store.Count()
		result.State = u.store.State()
		return result, nil
	}

	texts := make([]string, len(pending))
	for i, c := range pending {
		texts[i] = c.Text
	}
	vectors, err := u.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(texts), err)
	}
	if len(vectors) != len(pending) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(pending))
	}

	added, err := u.store.Append(pending, vectors)
	if err != nil {
		return nil, fmt.Errorf("failed to append chunks: %w", err)
	}
	if err := u.store.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit chunks: %w", err)
	}

	retrained, err := u.store.MaybeRetrain(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to retrain index: %w", err)
	}

	result.ChunksAdded = len(added)
	result.TotalChunks = u.store.Count()
	result.Retrained = retrained
	result.State = u.store.State()

	u.log.Info("ingestion complete",
		"files", result.FilesIndexed, "chunks_added", result.ChunksAdded,
		"total", result.TotalChunks, "state", result.State.String(), "retrained", retrained)
	return result, nil
}

func (u *IngestUseCase) chunkFile(doc domain.Document) ([]domain.Chunk, error) {
	text, err := u.extractor.Extract(doc.Path)
	if err != nil {
		return nil, err
	}
	pieces, err := u.chunker.Chunk(text)
	if err != nil {
		return nil, err
	}
	if len(pieces) == 0 {
		return nil, fmt.Errorf("%s: %w", doc.Name, domain.ErrEmptyDocument)
	}

	chunks := make([]domain.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = domain.Chunk{
			ID:      fmt.Sprintf("%s_%d", doc.Name, i),
			Text:    p,
			Source:  doc.Name,
			Ordinal: i,
		}
	}
	return chunks, nil
}

// IsSkippable reports whether err only disqualifies a single source file.
func IsSkippable(err error) bool {
	return errors.Is(err, domain.ErrUnsupportedFormat) ||
		errors.Is(err, domain.ErrEmptyDocument) ||
		errors.Is(err, domain.ErrCorruptDocument)
}

// ResetResult describes what a reset removed.
type ResetResult struct {
	SourcesRemoved int
}

// Reset wipes the index, metadata and training flag, then deletes the
// source documents except the sentinel file.
func (u *IngestUseCase) Reset(ctx context.Context) (*ResetResult, error) {
	return ResetAll(ctx, u.store.Reset, u.sourceDir, u.sentinel, u.log)
}

// ResetAll runs remove to wipe the persisted index and then clears
// sourceDir, keeping sentinel. It needs no open store, so it also works
// on an index that no longer loads.
func ResetAll(ctx context.Context, remove func() error, sourceDir, sentinel string, log *slog.Logger) (*ResetResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := remove(); err != nil {
		return nil, fmt.Errorf("failed to reset store: %w", err)
	}
	removed, err := fs.ClearDir(sourceDir, sentinel)
	if err != nil {
		return nil, fmt.Errorf("failed to clear sources: %w", err)
	}
	log.Info("reset complete", "sources_removed", removed)
	return &ResetResult{SourcesRemoved: removed}, nil
}

// Watch ingests once, then again every time the watcher reports new
// sources, until ctx is cancelled. onResult receives each run's result.
func (u *IngestUseCase) Watch(ctx context.Context, w *fs.Watcher, onResult func(*IngestResult)) error {
	run := func(ctx context.Context) error {
		res, err := u.Ingest(ctx)
		if err != nil {
			return err
		}
		if onResult != nil {
			onResult(res)
		}
		return nil
	}
	if err := run(ctx); err != nil {
		return err
	}
	return w.Watch(ctx, run)
}
