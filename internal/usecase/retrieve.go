package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/port"
)

// RetrieveUseCase answers nearest-chunk queries for a question.
type RetrieveUseCase struct {
	embedder port.Embedder
	store    port.ChunkStore
	log      *slog.Logger
}

func NewRetrieveUseCase(embedder port.Embedder, store port.ChunkStore, log *slog.Logger) *RetrieveUseCase {
	return &RetrieveUseCase{embedder: embedder, store: store, log: log}
}

// Query embeds question and returns up to k hits, nearest first. An
// empty or absent index yields domain.ErrIndexNotReady.
func (u *RetrieveUseCase) Query(ctx context.Context, question string, k int) ([]domain.SearchHit, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("question is empty")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}
	if u.store.Count() == 0 {
		return nil, domain.ErrIndexNotReady
	}

	vectors, err := u.embedder.Embed(ctx, []string{question})
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one question", len(vectors))
	}

	hits, err := u.store.Search(vectors[0], k)
	if err != nil {
		return nil, err
	}
	u.log.Debug("query answered", "k", k, "hits", len(hits))
	return hits, nil
}

// Generation changes whenever the store gains chunks or is retrained.
func Generation(store port.ChunkStore) uint64 {
	gen := uint64(store.Count()) << 1
	if store.State() == domain.StateTrained {
		gen |= 1
	}
	return gen
}
