package port

import (
	"context"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

// ChunkStore owns the persisted pair of chunk metadata and vector index.
type ChunkStore interface {
	// Sources returns the set of source names already indexed.
	Sources() map[string]struct{}

	// Count returns the number of chunks, which equals the number of vectors.
	Count() int

	// State returns the lifecycle phase of the vector index.
	State() domain.TrainingState

	// Append assigns vector ids to chunks and adds their vectors in one step.
	// Nothing is visible on disk until Commit.
	Append(chunks []domain.Chunk, vectors [][]float32) ([]domain.Chunk, error)

	// Commit persists metadata and index together.
	Commit() error

	// MaybeRetrain rebuilds the index from the full corpus once the
	// threshold is crossed. Reports whether a rebuild happened.
	MaybeRetrain(ctx context.Context) (bool, error)

	// Search returns up to k hits in ascending distance order.
	Search(query []float32, k int) ([]domain.SearchHit, error)

	// Reset removes every persisted artifact of the store.
	Reset() error

	Close() error
}
