package port

import (
	"context"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

// Retriever answers nearest-chunk queries for a question.
type Retriever interface {
	Query(ctx context.Context, question string, k int) ([]domain.SearchHit, error)
}

// HistoryLog is the append-only record of tutoring interactions.
type HistoryLog interface {
	Append(it domain.Interaction) error
	List() ([]domain.Interaction, error)
}
