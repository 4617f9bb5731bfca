// Package embedding maps chunk text to fixed-dimension vectors.
package embedding

import (
	"fmt"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

// checkDimensions fails with domain.ErrDimensionMismatch when any vector
// does not have exactly dim components.
func checkDimensions(vectors [][]float32, dim int) error {
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d components, expected %d", domain.ErrDimensionMismatch, i, len(v), dim)
		}
	}
	return nil
}
